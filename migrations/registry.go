package migrations

import (
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/migrations"
)

// All returns every migration in version order, bound to the configured
// collection names
func All(cfg config.SecurityConfig) []migrations.RegisteredMigration {
	return []migrations.RegisteredMigration{
		privilegesTableIndexes(cfg.RulesCollection),
		schemaCacheIndexes(cfg.SchemaCacheCollection),
		registryIndexes(cfg.RegistryCollection, "MessageRegistry"),
	}
}

// RegisterAll registers all migrations with the runner
func RegisterAll(runner *migrations.Runner, cfg config.SecurityConfig) {
	for _, m := range All(cfg) {
		runner.Register(m)
	}
}
