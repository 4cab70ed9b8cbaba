package security

import (
	"context"

	"redfish-modelgen/internal/security/models"
	"redfish-modelgen/internal/security/services"
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/database"
)

// Module compiles and queries the URI privilege table
type Module struct {
	cfg     config.SecurityConfig
	mongodb *database.MongoDB
	service *services.Service
}

func New(mongodb *database.MongoDB, cfg config.SecurityConfig) *Module {
	return &Module{
		cfg:     cfg,
		mongodb: mongodb,
		service: services.NewService(services.NewRepository(mongodb.Database, cfg), cfg),
	}
}

// Compile rebuilds the privileges table and schema cache, and stores the
// derived casbin policies when persistence is enabled
func (m *Module) Compile(ctx context.Context, runID string) (*models.CompileReport, error) {
	compilation, authorizer, err := m.service.Compile(ctx, runID)
	if err != nil {
		return nil, err
	}
	if m.cfg.PersistPolicies {
		if err := authorizer.Persist(m.mongodb.Client, m.mongodb.Database.Name(), m.cfg.PoliciesCollection); err != nil {
			return &compilation.Report, err
		}
	}
	return &compilation.Report, nil
}

// Check evaluates one request against the stored rules
func (m *Module) Check(ctx context.Context, privileges []string, uri, operation string) (bool, error) {
	authorizer, err := m.service.Authorizer(ctx)
	if err != nil {
		return false, err
	}
	return authorizer.Allowed(privileges, uri, operation)
}
