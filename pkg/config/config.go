package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete set of options for one run. It is built once by Load
// and handed to every component explicitly.
type Config struct {
	Models    ModelsConfig    `yaml:"models"`
	Security  SecurityConfig  `yaml:"security"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ModelsConfig controls the model normalization pipeline
type ModelsConfig struct {
	Dir                string            `yaml:"dir" validate:"required"`
	Extension          string            `yaml:"extension" validate:"required,startswith=."`
	ConfigDir          string            `yaml:"config_dir" validate:"required"`
	ConvertersDir      string            `yaml:"converters_dir"`
	RegistrationFile   string            `yaml:"registration_file" validate:"required"`
	RegistrationAnchor string            `yaml:"registration_anchor" validate:"required"`
	SourcePackage      string            `yaml:"source_package" validate:"required"`
	TargetPackage      string            `yaml:"target_package" validate:"required"`
	ConvertersPackage  string            `yaml:"converters_package" validate:"required"`
	CollectionSuffix   string            `yaml:"collection_suffix" validate:"required"`
	Substitutions      map[string]string `yaml:"substitutions"`
	FieldOverrides     []FieldOverride   `yaml:"field_overrides" validate:"dive"`
}

// FieldOverride replaces the generated type of one field of one model with a
// hand-written helper type.
type FieldOverride struct {
	Type      string `yaml:"type" validate:"required"`
	Field     string `yaml:"field" validate:"required"`
	FromType  string `yaml:"from_type" validate:"required"`
	FieldType string `yaml:"field_type" validate:"required"`
	Import    string `yaml:"import"`
}

// SecurityConfig controls the security table compiler
type SecurityConfig struct {
	SchemaBundle          string `yaml:"schema_bundle" validate:"required"`
	LocalSchemaPath       string `yaml:"local_schema_path"`
	RegistryDir           string `yaml:"registry_dir"`
	MockupDir             string `yaml:"mockup_dir"`
	RulesCollection       string `yaml:"rules_collection" validate:"required"`
	SchemaCacheCollection string `yaml:"schema_cache_collection" validate:"required"`
	RegistryCollection    string `yaml:"registry_collection" validate:"required"`
	PoliciesCollection    string `yaml:"policies_collection" validate:"required"`
	PersistPolicies       bool   `yaml:"persist_policies"`
}

// UsesLocalSchema reports whether a local schema directory overrides the bundle
func (s SecurityConfig) UsesLocalSchema() bool {
	return s.LocalSchemaPath != ""
}

// MongoConfig holds MongoDB connection options
type MongoConfig struct {
	URI            string        `yaml:"uri" validate:"required"`
	Database       string        `yaml:"database" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
}

// RedisConfig holds Redis options. An empty URL disables the run lock.
type RedisConfig struct {
	URL     string        `yaml:"url"`
	LockTTL time.Duration `yaml:"lock_ttl" validate:"gt=0"`
}

// TelemetryConfig holds logging and OpenTelemetry options
type TelemetryConfig struct {
	EnableTelemetry  bool   `yaml:"enable_telemetry"`
	ServiceName      string `yaml:"service_name" validate:"required"`
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
	LogLevel         string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	EnablePrettyLogs bool   `yaml:"enable_pretty_logs"`
	NodeEnv          string `yaml:"node_env"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides anything.
func Default() Config {
	return Config{
		Models: ModelsConfig{
			Dir:                "AllModels",
			Extension:          ".java",
			ConfigDir:          "config",
			RegistrationFile:   "MongoConfiguration.java",
			RegistrationAnchor: "return new MongoCustomConversions",
			SourcePackage:      "com.tutorial.codegen.model",
			TargetPackage:      "com.redfishserver.Redfish_Server.RFmodels.AllModels",
			ConvertersPackage:  "com.redfishserver.Redfish_Server.config.converters",
			CollectionSuffix:   "Collection",
			Substitutions: map[string]string{
				"OdataV4IdRef": "Odata_IdRef",
			},
			FieldOverrides: []FieldOverride{
				{
					Type:      "Task_Task",
					Field:     "taskMonitor",
					FromType:  "String",
					FieldType: "TaskMonitor",
					Import:    "com.redfishserver.Redfish_Server.RFmodels.custom.TaskMonitor",
				},
			},
		},
		Security: SecurityConfig{
			SchemaBundle:          "json-schema",
			RulesCollection:       "privileges_table",
			SchemaCacheCollection: "json_schema",
			RegistryCollection:    "PrivilegeRegistry",
			PoliciesCollection:    "security_policies",
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "RedfishDB",
			ConnectTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			LockTTL: 10 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "redfish-modelgen",
			OTLPEndpoint: "localhost:4318",
			LogLevel:     "info",
			NodeEnv:      "development",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Models.ConvertersDir == "" {
		cfg.Models.ConvertersDir = filepath.Join(cfg.Models.ConfigDir, "converters")
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct constraints of a configuration
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return fmt.Errorf("invalid configuration: %s failed on %q", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	m := &cfg.Models
	m.Dir = GetEnv("MODELS_DIR", m.Dir)
	m.ConfigDir = GetEnv("MODELS_CONFIG_DIR", m.ConfigDir)
	m.ConvertersDir = GetEnv("MODELS_CONVERTERS_DIR", m.ConvertersDir)
	m.RegistrationFile = GetEnv("MODELS_REGISTRATION_FILE", m.RegistrationFile)
	m.SourcePackage = GetEnv("MODELS_SOURCE_PACKAGE", m.SourcePackage)
	m.TargetPackage = GetEnv("MODELS_TARGET_PACKAGE", m.TargetPackage)
	m.CollectionSuffix = GetEnv("MODELS_COLLECTION_SUFFIX", m.CollectionSuffix)

	s := &cfg.Security
	s.SchemaBundle = GetEnv("SCHEMA_BUNDLE_PATH", s.SchemaBundle)
	s.LocalSchemaPath = GetEnv("LOCAL_SCHEMA_PATH", s.LocalSchemaPath)
	s.RegistryDir = GetEnv("PRIVILEGE_REGISTRY_DIR", s.RegistryDir)
	s.MockupDir = GetEnv("MOCKUP_DIR", s.MockupDir)
	s.PersistPolicies = GetBoolEnv("PERSIST_SECURITY_POLICIES", s.PersistPolicies)

	cfg.Mongo.URI = GetEnv("MONGODB_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = GetEnv("MONGODB_DATABASE", cfg.Mongo.Database)
	cfg.Mongo.ConnectTimeout = GetDurationEnv("MONGODB_CONNECT_TIMEOUT", cfg.Mongo.ConnectTimeout)

	cfg.Redis.URL = GetEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.LockTTL = GetDurationEnv("RUN_LOCK_TTL", cfg.Redis.LockTTL)

	t := &cfg.Telemetry
	t.EnableTelemetry = GetBoolEnv("ENABLE_TELEMETRY", t.EnableTelemetry)
	t.ServiceName = GetEnv("SERVICE_NAME", t.ServiceName)
	t.OTLPEndpoint = GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", t.OTLPEndpoint)
	t.LogLevel = GetEnv("LOG_LEVEL", t.LogLevel)
	t.EnablePrettyLogs = GetBoolEnv("ENABLE_PRETTY_LOGS", t.EnablePrettyLogs)
	t.NodeEnv = GetEnv("NODE_ENV", t.NodeEnv)
}
