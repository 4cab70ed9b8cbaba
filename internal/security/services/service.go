package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"redfish-modelgen/pkg/config"
)

// Service compiles the privileges table and the schema cache
type Service struct {
	cfg      config.SecurityConfig
	store    Store
	compiler *Compiler
	now      func() time.Time
}

// NewService creates a security service over store
func NewService(store Store, cfg config.SecurityConfig) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		compiler: NewCompiler(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Compile reads the schema bundle and the stored privilege registry, compiles
// the rules, and replaces the stored rules and schema cache. Nothing is
// written when any input is unreadable or malformed.
func (s *Service) Compile(ctx context.Context, runID string) (*Compilation, *Authorizer, error) {
	files, err := LoadSchemaFiles(s.cfg.SchemaBundle, s.cfg.LocalSchemaPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Loaded schema bundle",
		"bundle", s.cfg.SchemaBundle,
		"local_overrides", s.cfg.UsesLocalSchema(),
		"files", len(files))

	mappings, err := s.store.PrivilegeMappings(ctx)
	if err != nil {
		return nil, nil, err
	}

	compilation, err := s.compiler.Compile(files, mappings, runID, s.now())
	if err != nil {
		return nil, nil, err
	}
	authorizer, err := NewAuthorizer(compilation.Rules)
	if err != nil {
		return nil, nil, err
	}
	if compilation.Report.Policies, err = authorizer.PolicyCount(); err != nil {
		return nil, nil, fmt.Errorf("failed to count policies: %w", err)
	}

	if err := s.store.ReplaceSchemaCache(ctx, compilation.Cache); err != nil {
		return nil, nil, err
	}
	if err := s.store.ReplaceRules(ctx, compilation.Rules); err != nil {
		return nil, nil, err
	}

	slog.Info("Compiled privileges table",
		"run_id", runID,
		"documents", compilation.Report.Documents,
		"rules", compilation.Report.Rules,
		"merged", compilation.Report.Merged,
		"duplicates", compilation.Report.Duplicates,
		"unmapped", len(compilation.Report.Unmapped),
		"policies", compilation.Report.Policies)
	return compilation, authorizer, nil
}

// Authorizer builds an authorizer from the stored rules
func (s *Service) Authorizer(ctx context.Context) (*Authorizer, error) {
	rules, err := s.store.Rules(ctx)
	if err != nil {
		return nil, err
	}
	return NewAuthorizer(rules)
}
