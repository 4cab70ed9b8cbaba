package registry

import (
	"context"
	"errors"

	"redfish-modelgen/internal/registry/models"
	"redfish-modelgen/internal/registry/services"
	"redfish-modelgen/pkg/database"
)

var (
	// ErrNoRegistryDir is returned when no registry directory is configured
	ErrNoRegistryDir = errors.New("no registry directory configured")
	// ErrNoMockupDir is returned when no mockup directory is configured
	ErrNoMockupDir = errors.New("no mockup directory configured")
)

// Module loads message and privilege registries, and Redfish mockups, into
// MongoDB
type Module struct {
	service *services.Service
}

func New(mongodb *database.MongoDB) *Module {
	return &Module{service: services.NewService(services.NewRepository(mongodb.Database))}
}

// Load stores the latest version of each registry found under dir
func (m *Module) Load(ctx context.Context, dir string) (*models.LoadReport, error) {
	if dir == "" {
		return nil, ErrNoRegistryDir
	}
	return m.service.Load(ctx, dir)
}

// LoadMockups stores the Redfish mockup tree under dir
func (m *Module) LoadMockups(ctx context.Context, dir string) (*models.MockupReport, error) {
	if dir == "" {
		return nil, ErrNoMockupDir
	}
	return m.service.LoadMockups(ctx, dir)
}
