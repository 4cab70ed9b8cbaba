package services

import (
	"context"
	"log/slog"

	"redfish-modelgen/internal/registry/models"
)

// Service loads registry and mockup documents into the database
type Service struct {
	loader *Loader
	store  Store
}

func NewService(store Store) *Service {
	return &Service{loader: NewLoader(), store: store}
}

// Load selects the latest version of every registry under dir and stores it
func (s *Service) Load(ctx context.Context, dir string) (*models.LoadReport, error) {
	report, err := s.loader.Select(dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range report.Selected {
		if err := s.store.Upsert(ctx, doc); err != nil {
			return report, err
		}
		report.Stored[doc.Collection()]++
		slog.Debug("Stored registry", "name", doc.Name, "id", doc.ID, "version", doc.Version, "collection", doc.Collection())
	}
	slog.Info("Loaded registries",
		"dir", dir,
		"scanned", report.Scanned,
		"selected", len(report.Selected),
		"skipped", report.Skipped)
	return report, nil
}

// LoadMockups stores every mockup document under dir, routing addressable
// resources to RedfishObject, and the service and metadata files when present
func (s *Service) LoadMockups(ctx context.Context, dir string) (*models.MockupReport, error) {
	report, err := s.loader.Mockups(dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range report.Documents {
		if err := s.store.UpsertMockup(ctx, doc); err != nil {
			return report, err
		}
		report.Stored[doc.MockupCollection()]++
	}
	for _, file := range report.Files {
		if err := s.store.ReplaceServiceFile(ctx, file); err != nil {
			return report, err
		}
		report.Stored[file.Collection]++
	}
	slog.Info("Loaded mockups",
		"dir", dir,
		"scanned", report.Scanned,
		"documents", len(report.Documents),
		"files", len(report.Files),
		"skipped", report.Skipped)
	return report, nil
}
