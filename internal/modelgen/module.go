package modelgen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/internal/modelgen/services"
	"redfish-modelgen/pkg/config"
)

// Module runs the model normalization pipeline: normalize, rewrite,
// annotate, then finalize and generate converters. Each pass completes over
// the whole file set before the next one starts.
type Module struct {
	cfg        config.ModelsConfig
	normalizer *services.Normalizer
	rewriter   *services.Rewriter
	annotator  *services.Annotator
	finalizer  *services.Finalizer
	converters *services.ConverterGenerator
}

// NewModule creates the pipeline for one models directory
func NewModule(cfg config.ModelsConfig) *Module {
	return &Module{
		cfg:        cfg,
		normalizer: services.NewNormalizer(),
		rewriter:   services.NewRewriter(),
		annotator:  services.NewAnnotator(cfg),
		finalizer:  services.NewFinalizer(cfg),
		converters: services.NewConverterGenerator(cfg),
	}
}

// Run transforms the models directory in place. The returned report is
// filled in as far as the run got, even when an error is returned.
func (m *Module) Run(ctx context.Context, runID string) (*models.Report, error) {
	report := &models.Report{RunID: runID, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	logger := slog.With("run_id", runID, "models_dir", m.cfg.Dir)

	ws, err := services.OpenWorkspace(m.cfg.Dir, m.cfg.Extension)
	if err != nil {
		return report, err
	}
	report.Files = len(ws.Files())
	logger.Info("Loaded model files", "files", report.Files)

	norm := m.normalizer.Run(ws, report)
	if err := m.flush(ctx, ws, "normalize"); err != nil {
		return report, err
	}
	logger.Info("Normalized type names",
		"classes", countKind(norm.Definitions, models.KindClass),
		"enums", countKind(norm.Definitions, models.KindEnum),
		"renamed", report.Renamed,
		"collisions", report.Collisions,
	)

	rewritten := m.rewriter.Run(ws, norm)
	if err := m.flush(ctx, ws, "rewrite"); err != nil {
		return report, err
	}
	logger.Info("Rewrote references", "files", rewritten)

	m.annotator.Run(ws, report)
	if err := m.flush(ctx, ws, "annotate"); err != nil {
		return report, err
	}
	if err := m.finalizer.RemoveLosers(ws, report); err != nil {
		return report, fmt.Errorf("annotate: %w", err)
	}
	logger.Info("Annotated models", "annotated", report.Annotated, "removed", report.Removed)

	if err := m.finalizer.Run(ws, report); err != nil {
		return report, fmt.Errorf("finalize: %w", err)
	}
	if err := m.flush(ctx, ws, "finalize"); err != nil {
		return report, err
	}

	specs := m.converters.Discover(ws)
	files, err := m.converters.Generate(specs)
	if err != nil {
		return report, fmt.Errorf("converters: %w", err)
	}
	if err := services.WriteFiles(files, m.cfg.ConvertersDir); err != nil {
		return report, fmt.Errorf("converters: %w", err)
	}
	report.Converters = len(files)

	registrationPath := filepath.Join(m.cfg.ConfigDir, m.cfg.RegistrationFile)
	registered, err := m.converters.Register(registrationPath, specs)
	if err != nil {
		return report, fmt.Errorf("register converters: %w", err)
	}
	report.Registrations = registered
	logger.Info("Generated enum converters",
		"enums", len(specs),
		"converters", report.Converters,
		"registrations", registered,
	)

	for _, w := range report.Warnings {
		logger.Warn("Incomplete transformation", "phase", w.Phase, "file", w.File, "message", w.Message)
	}
	return report, nil
}

func (m *Module) flush(ctx context.Context, ws *services.Workspace, phase string) error {
	if _, err := ws.Flush(); err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}
	return nil
}

func countKind(defs []*models.TypeDefinition, kind models.TypeKind) int {
	n := 0
	for _, def := range defs {
		if def.Kind == kind {
			n++
		}
	}
	return n
}
