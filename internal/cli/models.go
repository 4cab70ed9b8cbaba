package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"redfish-modelgen/internal/modelgen"
	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/app"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	lockKeyPrefix = "modelgen:lock:"
	lastReportKey = "modelgen:report:last"
)

// ModelsOptions holds flags for the models command
type ModelsOptions struct {
	*RootOptions
	Dir string
}

// NewModelsCommand creates the command that runs the model pipeline.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ModelsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Normalize, annotate and finalize the generated model files",
		Long: `Runs the model pipeline over the models directory: version-token
normalization, reference rewriting, persistence annotation, finalization and
enum converter generation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "models directory (overrides configuration)")

	return cmd
}

func runModels(ctx context.Context, opts *ModelsOptions, w io.Writer) error {
	out := newFormatter(opts.RootOptions, w)

	appCtx, err := opts.initialize(ctx, app.Requirements{})
	if err != nil {
		return out.Failure(err)
	}
	defer appCtx.Shutdown(context.WithoutCancel(ctx))

	report, err := modelsPass(ctx, appCtx, opts.Dir)
	if err != nil {
		return out.Failure(err)
	}

	return out.Success(report, func(w io.Writer) { printModelsReport(w, report) })
}

// modelsPass runs the pipeline under the run lock and records the report
func modelsPass(ctx context.Context, appCtx *app.AppContext, dir string) (*models.Report, error) {
	cfg := appCtx.Config.Models
	if dir != "" {
		cfg.Dir = dir
	}

	if appCtx.Redis != nil {
		abs, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, err
		}
		lock, err := appCtx.Redis.AcquireLock(ctx, lockKeyPrefix+abs, appCtx.Config.Redis.LockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("Failed to release run lock", "error", err)
			}
		}()
	}

	report, err := modelgen.NewModule(cfg).Run(ctx, uuid.NewString())
	if err != nil {
		return nil, err
	}

	if appCtx.Redis != nil {
		if err := appCtx.Redis.SetJSON(ctx, lastReportKey, report, 0); err != nil {
			slog.Warn("Failed to store run report", "error", err)
		}
	}
	return report, nil
}

func printModelsReport(w io.Writer, r *models.Report) {
	fmt.Fprintf(w, "Run %s finished in %s\n", r.RunID, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  files:         %d\n", r.Files)
	fmt.Fprintf(w, "  renamed:       %d\n", r.Renamed)
	fmt.Fprintf(w, "  collisions:    %d\n", r.Collisions)
	fmt.Fprintf(w, "  annotated:     %d\n", r.Annotated)
	fmt.Fprintf(w, "  removed:       %d\n", r.Removed)
	fmt.Fprintf(w, "  converters:    %d\n", r.Converters)
	fmt.Fprintf(w, "  registrations: %d\n", r.Registrations)
	printWarnings(w, r.Warnings)
}

func printWarnings(w io.Writer, warnings []models.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "Warnings (%d):\n", len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  [%s] %s: %s\n", warning.Phase, warning.File, warning.Message)
	}
}
