package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	modelsmodels "redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/internal/registry"
	registrymodels "redfish-modelgen/internal/registry/models"
	securitymodels "redfish-modelgen/internal/security/models"
	"redfish-modelgen/pkg/app"

	"github.com/spf13/cobra"
)

// AllResult collects the reports of a full run
type AllResult struct {
	Mockups  *registrymodels.MockupReport  `json:"mockups,omitempty"`
	Registry *registrymodels.LoadReport    `json:"registry,omitempty"`
	Models   *modelsmodels.Report          `json:"models"`
	Security *securitymodels.CompileReport `json:"security"`
}

// NewAllCommand creates the command that runs every stage in order.
func NewAllCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Load mockups and registries, run the model pipeline and compile the privilege table",
		Long: `Runs mockups, registry, models and security compile in that order. The
mockup and registry stages are skipped when their directory is not configured.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := newFormatter(rootOpts, cmd.OutOrStdout())

			appCtx, err := rootOpts.initialize(ctx, app.Requirements{MongoDB: true})
			if err != nil {
				return out.Failure(err)
			}
			defer appCtx.Shutdown(context.WithoutCancel(ctx))

			result, err := runAll(ctx, appCtx)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(result, func(w io.Writer) {
				if result.Mockups != nil {
					printMockupReport(w, result.Mockups)
				}
				if result.Registry != nil {
					printLoadReport(w, result.Registry)
				}
				printModelsReport(w, result.Models)
				printCompileReport(w, result.Security)
			})
		},
	}
}

func runAll(ctx context.Context, appCtx *app.AppContext) (*AllResult, error) {
	result := &AllResult{}

	mockups, err := mockupsPass(ctx, appCtx, "")
	switch {
	case errors.Is(err, registry.ErrNoMockupDir):
		slog.Info("No mockup directory configured, skipping mockup load")
	case err != nil:
		return nil, fmt.Errorf("mockups: %w", err)
	default:
		result.Mockups = mockups
	}

	loaded, err := registryPass(ctx, appCtx, "")
	switch {
	case errors.Is(err, registry.ErrNoRegistryDir):
		slog.Info("No registry directory configured, skipping registry load")
	case err != nil:
		return nil, fmt.Errorf("registry: %w", err)
	default:
		result.Registry = loaded
	}

	if result.Models, err = modelsPass(ctx, appCtx, ""); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	if result.Security, err = compilePass(ctx, appCtx); err != nil {
		return nil, fmt.Errorf("security: %w", err)
	}
	return result, nil
}
