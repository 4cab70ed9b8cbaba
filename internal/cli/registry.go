package cli

import (
	"context"
	"fmt"
	"io"

	"redfish-modelgen/internal/registry"
	"redfish-modelgen/internal/registry/models"
	"redfish-modelgen/pkg/app"

	"github.com/spf13/cobra"
)

// RegistryOptions holds flags for the registry command
type RegistryOptions struct {
	*RootOptions
	Dir string
}

// NewRegistryCommand creates the command that loads registry documents.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegistryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Load the latest version of each registry into MongoDB",
		Long: `Scans a directory of registry JSON documents, keeps the highest version
of each registry name and upserts it into the collection named after its type.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

			appCtx, err := opts.initialize(ctx, app.Requirements{MongoDB: true})
			if err != nil {
				return out.Failure(err)
			}
			defer appCtx.Shutdown(context.WithoutCancel(ctx))

			report, err := registryPass(ctx, appCtx, opts.Dir)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(report, func(w io.Writer) { printLoadReport(w, report) })
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "registry directory (overrides configuration)")

	return cmd
}

func registryPass(ctx context.Context, appCtx *app.AppContext, dir string) (*models.LoadReport, error) {
	if dir == "" {
		dir = appCtx.Config.Security.RegistryDir
	}
	return registry.New(appCtx.MongoDB).Load(ctx, dir)
}

func printLoadReport(w io.Writer, r *models.LoadReport) {
	fmt.Fprintf(w, "Scanned %d documents, selected %d, skipped %d\n", r.Scanned, len(r.Selected), r.Skipped)
	for _, doc := range r.Selected {
		fmt.Fprintf(w, "  %s %s (%s)\n", doc.Name, doc.Version, doc.Path)
	}
	printStored(w, r.Stored)
}
