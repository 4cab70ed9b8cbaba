package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"redfish-modelgen/internal/registry"
	"redfish-modelgen/internal/registry/models"
	"redfish-modelgen/pkg/app"

	"github.com/spf13/cobra"
)

// MockupsOptions holds flags for the mockups command
type MockupsOptions struct {
	*RootOptions
	Dir string
}

// NewMockupsCommand creates the command that loads a Redfish mockup tree.
func NewMockupsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MockupsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mockups",
		Short: "Load a Redfish mockup tree into MongoDB",
		Long: `Stores every mockup document carrying @odata.type. Resources with an
@odata.id go to RedfishObject, other documents to the collection named by
their type; message registries are left to the registry command. The OData
service document and $metadata are stored in odata_file and metadata_file.`,
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

			report, err := mockupsPass(ctx, appCtx, opts.Dir)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(report, func(w io.Writer) { printMockupReport(w, report) })
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "mockup directory (overrides configuration)")

	return cmd
}

func mockupsPass(ctx context.Context, appCtx *app.AppContext, dir string) (*models.MockupReport, error) {
	if dir == "" {
		dir = appCtx.Config.Security.MockupDir
	}
	return registry.New(appCtx.MongoDB).LoadMockups(ctx, dir)
}

func printMockupReport(w io.Writer, r *models.MockupReport) {
	fmt.Fprintf(w, "Scanned %d documents, stored %d, skipped %d message registries\n",
		r.Scanned, len(r.Documents), r.Skipped)
	printStored(w, r.Stored)
}

func printStored(w io.Writer, stored map[string]int) {
	collections := make([]string, 0, len(stored))
	for name := range stored {
		collections = append(collections, name)
	}
	sort.Strings(collections)
	for _, name := range collections {
		fmt.Fprintf(w, "Stored %d in %s\n", stored[name], name)
	}
}
