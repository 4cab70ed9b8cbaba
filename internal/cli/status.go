package cli

import (
	"context"
	"errors"
	"io"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/app"
	"redfish-modelgen/pkg/database"

	"github.com/spf13/cobra"
)

// ErrNoRedis is returned by commands that need the run history
var ErrNoRedis = errors.New("redis is not configured (set REDIS_URL)")

// NewStatusCommand creates the command that shows the last models run.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the report of the last models run",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := newFormatter(rootOpts, cmd.OutOrStdout())

			appCtx, err := rootOpts.initialize(ctx, app.Requirements{})
			if err != nil {
				return out.Failure(err)
			}
			defer appCtx.Shutdown(context.WithoutCancel(ctx))

			if appCtx.Redis == nil {
				return out.Failure(ErrNoRedis)
			}

			var report models.Report
			if err := appCtx.Redis.GetJSON(ctx, lastReportKey, &report); err != nil {
				if errors.Is(err, database.ErrKeyNotFound) {
					return out.Failure(errors.New("no models run recorded yet"))
				}
				return out.Failure(err)
			}
			return out.Success(report, func(w io.Writer) { printModelsReport(w, &report) })
		},
	}
}
