package cli

import (
	"context"
	"fmt"
	"io"

	"redfish-modelgen/migrations"
	"redfish-modelgen/pkg/app"
	pkgmigrations "redfish-modelgen/pkg/migrations"

	"github.com/spf13/cobra"
)

// MigrateResult is the outcome of migrate up and down
type MigrateResult struct {
	Direction string `json:"direction"`
	Count     int    `json:"count"`
}

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage MongoDB indexes for the generated collections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "up",
		Short:         "Apply all pending migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, rootOpts, func(ctx context.Context, out *OutputFormatter, runner *pkgmigrations.Runner) error {
				count, err := runner.Run(ctx)
				if err != nil {
					return out.Failure(err)
				}
				return out.Success(MigrateResult{Direction: "up", Count: count}, func(w io.Writer) {
					fmt.Fprintf(w, "Applied %d migrations\n", count)
				})
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:           "down",
		Short:         "Roll back applied migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withRunner(cmd, rootOpts, func(ctx context.Context, out *OutputFormatter, runner *pkgmigrations.Runner) error {
				count, err := runner.Rollback(ctx, steps)
				if err != nil {
					return out.Failure(err)
				}
				return out.Success(MigrateResult{Direction: "down", Count: count}, func(w io.Writer) {
					fmt.Fprintf(w, "Rolled back %d migrations\n", count)
				})
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Show the applied state of every migration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, rootOpts, func(ctx context.Context, out *OutputFormatter, runner *pkgmigrations.Runner) error {
				entries, err := runner.Status(ctx)
				if err != nil {
					return out.Failure(err)
				}
				return out.Success(entries, func(w io.Writer) {
					for _, e := range entries {
						state := "pending"
						if e.Applied {
							state = "applied " + e.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(w, "%-40s %s\n", e.Version, state)
					}
				})
			})
		},
	})

	return cmd
}

// withRunner connects to MongoDB and hands fn a runner with every
// migration registered
func withRunner(cmd *cobra.Command, rootOpts *RootOptions, fn func(context.Context, *OutputFormatter, *pkgmigrations.Runner) error) error {
	ctx := cmd.Context()
	out := newFormatter(rootOpts, cmd.OutOrStdout())

	appCtx, err := rootOpts.initialize(ctx, app.Requirements{MongoDB: true})
	if err != nil {
		return out.Failure(err)
	}
	defer appCtx.Shutdown(context.WithoutCancel(ctx))

	runner := pkgmigrations.NewRunner(appCtx.MongoDB.Database)
	migrations.RegisterAll(runner, appCtx.Config.Security)
	return fn(ctx, out, runner)
}
