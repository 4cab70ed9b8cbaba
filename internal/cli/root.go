package cli

import (
	"context"
	"fmt"
	"slices"

	"redfish-modelgen/pkg/app"
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/version"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the modelgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "modelgen",
		Short:   "Normalize generated Redfish models and compile the privilege table",
		Version: version.String(),
		Long: `modelgen turns the Java models generated from the Redfish schema into a
persistence-ready model set, and compiles the URI privilege table from the
schema bundle and the stored PrivilegeRegistry.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", ".env file to load (default: ./.env when present)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewModelsCommand(opts))
	cmd.AddCommand(NewSecurityCommand(opts))
	cmd.AddCommand(NewRegistryCommand(opts))
	cmd.AddCommand(NewMockupsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewAllCommand(opts))

	return cmd
}

// loadConfig reads the environment file and the configuration
func (o *RootOptions) loadConfig() (config.Config, error) {
	if o.EnvFile != "" {
		app.LoadDotEnv(o.EnvFile)
	} else {
		app.LoadDotEnv()
	}
	return config.Load(o.ConfigPath)
}

// initialize loads the configuration and connects what req asks for
func (o *RootOptions) initialize(ctx context.Context, req app.Requirements) (*app.AppContext, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.InitializeApp(ctx, cfg, req)
}
