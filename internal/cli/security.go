package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"redfish-modelgen/internal/security"
	"redfish-modelgen/internal/security/models"
	"redfish-modelgen/pkg/app"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSecurityCommand creates the security command and its subcommands.
func NewSecurityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "security",
		Short: "Compile and query the URI privilege table",
	}

	cmd.AddCommand(newSecurityCompileCommand(rootOpts))
	cmd.AddCommand(newSecurityCheckCommand(rootOpts))

	return cmd
}

func newSecurityCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Rebuild the privileges table and schema cache",
		Long: `Reads the schema bundle and the stored PrivilegeRegistry and replaces the
privileges table and schema cache with the compiled result.`,
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

			report, err := compilePass(ctx, appCtx)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(report, func(w io.Writer) { printCompileReport(w, report) })
		},
	}
}

func compilePass(ctx context.Context, appCtx *app.AppContext) (*models.CompileReport, error) {
	return security.New(appCtx.MongoDB, appCtx.Config.Security).Compile(ctx, uuid.NewString())
}

func printCompileReport(w io.Writer, r *models.CompileReport) {
	fmt.Fprintf(w, "Compiled %d documents into %d rules (%d merged, %d duplicates, %d policies)\n",
		r.Documents, r.Rules, r.Merged, r.Duplicates, r.Policies)
	if len(r.Unmapped) > 0 {
		fmt.Fprintf(w, "Entities without a privilege mapping: %s\n", strings.Join(r.Unmapped, ", "))
	}
}

// CheckOptions holds flags for the security check command
type CheckOptions struct {
	*RootOptions
	URI        string
	Operation  string
	Privileges []string
}

// CheckResult is the outcome of one authorization query
type CheckResult struct {
	URI        string   `json:"uri"`
	Operation  string   `json:"operation"`
	Privileges []string `json:"privileges"`
	Allowed    bool     `json:"allowed"`
}

var validOperations = []string{
	http.MethodGet, http.MethodHead, http.MethodPost,
	http.MethodPut, http.MethodPatch, http.MethodDelete,
}

func newSecurityCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "check",
		Short:         "Evaluate one request against the stored privileges table",
		Example:       "  modelgen security check --uri /redfish/v1/Systems/1/Bios --op PATCH --privilege ConfigureComponents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Operation = strings.ToUpper(opts.Operation)
			if slices.Contains(validOperations, opts.Operation) {
				return nil
			}
			return fmt.Errorf("invalid operation %q: must be one of %v", opts.Operation, validOperations)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.URI, "uri", "", "request URI")
	cmd.Flags().StringVar(&opts.Operation, "op", http.MethodGet, "HTTP operation")
	cmd.Flags().StringSliceVar(&opts.Privileges, "privilege", nil, "privilege held by the caller (repeatable)")
	_ = cmd.MarkFlagRequired("uri")

	return cmd
}

// errDenied is returned so the exit status reflects a denied request
var errDenied = errors.New("access denied")

func runCheck(ctx context.Context, opts *CheckOptions, w io.Writer) error {
	out := newFormatter(opts.RootOptions, w)

	appCtx, err := opts.initialize(ctx, app.Requirements{MongoDB: true})
	if err != nil {
		return out.Failure(err)
	}
	defer appCtx.Shutdown(context.WithoutCancel(ctx))

	allowed, err := security.New(appCtx.MongoDB, appCtx.Config.Security).Check(ctx, opts.Privileges, opts.URI, opts.Operation)
	if err != nil {
		return out.Failure(err)
	}

	result := CheckResult{
		URI:        opts.URI,
		Operation:  opts.Operation,
		Privileges: opts.Privileges,
		Allowed:    allowed,
	}
	if err := out.Success(result, func(w io.Writer) {
		verdict := "denied"
		if allowed {
			verdict = "allowed"
		}
		fmt.Fprintf(w, "%s %s: %s\n", opts.Operation, opts.URI, verdict)
	}); err != nil {
		return err
	}
	if !allowed {
		return errDenied
	}
	return nil
}
