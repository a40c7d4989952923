// Package cli is the hms command tree. Each role's pages are subcommands
// that read through the portal client, so repeated reads within one run hit
// the cache and writes invalidate it exactly as the web client does.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/app/bootstrap"
	appconfig "github.com/Raheemullah8/hms-portal/internal/config"
	"github.com/Raheemullah8/hms-portal/internal/portal"
	"github.com/Raheemullah8/hms-portal/internal/session"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// Options configure the command tree.
type Options struct {
	Config *appconfig.Config
	Out    io.Writer
	Err    io.Writer
	// Storage replaces the configured session backend.
	Storage session.Storage
	Now     func() time.Time
}

type app struct {
	opts Options
	cfg  appconfig.Config

	apiURL   string
	logLevel string
	asJSON   bool

	logger *logging.Logger
	client *portal.Client
}

// NewRootCommand builds the hms command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Config == nil {
		opts.Config = appconfig.Load()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &app{opts: opts, cfg: *opts.Config}

	root := &cobra.Command{
		Use:           "hms",
		Short:         "Hospital management portal client",
		Long:          "hms signs in to the hospital backend and runs the patient, doctor and admin pages from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.client == nil {
				return nil
			}
			// an interrupted watch still lets in-flight requests land
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
			defer cancel()
			return a.client.WaitIdle(ctx)
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", a.cfg.APIBaseURL, "Backend base URL")
	root.PersistentFlags().StringVarP(&a.logLevel, "log-level", "v", a.cfg.LogLevel, "Log level")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		a.routesCommand(),
		a.loginCommand(),
		a.registerCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.patientCommand(),
		a.doctorCommand(),
		a.adminCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, opts Options, args []string) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// connect builds the logger, the session store and the portal client on
// first use and restores the persisted session.
func (a *app) connect(ctx context.Context) (*portal.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg := a.cfg
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(a.apiURL), "/")
	cfg.LogLevel = a.logLevel

	if cfg.LogFormat == "json" {
		a.logger = logging.NewWithFormat(cfg.LogLevel, "json", a.opts.Err)
	} else {
		a.logger = logging.NewConsole(cfg.LogLevel, a.opts.Err)
	}

	storage := a.opts.Storage
	if storage == nil {
		var err error
		storage, err = bootstrap.BuildSessionStorage(ctx, &cfg, a.logger)
		if err != nil {
			return nil, err
		}
	}
	store := bootstrap.BuildSessionStore(&cfg, storage, a.logger)
	if err := store.Rehydrate(ctx); err != nil {
		return nil, err
	}
	a.client = bootstrap.BuildPortal(&cfg, store, a.logger, nil)
	return a.client, nil
}

// render prints v as JSON with --json, else calls table with a tab writer.
func (a *app) render(v any, table func(w io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(a.opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(a.opts.Out, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func (a *app) println(format string, args ...any) {
	if a.asJSON {
		return
	}
	fmt.Fprintf(a.opts.Out, format+"\n", args...)
}

// failure turns an API error into the message a page would show.
func failure(err error, fallback string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", transport.MessageOr(err, fallback))
}

func dateOf(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
