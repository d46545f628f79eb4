package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"tempo-cli/internal/api"
	"tempo-cli/internal/config"
	"tempo-cli/internal/format"
	"tempo-cli/internal/gateway"
	"tempo-cli/internal/logging"
	"tempo-cli/internal/model"
	"tempo-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir  string
	PrettyJSON bool
	Format     string
	LogLevel   string
	Date       string

	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
	gw        *gateway.Gateway
	tempo     gateway.TempoAPI
	jira      gateway.JiraAPI

	// connect builds the API clients on first use. Tests swap it for fakes.
	connect func(ctx context.Context, app *App) (gateway.TempoAPI, gateway.JiraAPI, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{connect: connectRemote})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tempo",
		Short:        "Tempo timesheets in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive week view
  tempo

  # Open the week containing a given day
  tempo --date 2024-06-05

  # Scriptable commands
  tempo week --format table
  tempo worklogs --from 2024-06-03 --to 2024-06-09
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.teardown()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("TEMPO_CONFIG_DIR", ""), "Directory holding config.json (default ~/.config/tempo)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TEMPO_FORMAT", "json"), "Output format (json|edn|table)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&app.Date, "date", "", "Day to open the week view on (YYYY-MM-DD, default today)")

	cmd.AddCommand(newWeekCmd(app))
	cmd.AddCommand(newWorklogsCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads the configuration and opens the log file. It runs before every command.
func (app *App) setup() error {
	if app.ConfigDir != "" && app.ConfigDir != os.Getenv("TEMPO_CONFIG_DIR") {
		if err := os.Setenv("TEMPO_CONFIG_DIR", app.ConfigDir); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.cfg = cfg

	level := app.LogLevel
	if level == "" {
		level = cfg.Log.Level
	}
	logger, closer, err := logging.Open(cfg.Log.File, logging.ParseLevel(level))
	if err != nil {
		// Logging is best effort; commands still work without a log file.
		logger, closer = logging.Discard(), nil
	}
	app.log, app.logCloser = logger, closer
	slog.SetDefault(logger)

	app.gw = gateway.New(gateway.NewRequestTracker(gateway.LogObserver(logger)), logger)
	return nil
}

func (app *App) teardown() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

// clients returns the Tempo and Jira clients, connecting on first use.
func (app *App) clients(ctx context.Context) (gateway.TempoAPI, gateway.JiraAPI, error) {
	if app.tempo != nil && app.jira != nil {
		return app.tempo, app.jira, nil
	}
	t, j, err := app.connect(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	app.tempo, app.jira = t, j
	return t, j, nil
}

func connectRemote(ctx context.Context, app *App) (gateway.TempoAPI, gateway.JiraAPI, error) {
	cfg := app.cfg
	if strings.TrimSpace(cfg.Tempo.AccessToken) == "" {
		return nil, nil, errors.New("no Tempo access token; run `tempo config set tempo.access_token <token>`")
	}
	if strings.TrimSpace(cfg.Jira.URL) == "" {
		return nil, nil, errors.New("no Jira site; run `tempo config set jira.url https://<site>.atlassian.net`")
	}

	tempo := api.NewTempo(cfg.Tempo.APIURL, cfg.Tempo.AccessToken, app.log)
	if cfg.Jira.AccessToken != "" {
		return tempo, api.NewJira(cfg.Jira.URL, cfg.Jira.AccessToken, app.log), nil
	}

	// The Jira token exchange lives on the Tempo app host, not the public API host.
	exchange := api.NewTempo(cfg.Tempo.URL, cfg.Tempo.AccessToken, app.log)
	jira, err := api.AuthByTempo(ctx, exchange, cfg.Jira.URL, app.log)
	if err != nil {
		return nil, nil, fmt.Errorf("authenticate with jira: %w", err)
	}
	app.log.Info("jira token obtained through tempo", "expires", jira.Expires)
	return tempo, jira, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	date, err := parseDateFlag("date", app.Date)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := commandContext(cmd)
	tempo, jira, err := app.clients(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	env := tui.Env{
		Ctx:     ctx,
		Gateway: app.gw,
		Tempo:   tempo,
		Jira:    jira,
		Config:  *app.cfg,
		Log:     app.log,
	}
	if err := tui.Run(env, date); err != nil {
		app.log.Error("tui exited with error", "err", err)
		return writeErr(cmd, err)
	}
	return nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value. Empty means the zero date.
func parseDateFlag(name, s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD)", name, s)
	}
	return d, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeData prints v wrapped in {"data": ...}; tables print v itself.
func writeData(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "table" {
		return writeOut(cmd, app, v)
	}
	return writeOut(cmd, app, map[string]any{"data": v})
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
