package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/catchlottery/internal/config"
	"github.com/pfrederiksen/catchlottery/internal/format"
	"github.com/pfrederiksen/catchlottery/internal/logger"
	"github.com/pfrederiksen/catchlottery/internal/lottery"
	"github.com/pfrederiksen/catchlottery/internal/notifier"
	"github.com/pfrederiksen/catchlottery/internal/pipeline"
	"github.com/pfrederiksen/catchlottery/internal/report"
	"github.com/pfrederiksen/catchlottery/internal/scraper"
	"github.com/pfrederiksen/catchlottery/internal/storage"
)

const (
	ExitSuccess = pipeline.ExitSuccess
	ExitError   = 1
	// ExitUsage covers bad flags, arguments and configuration
	ExitUsage = pipeline.ExitConfigError
)

var (
	flagConfig         string
	flagSourceURL      string
	flagOutput         string
	flagTables         string
	flagFormat         string
	flagNoVersionCheck bool
	flagDryRun         bool
	flagVerbose        bool
)

// Version is reported by --version
var Version = "dev"

// now is the clock of every command
var now = time.Now

// exitError carries a process exit status out of a command. A nil err means the failure
// has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

func runtimeError(err error) error {
	return &exitError{code: ExitError, err: err}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catchlottery",
		Short: "Save the latest Taiwan Lottery winning numbers to a text file",
		Long: `A batch tool that downloads the official lottery results page, extracts the
winning numbers of every lottery type drawn on the effective day and writes them to a
delimited text file.

Runs during the announcement window (22:00-23:59) target the current day; any other
time targets the previous day. Runs are skipped when nothing is drawn that day or when
the saved file already holds that day's results.

Exit status: 0 success or skip, 1 fetch failure, 2 extraction failure, 3 write failure,
4 configuration or usage error.`,
		Version:           Version,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadDotEnv,
		RunE:              runPipeline,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ./catchlottery.yaml, then ~/.catchlottery.yaml)")
	pf.StringVar(&flagOutput, "output", "", "Results file path")
	pf.StringVar(&flagTables, "tables", "", "YAML file replacing the lottery type and schedule tables")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.Flags().StringVar(&flagSourceURL, "source-url", "", "Results page URL")
	cmd.Flags().BoolVar(&flagNoVersionCheck, "no-version-check", false, "Fetch even when the saved results are current")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Extract without writing the results file; print notifications instead of sending them")

	cmd.AddCommand(newScheduleCmd(), newShowCmd(), newEncryptSecretCmd())

	return cmd
}

// loadDotEnv reads a .env file from the working directory, if there is one. Variables
// already set in the environment win.
func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return usageError(fmt.Errorf("loading .env: %w", err))
	}
	return nil
}

// loadConfig layers the command's flags over the config file and environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	bindings := map[string]string{
		config.KeySourceURL:  "source-url",
		config.KeyOutput:     "output",
		config.KeyTablesFile: "tables",
		config.KeyVerbose:    "verbose",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	if flagNoVersionCheck {
		v.Set(config.KeyCheckLastVersion, false)
	}
	if flagDryRun {
		v.Set(config.KeyDryRun, true)
	}

	cfg, err := config.Load(v, flagConfig)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTables(cfg *config.Config) (*lottery.Tables, error) {
	if cfg.TablesFile == "" {
		return lottery.DefaultTables(), nil
	}
	return lottery.LoadTables(cfg.TablesFile)
}

// newLogger logs at log.level; --verbose forces debug
func newLogger(cfg *config.Config, w io.Writer, runID string) (*logger.Logger, error) {
	level := logger.LevelInfo
	if cfg.Log.Level != "" {
		l, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	if cfg.Verbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, w).With(logger.Fields{"run_id": runID})
	logger.SetDefault(log)
	return log, nil
}

// buildNotifier combines every enabled channel. It returns nil when none is enabled.
func buildNotifier(cfg *config.Config, out io.Writer) (notifier.Notifier, error) {
	if cfg.Notify.DryRun {
		return notifier.NewDryRunNotifier(out), nil
	}

	var multi notifier.Multi

	if cfg.Mail.Enabled {
		m, err := notifier.NewMailNotifier(notifier.MailConfig{
			Host:          cfg.Mail.SMTPHost,
			Port:          cfg.Mail.SMTPPort,
			Account:       cfg.Mail.Account,
			Password:      cfg.Mail.Password,
			Sender:        cfg.Mail.Sender,
			SenderName:    cfg.Mail.SenderName,
			SendTo:        cfg.Mail.SendTo,
			RetryInterval: cfg.Mail.RetryInterval,
			MaxRetries:    cfg.Mail.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("mail notifier: %w", err)
		}
		multi = append(multi, m)
	}

	if cfg.Telegram.Enabled() {
		tg, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		multi = append(multi, tg)
	}

	if cfg.Twitter.Enabled() {
		tw, err := notifier.NewTwitterNotifier(notifier.TwitterConfig{
			APIKey:       cfg.Twitter.APIKey,
			APISecret:    cfg.Twitter.APISecret,
			AccessToken:  cfg.Twitter.AccessToken,
			AccessSecret: cfg.Twitter.AccessSecret,
			RecipientID:  cfg.Twitter.RecipientID,
		})
		if err != nil {
			return nil, fmt.Errorf("twitter notifier: %w", err)
		}
		multi = append(multi, tw)
	}

	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}

func buildReporter(cfg *config.Config, cmd *cobra.Command) (*report.Reporter, error) {
	n, err := buildNotifier(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	opts := []report.Option{
		report.WithConsole(cmd.ErrOrStderr()),
		report.WithSubject(cfg.Mail.Subject),
		report.WithClock(now),
	}
	if n != nil {
		opts = append(opts, report.WithNotifier(n))
	}
	if cfg.Mail.Template != "" {
		tmpl, err := report.LoadTemplate(cfg.Mail.Template)
		if err != nil {
			return nil, err
		}
		opts = append(opts, report.WithTemplate(tmpl))
	}
	if cfg.Log.Enabled {
		opts = append(opts, report.WithSink(report.NewFileSink(cfg.Log.Dir)))
	}

	return report.New(opts...), nil
}

// runPipeline is the main command logic
func runPipeline(cmd *cobra.Command, _ []string) error {
	outFormat, err := ParseOutputFormat(flagFormat)
	if err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}

	runID := uuid.NewString()
	log, err := newLogger(cfg, cmd.ErrOrStderr(), runID)
	if err != nil {
		return usageError(err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return usageError(err)
	}

	tables, err := loadTables(cfg)
	if err != nil {
		return usageError(err)
	}

	formatter, err := format.New(cfg.Delimiter.Info, cfg.Delimiter.Number)
	if err != nil {
		return usageError(err)
	}

	store, err := storage.New(cfg.Output, formatter)
	if err != nil {
		return usageError(err)
	}

	reporter, err := buildReporter(cfg, cmd)
	if err != nil {
		return usageError(err)
	}

	sc := scraper.New(cfg.SourceURL,
		scraper.WithTimeout(cfg.Fetch.Timeout),
		scraper.WithUserAgent(cfg.Fetch.UserAgent),
	)

	runner, err := pipeline.New(pipeline.Config{
		Tables:          tables,
		Fetcher:         sc,
		Formatter:       formatter,
		Writer:          store,
		Guard:           &storage.Guard{Store: store, Enabled: cfg.CheckLastVersion},
		Reporter:        reporter,
		ContentSelector: cfg.ContentSelector,
		Location:        loc,
		Now:             now,
		Logger:          log,
		RunID:           runID,
		DryRun:          flagDryRun,
	})
	if err != nil {
		return usageError(err)
	}

	log.Debug("Starting run", logger.Fields{
		"source_url": sc.URL(),
		"output":     store.Path(),
		"timezone":   loc.String(),
		"dry_run":    flagDryRun,
	})

	res := runner.Run(cmd.Context())
	runner.Metrics().LogSnapshot(log, "Run metrics")

	if err := WriteRunOutput(cmd.OutOrStdout(), newRunOutput(runID, store.Path(), res), outFormat); err != nil {
		return runtimeError(fmt.Errorf("writing output: %w", err))
	}

	if code := res.ExitCode(); code != ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}

// ExecuteArgs runs the command tree with args and returns the process exit status
func ExecuteArgs(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", ee.err)
		}
		return ee.code
	}

	// cobra's own flag and argument errors
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitUsage
}

// Execute runs the CLI and returns the process exit status
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ExecuteArgs(ctx, NewRootCmd(), os.Args[1:])
}
