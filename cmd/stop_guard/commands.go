package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stop_guard/internal/config"
	"stop_guard/internal/logger"
	"stop_guard/internal/market/alpaca"
	"stop_guard/internal/scheduler"
	"stop_guard/internal/telegram"
	"stop_guard/internal/watcher"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// flags holds the command line overrides of the environment configuration.
type flags struct {
	stopPercent    int
	stopBps        int
	limitBps       int
	minValue       string
	minGainPercent int
	apply          bool
	concurrency    int
	cli            string
	verbose        int
	pretty         bool
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "stop_guard",
		Short: "Keep every open position protected by a stop-loss order",
		Long: `stop_guard checks the open positions of an Alpaca account and makes sure
each one is covered by a good-until-canceled stop-limit sell order priced
above its entry. By default it only prints the commands that would fix the
protection; pass --apply to amend or submit the orders directly.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newCheckCmd(f))
	rootCmd.AddCommand(newWatchCmd(f))
	rootCmd.AddCommand(newVersionCmd())

	f.register(rootCmd)
	return rootCmd
}

// newCheckCmd creates the check command
func newCheckCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [SYMBOL...]",
		Short: "Run a single reconciliation pass",
		Long: `Run a single reconciliation pass over all open positions, or only the
given symbols. Example: stop_guard check AAPL MSFT -g 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := newWatcher(cfg, log)
			if err != nil {
				return err
			}

			report, err := w.RunPass(ctx)
			if err != nil {
				return err
			}
			if failed := report.Failed(); len(failed) > 0 {
				symbols := make([]string, len(failed))
				for i, e := range failed {
					symbols[i] = e.Symbol
				}
				return fmt.Errorf("%d position(s) could not be protected: %s", len(failed), strings.Join(symbols, ", "))
			}
			return nil
		},
	}
}

// newWatchCmd creates the watch command
func newWatchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [SYMBOL...]",
		Short: "Run reconciliation passes on a schedule",
		Long: `Run a reconciliation pass immediately and then on the schedule given by
STOP_GUARD_SCHEDULE (a cron expression or "@every <duration>").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := newWatcher(cfg, log)
			if err != nil {
				return err
			}

			s := scheduler.New(ctx, log)
			if err := s.AddJob(cfg.Schedule, w); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
			}

			log.Info().Str("version", readVersion()).Bool("apply", cfg.Apply).Msg("Stop guard initialized")
			_ = s.RunNow(w)

			s.Start()
			<-ctx.Done()
			log.Warn().Msg("Shutting down: system signal received")
			s.Stop()
			return nil
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stop_guard", readVersion())
		},
	}
}

// register adds the override flags as persistent flags of cmd.
func (f *flags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.IntVarP(&f.stopPercent, "stop-percent", "s", 0, "Set the stop price at this many percentage points above the entry price")
	pf.IntVar(&f.stopBps, "stop-bps", 0, "Stop price markup over the entry price, in basis points")
	pf.IntVar(&f.limitBps, "limit-bps", 0, "Limit price markup over the entry price, in basis points")
	pf.StringVarP(&f.minValue, "min-value", "m", "", "Only create stop-loss orders for positions worth at least this much")
	pf.IntVarP(&f.minGainPercent, "min-gain-percent", "g", 0, "Only create stop-loss orders for positions that gained at least this many percent")
	pf.BoolVar(&f.apply, "apply", false, "Amend and submit orders instead of printing commands")
	pf.IntVar(&f.concurrency, "concurrency", 0, "Maximum number of broker calls in flight")
	pf.StringVar(&f.cli, "apcacli", "", "The apcacli command to use in printed commands")
	pf.CountVarP(&f.verbose, "verbose", "v", "Increase logging verbosity (may be repeated)")
	pf.BoolVar(&f.pretty, "pretty", true, "Human readable log output")
	cmd.MarkFlagsMutuallyExclusive("stop-percent", "stop-bps")
}

// setup loads the configuration, applies the command line overrides and
// creates the logger.
func setup(cmd *cobra.Command, f *flags, args []string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := f.override(cmd, cfg, args); err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.RequireBrokerCredentials(); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Pretty:     f.pretty,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
	})
	config.LogEnvFile(log)
	return cfg, log, nil
}

// override copies the flags the user actually set onto cfg.
func (f *flags) override(cmd *cobra.Command, cfg *config.Config, args []string) error {
	changed := cmd.Flags().Changed

	if len(args) > 0 {
		cfg.Symbols = make([]string, len(args))
		for i, a := range args {
			cfg.Symbols[i] = strings.ToUpper(a)
		}
	}
	if changed("stop-percent") {
		cfg.StopMarkupBps = f.stopPercent * 100
	}
	if changed("stop-bps") {
		cfg.StopMarkupBps = f.stopBps
	}
	if changed("limit-bps") {
		cfg.LimitMarkupBps = f.limitBps
	}
	if changed("min-value") {
		v, err := decimal.NewFromString(f.minValue)
		if err != nil {
			return fmt.Errorf("invalid --min-value %q: %w", f.minValue, err)
		}
		cfg.MinValue = &v
	}
	if changed("min-gain-percent") {
		cfg.MinGainPercent = f.minGainPercent
	}
	if changed("apply") {
		cfg.Apply = f.apply
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("apcacli") {
		cfg.CLI = f.cli
	}
	if changed("verbose") {
		cfg.LogLevel = logger.LevelForVerbosity(f.verbose)
	}

	return cfg.Params().Validate()
}

func newWatcher(cfg *config.Config, log zerolog.Logger) (*watcher.Watcher, error) {
	if cfg.Concurrency <= 0 {
		return nil, errors.New("concurrency must be positive")
	}

	broker := alpaca.NewProvider(alpaca.Options{
		KeyID:     cfg.APIKeyID,
		SecretKey: cfg.APISecretKey,
		BaseURL:   cfg.APIBaseURL,
	})

	var opts []watcher.Option
	if cfg.TelegramEnabled() {
		opts = append(opts, watcher.WithNotifier(telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID)))
	}
	return watcher.New(cfg, broker, log, opts...), nil
}
