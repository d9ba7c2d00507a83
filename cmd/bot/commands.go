package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TradeRobot/internal/config"
	"TradeRobot/internal/logger"
	"TradeRobot/internal/metrics"
	"TradeRobot/internal/notifier"
	"TradeRobot/internal/render"
	"TradeRobot/internal/scheduler"
	"TradeRobot/internal/server"
)

type flagValues struct {
	configPath string
	symbol     string
	start      string
	end        string
}

func newRootCmd() *cobra.Command {
	flags := &flagValues{}

	rootCmd := &cobra.Command{
		Use:           "bot",
		Short:         "TradeRobot - trend and robust baseline trading signals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", defaultConfig, "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.symbol, "symbol", "", "Ticker to track (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.start, "start", "", "History start date YYYY-MM-DD (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.end, "end", "", "History end date YYYY-MM-DD (overrides config)")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newEvaluateCmd(flags))
	return rootCmd
}

// loadConfig reads the config file, applies flag overrides, validates and
// sets up logging.
func loadConfig(flags *flagValues) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.symbol != "" {
		cfg.Symbol = flags.symbol
	}
	if flags.start != "" {
		cfg.History.Start = flags.start
	}
	if flags.end != "" {
		cfg.History.End = flags.end
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the robot: periodic refresh, evaluation and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runDaemon(cfg)
		},
	}
}

func newEvaluateCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Fetch history once, evaluate and print the decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg)
		},
	}
}

func runDaemon(cfg *config.Config) error {
	log.Info().Str("symbol", cfg.Symbol).Msg("TradeRobot starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	col, closeCache, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	chart := render.NewChartRenderer(cfg.Chart.OutputPath, cfg.Chart.WidthInch, cfg.Chart.HeightInch)
	sched := scheduler.NewScheduler(ctx, col, rec)
	if cfg.Chart.Enabled {
		sched.Presenters = append(sched.Presenters, chart)
	}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, "")
		tn.EveryCycle = cfg.Telegram.NotifyEveryCycle
		sched.Presenters = append(sched.Presenters, tn)
		if cfg.Telegram.NotifyFailures {
			sched.Failures = tn
		}
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	if err := sched.Bootstrap(ctx); err != nil {
		// The first cycle bootstraps again.
		log.Warn().Err(err).Msg("initial bootstrap failed")
	}

	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg.Server.Addr, sched, chart, reg)
		srv.Start()
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, evaluating now")
		go func() {
			if _, err := sched.RunCycle(ctx); err != nil && !errors.Is(err, scheduler.ErrCycleInProgress) {
				log.Warn().Err(err).Msg("startup cycle failed")
			}
		}()
	}

	log.Info().Msg("TradeRobot is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")

	sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("stop http server")
		}
	}
	log.Info().Msg("TradeRobot stopped")
	return nil
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	col, closeCache, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	sched := scheduler.NewScheduler(ctx, col, metrics.New(prometheus.NewRegistry()), render.NewConsoleRenderer(os.Stdout))
	if cfg.Chart.Enabled {
		sched.Presenters = append(sched.Presenters, render.NewChartRenderer(cfg.Chart.OutputPath, cfg.Chart.WidthInch, cfg.Chart.HeightInch))
	}
	if _, err := sched.RunCycle(ctx); err != nil {
		return fmt.Errorf("evaluate %s: %w", cfg.Symbol, err)
	}
	if cfg.Chart.Enabled {
		log.Info().Str("path", cfg.Chart.OutputPath).Msg("chart saved")
	}
	return nil
}
