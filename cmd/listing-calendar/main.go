package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/username/listing-calendar/internal/calendar"
	"github.com/username/listing-calendar/internal/config"
	"github.com/username/listing-calendar/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	envFile    string
	logger     *zap.Logger
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "listing-calendar",
		Short:         "Listing availability calendar",
		Long:          "Browse and edit the availability and pricing calendar of an accommodation or tour listing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}

			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				initLogger("")
				return err
			}

			if cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else {
				initLogger(cfg.Log.Level)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ., $HOME/.listing-calendar, /etc/listing-calendar)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the config")

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(bulkEditCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newClient builds the API client from the loaded config
func newClient(collector *metrics.Collector) *calendar.Client {
	client := calendar.NewClient(cfg.API.BaseURL, cfg.API.GetListingKind(), cfg.API.ListingID, logger)
	client.UseAuth(cfg.API.Token, cfg.API.SessionCookie)
	client.SetTimeout(cfg.API.GetTimeout())
	client.UseMetrics(collector)
	return client
}

// newViewModel builds the view-model over a fresh client.
// The registry is only served by the watch command; other commands pass nil and record nothing.
func newViewModel(reg prometheus.Registerer) (*calendar.ViewModel, *metrics.Collector, error) {
	var collector *metrics.Collector
	if reg != nil {
		var err error
		collector, err = metrics.New(reg)
		if err != nil {
			return nil, nil, err
		}
	}

	vm := calendar.NewViewModel(newClient(collector), cfg.API.GetListingKind(), logger)
	vm.SetCurrencySymbol(cfg.Calendar.GetCurrencySymbol())
	return vm, collector, nil
}

func initLogger(level string) {
	var err error
	logger, err = consoleConfig(level).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

// consoleConfig is the stderr logger config; an unknown level keeps Info
func consoleConfig(level string) zap.Config {
	config := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil && level != "" {
		config.Level = lvl
	}
	config.Encoding = "console"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	return config
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
