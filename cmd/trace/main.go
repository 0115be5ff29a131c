package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/septagon/TRACE/internal/app"
	"github.com/septagon/TRACE/internal/config"
	"github.com/septagon/TRACE/internal/logging"
	"github.com/septagon/TRACE/internal/metrics"
	"github.com/septagon/TRACE/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the global flags shared by every command.
type options struct {
	cfgFile   string
	storePath string
	driver    string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "trace",
		Short: "TRACE - 3D gesture recognition",
		Long: `TRACE learns named 3D gestures from a few example takes and recognizes
new takes against them.

Takes are streamed to the server over a WebSocket or replayed offline from
recording files.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "trace.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "vocabulary store path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "vocabulary store driver: sqlite or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newTrainCmd(opts),
		newClassifyCmd(opts),
		newClassesCmd(opts),
		newAlphabetCmd(opts),
	)
	return rootCmd
}

// runtime holds what a command needs to work on the stored vocabulary.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	store   app.SnapshotStore
	sqlite  *store.Store
}

func (o *options) open(stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := metrics.New()
	logCfg := cfg.Logging()
	logCfg.Output = zapcore.Lock(zapcore.AddSync(stderr))
	logCfg.Entries = m.LogEntriesTotal
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, metrics: m}
	switch cfg.Store.Driver {
	case config.DriverJSON:
		rt.store = store.NewFileStore(cfg.Store.Path)
	default:
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		rt.store = st
		rt.sqlite = st
	}
	return rt, nil
}

func (rt *runtime) tracer(ctx context.Context) (*app.Tracer, error) {
	return app.Open(ctx, app.Config{
		Store:         rt.store,
		Options:       rt.cfg.GestureOptions(rt.logger),
		SegmentLength: rt.cfg.Recognizer.SegmentLength,
		MaxPoints:     rt.cfg.Recognizer.MaxPoints,
		AutoLearn:     rt.cfg.Recognizer.AutoLearn,
		Logger:        rt.logger,
		Metrics:       rt.metrics,
	})
}

// Close writes the metrics textfile if configured, closes the store and
// flushes the logger.
func (rt *runtime) Close() error {
	var errs []error
	if path := rt.cfg.Metrics.Textfile; path != "" {
		if err := rt.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if rt.sqlite != nil {
		if err := rt.sqlite.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = rt.logger.Sync()
	return errors.Join(errs...)
}
