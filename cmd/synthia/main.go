package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/genricoloni/synthia/internal/app"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/plain"
	"github.com/genricoloni/synthia/internal/tui"
	"github.com/mattn/go-isatty"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const stopTimeout = 5 * time.Second

// AppOptions is the dependency graph of the interactive client, minus the
// configuration and the frontend
var AppOptions = fx.Options(
	fx.Provide(
		newLogger,
	),
	app.Module,
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "synthia:", err)
		os.Exit(1)
	}
}

// frontend picks the bubbletea UI on a terminal and the plain one otherwise
func frontend(forcePlain bool) fx.Option {
	if forcePlain || !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return plain.Module
	}
	return tui.Module
}

// runInteractive runs the client until the quit key, end of input or a signal
func runInteractive(cfg *config.Config, forcePlain bool) error {
	application := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Supply(cfg),
		AppOptions,
		frontend(forcePlain),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	// the quit key and a signal end up on the same stop path
	select {
	case <-ctx.Done():
	case <-application.Wait():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	return application.Stop(stopCtx)
}

// newLogger writes JSON logs to the configured file; the terminal belongs to the UI
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{cfg.Log.File}
	zc.ErrorOutputPaths = []string{cfg.Log.File}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
