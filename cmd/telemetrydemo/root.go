package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/trailcapture/core"
	"github.com/trailcapture/core/internal/capturedebug"
	"github.com/trailcapture/core/internal/config"
)

var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
	flagDebugAddr  string
)

// skipConfigAnnotation marks commands that load the engine themselves.
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles the resolved config, logger and running engine.
// Created once in PersistentPreRunE.
type CLIContext struct {
	Cfg         *config.Config
	Logger      *slog.Logger
	Engine      *telemetry.Engine
	JSON        bool
	Quiet       bool
	Color       bool
	debugServer *http.Server
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — command must not carry skipConfigAnnotation")
	}

	return cc
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "telemetrydemo",
		Short:         "Debug harness for the trailcapture telemetry core",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadEngine(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			cc := cliContextFrom(cmd.Context())
			if cc == nil || cc.Engine == nil {
				return nil
			}

			if cc.debugServer != nil {
				if err := cc.debugServer.Close(); err != nil {
					cc.Logger.Warn("closing debug socket", "error", err)
				}
			}

			return cc.Engine.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", config.DefaultConfigPath(), "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress status output")
	cmd.PersistentFlags().StringVar(&flagDebugAddr, "debug-addr", "", "if set, serve live location-fix notifications over a websocket at this address (e.g. localhost:8901)")

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newPauseCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newTracksCmd())
	cmd.AddCommand(newSerializeCmd())
	cmd.AddCommand(newSimulateCmd())

	return cmd
}

func loadEngine(cmd *cobra.Command) error {
	logger := buildLogger()

	cfg, err := config.LoadOrDefault(flagConfigPath, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine, err := telemetry.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	cc := &CLIContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: engine,
		JSON:   flagJSON,
		Quiet:  flagQuiet,
		Color:  isatty.IsTerminal(os.Stdout.Fd()) && !flagJSON,
	}

	if flagDebugAddr != "" {
		broadcaster := capturedebug.New(logger)
		engine.SetListener(broadcaster)

		srv := &http.Server{Addr: flagDebugAddr, Handler: broadcaster.Handler()}
		cc.debugServer = srv

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("debug socket server exited", "error", err)
			}
		}()

		statusf(flagQuiet, "Serving live fix notifications on ws://%s\n", flagDebugAddr)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

	return nil
}

func buildLogger() *slog.Logger {
	level := slog.LevelWarn

	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
