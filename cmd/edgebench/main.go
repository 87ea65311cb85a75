package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cgast/edgebench/internal/config"
	"github.com/cgast/edgebench/pkg/events"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every command shares once the root command has loaded
// the configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *zap.Logger
	bus        *events.MemoryBus
	// logSink overrides stderr for log output.
	logSink zapcore.WriteSyncer
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "edgebench",
		Short: "Evaluation harness and tool set for local data agents",
		Long: `edgebench compares a general LLM (no file access) against a local,
file-aware agent on a catalog of data-extraction tasks, and exposes the
agent's tools (filesystem, SQLite, retrieval, data registry) on the
command line and over MCP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to the configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newHarnessCmd(a),
		newRegistryCmd(a),
		newRAGCmd(a),
		newToolCmd(a),
		newTasksCmd(a),
		newServeCmd(a),
		newInitCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	sink := a.logSink
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}
	a.logger, err = buildLogger(cfg.LogLevel, cfg.LogFormat, sink)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.bus = events.NewMemoryBus()
	return nil
}

// buildLogger creates a zap logger writing to sink. Logs never go to
// stdout, which carries command output and the MCP protocol.
func buildLogger(level, format string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	return zap.New(zapcore.NewCore(encoder, sink, lvl)), nil
}
