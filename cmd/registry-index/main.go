// Command registry-index is the indexer's CLI entry point (spec.md §6.1):
// a minimal `spf13/cobra` command wiring `config.Load` through
// `runctl.WithSignals` and `driver.Run` to the `exitcode` table. Grounded on
// MacroPower-x's cmd/magicschema/main.go (a single cobra.Command with RunE,
// flags registered on the command itself, no subcommand tree beyond what
// the CLI actually needs) and on gofulmen-schema's main.go dispatch-by-
// error-then-exit shape. Argument-parsing richness is explicitly out of
// scope per spec.md §1's Non-goals — this is the minimum needed to drive a
// build from a shell.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/driver"
	"github.com/sourcemeta-go/registryindex/exitcode"
	"github.com/sourcemeta-go/registryindex/runctl"
	"github.com/sourcemeta-go/registryindex/runerr"
	"github.com/sourcemeta-go/registryindex/workspace"
)

// version is stamped by the release process; "dev" is the fallback for
// local builds.
var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		if envelope, ok := err.(*runerr.Envelope); ok {
			fmt.Fprintf(os.Stderr, "%s [correlation-id=%s]\n", envelope.Error(), envelope.CorrelationID)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitcode.ForError(err))
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath     string
		collectionsDir string
		outputDir      string
		logLevel       string
		logFile        string
	)

	root := &cobra.Command{
		Use:           "registry-index",
		Short:         "Build a JSON Schema registry from a collections configuration",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	build := &cobra.Command{
		Use:   "build",
		Short: "Run one full registry build",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), buildOptions{
				configPath:     configPath,
				collectionsDir: collectionsDir,
				outputDir:      outputDir,
				logLevel:       logLevel,
				logFile:        logFile,
			})
		},
	}
	build.Flags().StringVar(&configPath, "config", "registry.json", "path to the registry configuration file")
	build.Flags().StringVar(&collectionsDir, "collections-dir", "", "global collections directory for @name extends entries (default: discovered from the configuration's location)")
	build.Flags().StringVar(&outputDir, "output", "build", "output directory for the generated registry")
	build.Flags().StringVar(&logLevel, "log-level", "info", "log level, one of: debug, info, warn, error")
	build.Flags().StringVar(&logFile, "log-file", "", "path to a rotated log file (stderr only if unset)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("registry-index " + version)
		},
	}

	root.AddCommand(build, versionCmd)
	return root
}

type buildOptions struct {
	configPath     string
	collectionsDir string
	outputDir      string
	logLevel       string
	logFile        string
}

func runBuild(ctx context.Context, opts buildOptions) error {
	logger, err := newLogger(opts.logLevel, opts.logFile)
	if err != nil {
		return fmt.Errorf("registry-index: configuring logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	collectionsDir := opts.collectionsDir
	if collectionsDir == "" {
		collectionsDir = workspace.CollectionsDir(filepath.Dir(opts.configPath))
	}

	cfg, err := config.Load(opts.configPath, collectionsDir)
	if err != nil {
		return err
	}

	runCtx, stop := runctl.WithSignals(ctx)
	defer stop()

	logger.Info("registry-index: starting build",
		zap.String("config", opts.configPath),
		zap.String("output", opts.outputDir),
		zap.String("url", cfg.URL))

	return driver.Run(runCtx, driver.Options{
		Configuration: cfg,
		OutputRoot:    opts.outputDir,
		Logger:        logger,
	})
}

// newLogger builds a zap logger at the requested level, tee'd to a rotated
// lumberjack sink when logFile is set and to stderr always — grounded on
// logging/logger.go's zap.New(core, opts...) construction, trimmed of the
// policy/middleware/correlation-ID machinery a one-shot batch build has no
// use for (see DESIGN.md).
func newLogger(level, logFile string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapLevel),
	}
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), zapLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
