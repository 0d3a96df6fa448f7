// Command shapes parses, formats and repairs Reassembly shapes.lua files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shape-editor/backend/internal/config"
	"github.com/shape-editor/backend/internal/parser"
)

// Version info (set during build)
var Version = "dev"

// cli holds global flags and the logger shared by subcommands.
type cli struct {
	verbose    bool
	configPath string
	noRepair   bool
	noFallback bool

	logger   *zap.Logger
	opts     parser.Options
	strategy string        // default for --strategy
	debounce time.Duration // default for watch --debounce
}

func newRootCmd() *cobra.Command {
	app := &cli{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:     "shapes",
		Short:   "Parse, format and repair Reassembly shapes.lua files",
		Version: Version,
		Long: `shapes reads the shapes.lua table dialect without executing it.

Files are repaired, parsed with the grammar-driven parser and, when that
fails, recovered by the line-scanning legacy parser. Use "-" as FILE to
read standard input.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if app.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			app.logger = logger

			return app.loadOptions()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = app.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&app.configPath, "config", "", "ShapeEditor.config to read parser settings from")
	flags.BoolVar(&app.noRepair, "no-repair", false, "skip the repair pass")
	flags.BoolVar(&app.noFallback, "no-fallback", false, "do not fall back to the legacy parser")

	rootCmd.AddCommand(
		newParseCmd(app),
		newFmtCmd(app),
		newRepairCmd(app),
		newWatchCmd(app),
	)
	return rootCmd
}

// loadOptions resolves parser options from the config file, if given, then
// applies the command-line switches.
func (app *cli) loadOptions() error {
	app.opts = parser.DefaultOptions()
	app.strategy = "auto"
	app.debounce = config.DefaultConfig().WatchDebounce()
	if app.configPath != "" {
		cfg, err := config.LoadConfig(app.configPath)
		if err != nil {
			return err
		}
		app.opts = cfg.ParserOptions()
		if cfg.Parser.DefaultStrategy != "" {
			app.strategy = cfg.Parser.DefaultStrategy
		}
		if d := cfg.WatchDebounce(); d > 0 {
			app.debounce = d
		}
		app.logger.Debug("loaded config", zap.String("path", app.configPath))
	}
	if app.noRepair {
		app.opts.EnableRepair = false
	}
	if app.noFallback {
		app.opts.EnableFallback = false
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
