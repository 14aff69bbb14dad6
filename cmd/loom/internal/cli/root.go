// Package cli implements the loom command-line interface.
//
// Commands:
//   - run: show the demo app in the terminal
//   - snapshot: render the demo app to a PNG with the canvas backend
//   - version: print build information
//
// Every command reads loom.yaml or loom.toml from the working directory when
// present; flags override file values.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/go-drift/loom/pkg/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

type globalOptions struct {
	configPath string
	verbose    bool
	logFile    string
}

// Execute runs the CLI with args.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalOptions
	var closeLog func() error

	root := &cobra.Command{
		Use:          "loom",
		Short:        "loom renders declarative component trees",
		Long:         `loom is a declarative UI engine with a terminal and a raster backend. The CLI runs a demo application on either.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if g.verbose {
				level = charmlog.DebugLevel
			}
			w := stderr
			if g.logFile != "" {
				f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				w, closeLog = f, f.Close
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(w, level)))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("loom %s (built %s)\n", Version, BuildTime))

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default: loom.yaml or loom.toml in the working directory)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&g.logFile, "log-file", "", "append logs to this file instead of stderr")

	root.AddCommand(newRunCmd(&g))
	root.AddCommand(newSnapshotCmd(&g))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loom %s (built %s)\n", Version, BuildTime)
		},
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, g *globalOptions, override func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	var err error
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadOptional(".")
	}
	if err != nil {
		return cfg, err
	}
	if g.verbose {
		cfg.Verbose = true
	}
	override(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	loggerFromContext(cmd.Context()).Debug("config loaded", "backend", cfg.Backend, "fps", cfg.FPS, "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	return cfg, nil
}
