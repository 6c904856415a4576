package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/vecremote/internal/config"
	"github.com/recera/vecremote/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vecremote",
		Short: "vecremote - drive a Vector robot from the browser",
		Long: `vecremote serves a WebAssembly console that forwards keyboard input to a
robot and shows its camera, plus tools to build the client and watch the
event feed from a terminal.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default "+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newBuildCommand(g))
	rootCmd.AddCommand(newMonitorCommand(g))
	rootCmd.AddCommand(newInitCommand(g))
	return rootCmd
}

// load reads the configuration and builds the logger it describes.
func (g *globalFlags) load() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}
