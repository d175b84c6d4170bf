package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/radview/internal/config"
	"github.com/example/radview/internal/logging"
	"github.com/example/radview/internal/theme"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// app carries what every subcommand needs once the root flags are parsed.
type app struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:          "radview",
		Short:        "Radiology image viewer with annotations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human readable log output")

	rootCmd.AddCommand(viewCmd(a))
	rootCmd.AddCommand(renderCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(configCmd(a))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// setup loads the configuration and builds the root logger. A config file
// that fails to load is reported and replaced by the defaults, except when
// it was named explicitly.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader(version, a.configPath).Load()
	if err != nil {
		if a.configPath != "" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.pretty {
		cfg.Log.Pretty = true
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	return nil
}

// theme resolves the configured theme, falling back to the default.
func (a *app) theme() *theme.Theme {
	t, err := theme.NewLoader().Load(a.cfg.Viewer.Theme)
	if err != nil {
		a.log.Warn().Err(err).Str("theme", a.cfg.Viewer.Theme).Msg("load theme")
		return theme.Default()
	}
	return t
}
