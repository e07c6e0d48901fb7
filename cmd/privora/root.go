package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/log"
)

// env is populated before any subcommand runs.
type env struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *zerolog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "privora",
		Short:         "Privora chat client and reference backend",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.load()
		},
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "path to privora.yaml")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override log_level (trace, debug, info, warn, error, off)")

	root.AddCommand(
		newChatCmd(e),
		newRegisterCmd(e),
		newSearchCmd(e),
		newServeCmd(e),
		newVerifyCmd(e),
	)
	return root
}

// load resolves configuration and builds the logger. Logs go to stderr so
// chat output on stdout stays readable.
func (e *env) load() error {
	boot := log.NewWithWriter(os.Stderr, "warn")

	cfg, path, err := config.Load(boot, e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}

	e.cfg = cfg
	e.log = log.NewWithWriter(os.Stderr, cfg.LogLevel)
	e.log.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}
