package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/section-sniper/internal/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// app carries state shared by subcommands once the root pre-run has loaded config.
type app struct {
	configPath string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sectionsniper",
		Short:         "Watches course sections and selects a preferred one the moment a seat opens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./sectionsniper.yaml if present)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newCoursesCmd(a))
	root.AddCommand(newSectionsCmd(a))
	root.AddCommand(newAttemptsCmd(a))

	return root
}

// setup loads config and configures logging. It runs once per invocation, before RunE.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func configureLogging(cfg config.Config) error {
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	log.SetLevel(lvl)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
