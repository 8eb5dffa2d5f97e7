package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/section-sniper/internal/attempts"
	"github.com/example/section-sniper/internal/config"
	"github.com/example/section-sniper/internal/db"
	"github.com/example/section-sniper/internal/migrate"
	"github.com/example/section-sniper/internal/notify"
	"github.com/example/section-sniper/internal/orchestrator"
	"github.com/example/section-sniper/internal/ucam"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		prefsPath    string
		logoutOthers bool
	)
	c := &cobra.Command{
		Use:   "run <student_id> <password>",
		Short: "Log in and watch every preadvised course until a preferred section is selected",
		Args:  cobra.ArbitraryArgs,
		// A wrong arg count only prints usage, so config is not loaded for it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return nil
			}
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprintf(cmd.OutOrStdout(), "Usage: %s\n", cmd.UseLine())
				return nil
			}
			creds, err := credentialsFromArgs(args[0], args[1], logoutOthers)
			if err != nil {
				return err
			}
			if prefsPath == "" {
				prefsPath = a.cfg.Preferences
			}
			prefs, err := config.LoadPreferences(prefsPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sinks, closeSinks, err := openSinks(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeSinks()

			orch := &orchestrator.Orchestrator{
				Service:      ucam.New(a.cfg.ClientOptions()).AsService(),
				Credentials:  creds,
				Preferences:  prefs,
				Task:         a.cfg.TaskOptions(),
				MaxRestarts:  a.cfg.Orchestrator.MaxRestarts,
				RestartDelay: a.cfg.Orchestrator.RestartDelay,
				Sinks:        sinks,
				Log:          log.StandardLogger(),
			}
			report, runErr := orch.Run(ctx)
			if len(report.Results) > 0 {
				renderResults(cmd.OutOrStdout(), report.Results)
			}
			for _, code := range report.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: no preferred sections configured\n", code)
			}
			if errors.Is(runErr, context.Canceled) {
				log.Info("interrupted")
				return nil
			}
			return runErr
		},
	}
	c.Flags().StringVar(&prefsPath, "preferences", "", "preferences file (default from config)")
	c.Flags().BoolVar(&logoutOthers, "logout-others", false, "ask the server to end other sessions on login")
	return c
}

// openSinks builds the optional result sinks from config. The returned func releases them.
func openSinks(ctx context.Context, cfg config.Config) ([]orchestrator.ResultSink, func(), error) {
	var (
		sinks   []orchestrator.ResultSink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, d.Close)
		if err := migrate.Up(ctx, d); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("migrate: %w", err)
		}
		sinks = append(sinks, attempts.NewRepo(d))
	}

	if cfg.MQTT.URL != "" {
		pub := notify.NewPublisher(cfg.MQTT.URL, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err := pub.Connect(); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("mqtt connect: %w", err)
		}
		closers = append(closers, pub.Close)
		sinks = append(sinks, pub)
	}

	return sinks, closeAll, nil
}
