// Package cli implements the maintctl command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/db"
	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/logging"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/status"
	"maintenance-tracker/internal/store"
)

// Options override what the root command would otherwise build from config.
type Options struct {
	// Backend is used as-is when set and is not closed by the command.
	Backend kv.Backend
	Now     status.Clock
}

// env is the state shared by every subcommand once the root has run.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	backend  kv.Backend
	owned    bool
	machines store.Store
	themes   *store.ThemeStore
	now      status.Clock
}

func (e *env) today() model.Date {
	return status.Today(e.now(), e.cfg.Tracker.Location)
}

// Execute runs maintctl. Input errors exit with status 2, failures with 1.
func Execute() {
	if err := NewRootCmd(Options{}).Execute(); err != nil {
		if IsValidation(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func NewRootCmd(opts Options) *cobra.Command {
	var (
		configPath string
		envFile    string
		logLevel   string
	)
	e := &env{now: opts.Now}
	if e.now == nil {
		e.now = time.Now
	}

	cmd := &cobra.Command{
		Use:          "maintctl",
		Short:        "Track machines and when they are due for service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}
			if configPath == "" {
				configPath = config.Path()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			e.cfg = cfg

			e.log, err = logging.New(cfg.Log.Level)
			if err != nil {
				return err
			}

			e.backend = opts.Backend
			if e.backend == nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				e.backend, err = db.OpenBackend(ctx, &cfg.Storage, logging.Named(e.log, "db"))
				if err != nil {
					return fmt.Errorf("failed to open storage: %w", err)
				}
				e.owned = true
			}

			e.machines = store.New(e.backend, store.WithNow(e.now), store.WithLogger(logging.Named(e.log, "store")))
			e.themes = store.NewThemeStore(e.backend)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if e.log != nil {
				_ = e.log.Sync()
			}
			if e.owned {
				return e.backend.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading config (default .env)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		addCmd(e),
		listCmd(e),
		showCmd(e),
		editCmd(e),
		deleteCmd(e),
		sortCmd(e),
		importCmd(e),
		exportCmd(e),
		themeCmd(e),
	)
	return cmd
}
