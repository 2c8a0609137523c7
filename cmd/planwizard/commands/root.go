package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/config"
	"github.com/jask/planwizard/internal/database"
	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/logging"
	"github.com/jask/planwizard/internal/settings"
)

var (
	configPath  string
	catalogPath string
	launchURL   string
	debugFlag   bool

	cfg config.Config
)

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planwizard",
		Short:         "Health plan issuance wizard for PME and individual proposals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if catalogPath != "" {
				c.Operators.Catalog = catalogPath
			}
			cfg = c
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd.Context(), cmd.Flags().Changed("debug"))
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/planwizard/config.toml)")
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "operator and broker catalog (YAML)")
	root.Flags().StringVar(&launchURL, "url", "", "launch URL; its lang and debug parameters are applied and consumed")
	root.Flags().BoolVar(&debugFlag, "debug", false, "enable the debug log channel (persisted)")

	root.AddCommand(configCmd(), submissionsCmd(), stateCmd(), resetCmd())
	return root
}

// env is the local state shared by commands that touch the database.
type env struct {
	log      *zap.Logger
	level    zap.AtomicLevel
	db       *sql.DB
	state    *repository.StateRepo
	settings *settings.Settings
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// openEnv builds the logger, opens and migrates the database and loads the
// persisted settings.
func openEnv(ctx context.Context) (*env, error) {
	log, level, err := logging.New(cfg.Log.Path, false)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	e := &env{log: log, level: level}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		e.Close()
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if e.db, err = database.OpenMigrated(cfg.Database.Path); err != nil {
		e.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.SeedDefaults(ctx, e.db); err != nil {
		e.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	e.state = repository.NewStateRepo(e.db)
	if e.settings, err = settings.Load(ctx, e.state, level); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}
