package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/service"
)

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored proposals and cached responses",
		Long:  "Delete stored proposals and cached responses. Preferences and the applied version are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := (&service.MaintenanceService{DB: e.db, Caches: repository.NewCacheRepo(e.db)}).Reset(cmd.Context()); err != nil {
				return err
			}
			e.log.Info("local data reset")
			fmt.Fprintln(cmd.OutOrStdout(), "Local data reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
