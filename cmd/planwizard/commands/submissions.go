package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/planwizard/internal/database/repository"
)

func submissionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Short: "List stored proposals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			subs, err := repository.NewSubmissionRepo(e.db).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No proposals submitted yet")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "FORM", "OPERATOR", "BROKER", "LOCALE", "CREATED")
			for _, s := range subs {
				t.Row(s.ID, s.FormType, s.OperatorID, s.BrokerCode, s.Locale, s.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
