package commands

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/planwizard/internal/database/repository"
)

var stateKeys = []string{
	repository.KeyAppliedVersion,
	repository.KeyForcedLocale,
	repository.KeyDebugMode,
	repository.KeyInstallID,
}

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show local state and the number of cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.state.List(cmd.Context())
			if err != nil {
				return err
			}
			cached, err := repository.NewCacheRepo(e.db).Count(cmd.Context())
			if err != nil {
				return err
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("KEY", "VALUE", "UPDATED")
			for _, s := range entries {
				t.Row(s.Key, s.Value, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintf(out, "Cached responses: %d\n", cached)
			return nil
		},
	}
	cmd.AddCommand(stateUnsetCmd())
	return cmd
}

// stateUnsetCmd drops one key. Seeded keys come back with defaults on next start;
// dropping applied_version makes the next check adopt the served version.
func stateUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "unset <key>",
		Short:     "Remove a local state key",
		Args:      cobra.ExactArgs(1),
		ValidArgs: stateKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(stateKeys, key) {
				return fmt.Errorf("unknown state key %q", key)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.state.Delete(cmd.Context(), key); err != nil {
				return fmt.Errorf("unset %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)
			return nil
		},
	}
}
