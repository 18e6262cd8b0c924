package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarise --user's workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				d, err := s.Dashboard(ctx, user.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if a.jsonOutput {
					return printJSON(out, d)
				}

				fmt.Fprintf(out, "Tasks: %d total, %d completed, %d pending (%.1f%% complete)\n",
					d.TotalTasks, d.CompletedTasks, d.PendingTasks, d.CompletionRate)

				if len(d.OverdueTasks) > 0 {
					fmt.Fprintln(out, "\nOverdue:")
					if err := printTasks(out, d.OverdueTasks, s.Now()); err != nil {
						return err
					}
				}
				if len(d.UpcomingTasks) > 0 {
					fmt.Fprintln(out, "\nUpcoming:")
					if err := printTasks(out, d.UpcomingTasks, s.Now()); err != nil {
						return err
					}
				}
				if len(d.UpcomingReminders) > 0 {
					fmt.Fprintln(out, "\nReminders:")
					return printReminders(out, d.UpcomingReminders)
				}
				return nil
			})
		},
	}
}
