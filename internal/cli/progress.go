package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
)

func newProgressCmd(a *app) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Record and review task progress for --user",
	}

	progressCmd.AddCommand(newProgressAddCmd(a), newProgressListCmd(a))
	return progressCmd
}

func newProgressAddCmd(a *app) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "add TASK_ID PERCENT",
		Short: "Record progress on a task",
		Long:  "Record progress between 0 and 100. 100 completes the task; anything above 0 starts it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			percentage, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid percentage %q", args[1])
			}

			var note *string
			if cmd.Flags().Changed("notes") {
				note = &notes
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				entry, err := s.RecordProgress(ctx, user.ID, taskID, percentage, note)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), entry)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d%% on task %d\n", entry.ProgressPercentage, taskID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "notes for this entry")
	return cmd
}

func newProgressListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list TASK_ID",
		Short: "Show a task's progress history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				history, err := s.ListProgress(ctx, user.ID, taskID)
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), history)
				}
				t := newTable(cmd.OutOrStdout(), "RECORDED", "PERCENT", "NOTES")
				for _, p := range history {
					t.row(formatTime(p.RecordedAt), fmt.Sprintf("%d%%", p.ProgressPercentage), deref(p.Notes))
				}
				return t.flush()
			})
		},
	}
}
