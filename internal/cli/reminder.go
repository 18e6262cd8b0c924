package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/reminder"
	"github.com/eleven-am/tasknest/internal/store"
)

func newReminderCmd(a *app) *cobra.Command {
	reminderCmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage reminders",
	}

	reminderCmd.AddCommand(
		newReminderAddCmd(a),
		newReminderListCmd(a),
		newReminderSentCmd(a),
		newReminderDeleteCmd(a),
		newReminderDispatchCmd(a),
	)
	return reminderCmd
}

func newReminderAddCmd(a *app) *cobra.Command {
	var at, message string
	var taskID int64

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Schedule a reminder, optionally for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTime(at, time.Local)
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				input := store.NewReminder{UserID: user.ID, Title: args[0], ReminderTime: when}
				if cmd.Flags().Changed("task") {
					input.TaskID = &taskID
				}
				if cmd.Flags().Changed("message") {
					input.Message = &message
				}

				r, err := s.CreateReminder(ctx, input)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), r)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled reminder %d for %s\n", r.ID, formatTime(r.ReminderTime))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "when to remind (YYYY-MM-DD [HH:MM])")
	cmd.Flags().StringVar(&message, "message", "", "reminder text")
	cmd.Flags().Int64Var(&taskID, "task", 0, "task the reminder belongs to")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newReminderListCmd(a *app) *cobra.Command {
	var past, due bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if past && due {
				return fmt.Errorf("--past and --due cannot be combined")
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				var (
					reminders []models.Reminder
					err       error
				)
				switch {
				case past:
					reminders, err = s.ListPastReminders(ctx, user.ID)
				case due:
					reminders, err = s.DueReminders(ctx, user.ID)
				default:
					reminders, err = s.ListUpcomingReminders(ctx, user.ID)
				}
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), reminders)
				}
				return printReminders(cmd.OutOrStdout(), reminders)
			})
		},
	}

	cmd.Flags().BoolVar(&past, "past", false, "show the 10 most recent sent or elapsed reminders")
	cmd.Flags().BoolVar(&due, "due", false, "show unsent reminders whose time has come")
	return cmd
}

func printReminders(out io.Writer, reminders []models.Reminder) error {
	t := newTable(out, "ID", "TITLE", "WHEN", "SENT", "TASK")
	for _, r := range reminders {
		task := "-"
		if r.TaskID != nil {
			task = fmt.Sprint(*r.TaskID)
		}
		t.row(r.ID, r.Title, formatTime(r.ReminderTime), r.IsSent, task)
	}
	return t.flush()
}

func newReminderSentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sent ID",
		Short: "Mark a reminder as sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				return s.MarkReminderSent(ctx, user.ID, id)
			})
		},
	}
}

func newReminderDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				if err := s.DeleteReminder(ctx, user.ID, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %d\n", id)
				return nil
			})
		},
	}
}

func newReminderDispatchCmd(a *app) *cobra.Command {
	var (
		once       bool
		interval   time.Duration
		batch      uint64
		retryDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver due reminders for all users",
		Long: `Poll for unsent reminders whose time has come, log each one and mark it
sent. Runs until interrupted unless --once is given. A reminder whose delivery
fails is retried after --retry-delay. Several dispatchers may run against the
same database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Reminders.Interval
			}
			if !cmd.Flags().Changed("batch") {
				batch = a.cfg.Reminders.BatchSize
			}
			if !cmd.Flags().Changed("retry-delay") {
				retryDelay = a.cfg.Reminders.RetryDelay
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			d := reminder.NewDispatcher(s, reminder.LogNotifier{Log: logger.Reminder()},
				reminder.WithInterval(interval),
				reminder.WithBatchSize(batch),
				reminder.WithRetryDelay(retryDelay))

			if !once {
				return d.Run(ctx)
			}

			sent, err := d.DispatchOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dispatched %d reminder(s)\n", sent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "dispatch one batch and exit")
	cmd.Flags().DurationVar(&interval, "interval", reminder.DefaultInterval, "poll interval")
	cmd.Flags().Uint64Var(&batch, "batch", reminder.DefaultBatchSize, "reminders claimed per poll")
	cmd.Flags().DurationVar(&retryDelay, "retry-delay", reminder.DefaultRetryDelay, "wait before retrying a failed delivery")
	return cmd
}
