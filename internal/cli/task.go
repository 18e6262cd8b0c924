package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
)

func newTaskCmd(a *app) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks for --user",
	}

	taskCmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskUpdateCmd(a),
		newTaskCompleteCmd(a),
		newTaskDeleteCmd(a),
		newTaskCalendarCmd(a),
	)
	return taskCmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var deadline, description, category, priority string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Long: `Add a task. Category, priority and status default to general, medium and
pending. A reminder is scheduled a day before deadlines more than a day away.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseTime(deadline, time.Local)
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				input := store.NewTask{
					UserID:   user.ID,
					Title:    args[0],
					Deadline: due,
					Category: models.Category(category),
					Priority: models.Priority(priority),
				}
				if cmd.Flags().Changed("description") {
					input.Description = &description
				}

				task, err := s.CreateTask(ctx, input)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), task)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s (due %s)\n", task.ID, task.Title, formatTime(task.Deadline))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD [HH:MM])")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "general, assignment, project, exam or cat")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var status, category, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				tasks, err := s.ListTasks(ctx, user.ID, store.TaskFilter{
					Status:   models.Status(status),
					Category: models.Category(category),
					Search:   search,
				})
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				return printTasks(cmd.OutOrStdout(), tasks, s.Now())
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&category, "category", "", "only tasks in this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only tasks whose title contains this text")
	return cmd
}

func printTasks(out io.Writer, tasks []models.Task, now time.Time) error {
	t := newTable(out, "ID", "TITLE", "CATEGORY", "PRIORITY", "STATUS", "DEADLINE", "DAYS LEFT")
	for _, task := range tasks {
		status := string(task.Status)
		if task.IsOverdue(now) {
			status += " (overdue)"
		}
		t.row(task.ID, task.Title, task.Category, task.Priority, status, formatTime(task.Deadline), task.DaysRemaining(now))
	}
	return t.flush()
}

func newTaskUpdateCmd(a *app) *cobra.Command {
	var title, description, category, priority, status, deadline string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update store.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("category") {
				c := models.Category(category)
				update.Category = &c
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				update.Priority = &p
			}
			if flags.Changed("status") {
				st := models.Status(status)
				update.Status = &st
			}
			if flags.Changed("deadline") {
				due, err := parseTime(deadline, time.Local)
				if err != nil {
					return err
				}
				update.Deadline = &due
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				task, err := s.UpdateTask(ctx, user.ID, id, update)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), task)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline")
	return cmd
}

func newTaskCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				task, err := s.CompleteTask(ctx, user.ID, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d: %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task with its reminders and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				if err := s.DeleteTask(ctx, user.ID, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}
}

func newTaskCalendarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Print tasks as calendar events (JSON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				events, err := s.CalendarEvents(ctx, user.ID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), events)
			})
		},
	}
}
