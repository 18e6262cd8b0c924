package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
)

func newExamCmd(a *app) *cobra.Command {
	examCmd := &cobra.Command{
		Use:   "exam",
		Short: "Manage exams for --user",
	}

	examCmd.AddCommand(newExamAddCmd(a), newExamListCmd(a), newExamDeleteCmd(a))
	return examCmd
}

func newExamAddCmd(a *app) *cobra.Command {
	var date, examType, location, notes string

	cmd := &cobra.Command{
		Use:   "add SUBJECT",
		Short: "Add an exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTime(date, time.Local)
			if err != nil {
				return err
			}

			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				input := store.NewExam{UserID: user.ID, Subject: args[0], ExamDate: when}
				flags := cmd.Flags()
				if flags.Changed("type") {
					input.ExamType = &examType
				}
				if flags.Changed("location") {
					input.Location = &location
				}
				if flags.Changed("notes") {
					input.Notes = &notes
				}

				exam, err := s.CreateExam(ctx, input)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), exam)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added exam %d: %s on %s\n", exam.ID, exam.Subject, formatTime(exam.ExamDate))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "exam date (YYYY-MM-DD [HH:MM])")
	cmd.Flags().StringVar(&examType, "type", "", "exam type, e.g. CAT or final")
	cmd.Flags().StringVar(&location, "location", "", "where the exam is held")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newExamListCmd(a *app) *cobra.Command {
	var upcoming bool
	var limit uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exams by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				var (
					exams []models.Exam
					err   error
				)
				if upcoming {
					exams, err = s.UpcomingExams(ctx, user.ID, limit)
				} else {
					exams, err = s.ListExams(ctx, user.ID)
				}
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), exams)
				}
				t := newTable(cmd.OutOrStdout(), "ID", "SUBJECT", "DATE", "TYPE", "LOCATION")
				for _, e := range exams {
					t.row(e.ID, e.Subject, formatTime(e.ExamDate), deref(e.ExamType), deref(e.Location))
				}
				return t.flush()
			})
		},
	}

	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "only exams from now on")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "maximum upcoming exams (0 for all)")
	return cmd
}

func newExamDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withUserStore(cmd, func(ctx context.Context, s *store.Store, user *models.User) error {
				if err := s.DeleteExam(ctx, user.ID, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted exam %d\n", id)
				return nil
			})
		},
	}
}
