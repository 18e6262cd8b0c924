package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/auth"
	"github.com/eleven-am/tasknest/internal/store"
)

const envPassword = "TASKNEST_PASSWORD"

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage student accounts",
	}

	userCmd.AddCommand(newUserCreateCmd(a), newUserLoginCmd(a), newUserListCmd(a), newUserDeleteCmd(a))
	return userCmd
}

// withStore runs fn with an open store and no user scope.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	return fn(ctx, s)
}

// password returns the --password flag or $TASKNEST_PASSWORD.
func password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(envPassword); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("--password or %s is required", envPassword)
}

func newUserCreateCmd(a *app) *cobra.Command {
	var (
		req   auth.Registration
		pass  string
		full  string
		class string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Password, err = password(pass); err != nil {
				return err
			}
			if cmd.Flags().Changed("full-name") {
				req.FullName = &full
			}
			if cmd.Flags().Changed("class") {
				req.ClassName = &class
			}

			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				user, err := auth.New(s).Register(ctx, req)
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), user)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "username (3-80 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&pass, "password", "", "password (default: $"+envPassword+")")
	cmd.Flags().StringVar(&full, "full-name", "", "full name")
	cmd.Flags().StringVar(&class, "class", "", "class or form")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserLoginCmd(a *app) *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Check a username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := password(pass)
			if err != nil {
				return err
			}

			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				user, err := auth.New(s).Authenticate(ctx, args[0], secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pass, "password", "", "password (default: $"+envPassword+")")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				users, err := s.ListUsers(ctx)
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), users)
				}
				t := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "EMAIL", "NAME", "CLASS")
				for _, u := range users {
					t.row(u.ID, u.Username, u.Email, deref(u.FullName), deref(u.ClassName))
				}
				return t.flush()
			})
		},
	}
}

func newUserDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user and everything they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				user, err := s.GetUserByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteUser(ctx, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", user.Username)
				return nil
			})
		},
	}
}
