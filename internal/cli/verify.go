package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/generator"
	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/internal/models"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify database schema matches models",
		Long: `Verify that the live database schema matches the model definitions.

This command checks for:
- Missing or unexpected tables and columns
- Type, length and nullability mismatches
- Missing foreign keys and cascade rules
- Missing indexes, unique and check constraints

Exits non-zero when differences are found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			want, err := generator.FromModels(models.All()...)
			if err != nil {
				return err
			}

			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			drifts, err := migrator.Verify(ctx, db.DB, want, a.cfg.Migrations.Table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				if err := printJSON(out, drifts); err != nil {
					return err
				}
			} else {
				for _, d := range drifts {
					fmt.Fprintf(out, "  %s\n", d)
				}
			}

			if len(drifts) > 0 {
				return fmt.Errorf("schema differs from models in %d place(s)", len(drifts))
			}
			if !a.jsonOutput {
				fmt.Fprintf(out, "Schema matches models (%d tables)\n", len(want.Tables))
			}
			return nil
		},
	}
}
