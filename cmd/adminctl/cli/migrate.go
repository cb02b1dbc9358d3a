package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contentdesk/admin-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := database.Migrations()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "Print embedded migrations without connecting")

	return cmd
}
