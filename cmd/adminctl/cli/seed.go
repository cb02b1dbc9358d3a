package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contentdesk/admin-api/internal/service"
)

func newSeedCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "seed-superadmin",
		Short: "Create the first superadmin account",
		Example: `  adminctl seed-superadmin --name Root --email root@example.com --password 'Secret123'
  echo 'Secret123' | adminctl seed-superadmin --name Root --email root@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			admin, err := service.NewAdminService(s.admins).SeedSuperAdmin(ctx, name, email, pw)
			if errors.Is(err, service.ErrAlreadySeeded) {
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s already exists (role %s); nothing to do\n", admin.Email, admin.Role)
				return nil
			}
			if err != nil {
				return fmt.Errorf("seed superadmin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created superadmin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin if omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}
