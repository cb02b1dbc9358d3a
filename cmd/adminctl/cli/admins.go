package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/service"
)

func newAdminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Inspect admin accounts",
	}

	cmd.AddCommand(newAdminsListCmd())
	cmd.AddCommand(newAdminsRevokeCmd())

	return cmd
}

// ---------- admins list ----------

func newAdminsListCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := service.NewAdminService(s.admins).List(ctx, limit, offset)
			if err != nil {
				return err
			}
			return printAdmins(cmd.OutOrStdout(), list.Admins, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum accounts to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Accounts to skip")

	return cmd
}

func printAdmins(w io.Writer, admins []model.PublicAdmin, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Fprintln(w, "No admin accounts. Use 'adminctl seed-superadmin' to create one.")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-30s %-12s %-8s\n", "ID", "EMAIL", "ROLE", "ACTIVE")
	fmt.Fprintf(w, "%-36s %-30s %-12s %-8s\n", "--", "-----", "----", "------")
	for _, a := range admins {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		fmt.Fprintf(w, "%-36s %-30s %-12s %-8s\n", a.ID, a.Email, a.Role, active)
	}
	return nil
}

// ---------- admins revoke ----------

func newAdminsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <id>",
		Short: "Invalidate every token issued to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := service.NewAdminService(s.admins).RevokeSessions(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sessions revoked for %s\n", args[0])
			return nil
		},
	}
}
