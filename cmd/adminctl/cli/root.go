package cli

import (
	"github.com/spf13/cobra"
)

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Operator tooling for the admin API",
		Long: `adminctl bootstraps and maintains the admin API: it seeds the first
superadmin, applies database migrations, lists accounts, revokes sessions,
and generates password hashes and signing secrets.

Commands that touch the database read DATABASE_URL from the environment.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newAdminsCmd())
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newGenSecretCmd())

	return cmd
}
