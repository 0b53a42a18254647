package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/cmdutil"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// Command creates the admin and tenant schemas and the directory tables. It is idempotent.
func Command(opts *cmdutil.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the admin and tenant schemas and the directory tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if opts.DatabaseURL == "" {
				return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
			}
			schemas, err := opts.Schemas()
			if err != nil {
				return err
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: opts.DatabaseURL, ApplicationName: "orgadmin-cli"})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.BootstrapSchemas(ctx, pool, schemas); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bootstrap complete. Admin schema: %s | Tenant schema: %s\n", schemas.Admin, schemas.Tenant)
			return nil
		},
	}
}
