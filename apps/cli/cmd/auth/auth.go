package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/cmdutil"
	authservice "github.com/zenGate-Global/palmyra-org-admin/domains/auth/be/service"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
)

// Command groups authentication helpers.
func Command(opts *cmdutil.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication utilities",
	}
	cmd.AddCommand(loginCommand(opts))
	return cmd
}

func loginCommand(opts *cmdutil.Options) *cobra.Command {
	var (
		email    string
		password string
		secret   string
		issuer   string
		ttl      time.Duration
	)

	c := &cobra.Command{
		Use:   "login",
		Short: "Check admin credentials and print a bearer token",
		Long:  "Check admin credentials against the directory and print a token signed with the API's JWT secret.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := platformauth.NewTokenIssuer(platformauth.TokenConfig{Secret: secret, Issuer: issuer, TTL: ttl})
			if err != nil {
				return err
			}

			ctx, e, err := cmdutil.Open(context.Background(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := authservice.New(e.Repo, e.Hasher, tokens).Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "Token for %s (%s) expires %s\n",
				result.Admin.Email, result.Organization.Name, result.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "Admin email")
	c.Flags().StringVar(&password, "password", "", "Admin password")
	c.Flags().StringVar(&secret, "jwt-secret", "", "JWT signing secret (must match the API)")
	c.Flags().StringVar(&issuer, "jwt-issuer", "", "Optional JWT issuer")
	c.Flags().DurationVar(&ttl, "ttl", platformauth.DefaultTokenTTL, "Token lifetime")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	_ = c.MarkFlagRequired("jwt-secret")
	return c
}
