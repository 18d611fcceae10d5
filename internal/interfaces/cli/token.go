package cli

import (
	"fmt"
	"time"

	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

func newTokenCommand(deps Deps, opts *options) *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API (development only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shopID, err := opts.shopID()
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			r := staff.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("invalid --role %q, want owner, admin or cashier", role)
			}
			tokens, err := deps.Tokens()
			if err != nil {
				return err
			}
			token, expiresAt, err := tokens.GenerateToken(auth.TokenInput{
				ShopID: shopID,
				UserID: actor.UserID,
				Role:   r,
				TTL:    ttl,
			})
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"token": token, "expires_at": expiresAt})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(staff.RoleOwner), "role claim: owner, admin or cashier")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, default from jwt.access_token_expiration")
	return cmd
}
