package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <tenant>",
		Short: "Mint an API token for a service account",
		Example: `  payadminctl token asa --user reconciler
  payadminctl token papl --ttl 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tenant.Parse(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is required")
			}

			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := auth.New(cfg.Auth.JWTSecret).Issue(auth.Claims{
				UserID: userID,
				Tenant: t,
				Role:   role,
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "payadminctl", "user id recorded in the token")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "role granted by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL)")

	return cmd
}
