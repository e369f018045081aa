package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"claimintake/internal/config"
	"claimintake/internal/pkg/jwtutil"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		tenantID string
		role     string
		subject  string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issuetoken",
		Short: "Issue a signed API token for a tenant or an admin",
		Long: `Sign a bearer token with the configured JWT secret.

Tenant tokens carry --tenant and may only reach that tenant's routes.
Admin tokens (--role admin) may manage tenants and reach every tenant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if tenantID == "" && role != jwtutil.RoleAdmin {
				return fmt.Errorf("--tenant is required unless --role is %s", jwtutil.RoleAdmin)
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpiration()
			}

			token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, ttl, subject, tenantID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "Tenant id the token is scoped to")
	cmd.Flags().StringVarP(&role, "role", "r", "", "Token role (empty or admin)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "cli", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.jwt_expire_minute)")
	return cmd
}
