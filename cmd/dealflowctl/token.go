package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/dealflow/internal/auth"
	"github.com/nurpe/dealflow/internal/model"
)

// newTokenCmd signs access tokens for local development.
func newTokenCmd() *cobra.Command {
	var (
		secret string
		user   string
		name   string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(secret) == "" {
				return errors.New("--secret or JWT_ACCESS_SECRET required")
			}
			if strings.TrimSpace(user) == "" {
				return errors.New("--user required")
			}
			token, err := auth.NewParser(secret).Issue(model.Principal{
				UserID:      user,
				DisplayName: name,
				Role:        strings.ToUpper(strings.TrimSpace(role)),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_ACCESS_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&user, "user", "", "subject user id")
	cmd.Flags().StringVar(&name, "name", "", "display name used as activity author")
	cmd.Flags().StringVar(&role, "role", model.RoleAdvisor, "ADMIN|ADVISOR|VIEWER")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
