package main

import (
	"errors"
	"fmt"
	"time"

	"todo-demo/internal/config"
	"todo-demo/internal/middleware"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development JWT for the mutating routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.Get().JWTSecret
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			signed, err := middleware.IssueToken(secret, subject, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "test-user", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
