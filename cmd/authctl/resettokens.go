package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-api/cmd/authctl/ui"
	"github.com/redmonkez12/go-auth-api/internal/config"
)

func newResetTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-tokens",
		Short: "Maintain password reset tokens",
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired password reset tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.cfg.Auth.ResetTokenStore == config.ResetStoreRedis {
				ui.PrintInfo("Redis evicts expired reset tokens on its own, nothing to prune")
				return nil
			}

			svc, err := e.authService()
			if err != nil {
				return err
			}

			n, err := svc.PruneResetTokens(cmd.Context())
			if err != nil {
				return err
			}

			ui.PrintSuccess(fmt.Sprintf("Deleted %d expired reset token(s)", n))
			return nil
		},
	}

	cmd.AddCommand(pruneCmd)
	return cmd
}
