package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Administer the auth API database",
		Long:          "Run schema migrations, seed user accounts, purge expired password reset tokens and generate signing keys.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newUserCmd(),
		newResetTokensCmd(),
		newKeygenCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}
