package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-api/cmd/authctl/ui"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long:  "Create a user account. Fields not given as flags are asked for interactively.",
		RunE:  runUserCreate,
	}

	// Flags for non-interactive mode (CI/scripting)
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password")

	cmd.AddCommand(createCmd)
	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	in := &ui.UserInput{}
	in.Name, _ = cmd.Flags().GetString("name")
	in.Email, _ = cmd.Flags().GetString("email")
	in.Password, _ = cmd.Flags().GetString("password")

	if !in.Complete() {
		ui.PrintTitle("New user")
		if err := ui.RunUserForm(in); err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}
	}

	e, err := openEnv(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := e.authService()
	if err != nil {
		return err
	}

	u, err := svc.CreateUser(cmd.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		return err
	}

	ui.PrintUser(u)
	return nil
}
