package ui

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/redmonkez12/go-auth-api/internal/auth"
)

// UserInput holds the fields of a new account
type UserInput struct {
	Name     string
	Email    string
	Password string
}

// Complete reports whether every field is set
func (in *UserInput) Complete() bool {
	return in.Name != "" && in.Email != "" && in.Password != ""
}

// RunUserForm prompts for the fields of in that are still empty
func RunUserForm(in *UserInput) error {
	var fields []huh.Field

	if in.Name == "" {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Placeholder("Jane Doe").
			Value(&in.Name).
			Validate(ValidateName))
	}

	if in.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("jane@example.com").
			Value(&in.Email).
			Validate(ValidateEmail))
	}

	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description(fmt.Sprintf("At least %d characters", auth.MinPasswordLength)).
			EchoMode(huh.EchoModePassword).
			Value(&in.Password).
			Validate(ValidatePassword))
	}

	if len(fields) == 0 {
		return nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return nil
}

func ValidateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("please enter a valid email")
	}
	return nil
}

func ValidatePassword(s string) error {
	if len(s) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}
