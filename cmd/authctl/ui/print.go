package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/uptrace/bun/migrate"

	"github.com/redmonkez12/go-auth-api/internal/user"
)

var out io.Writer = os.Stdout

// PrintTitle prints a section heading
func PrintTitle(title string) {
	fmt.Fprintln(out, titleStyle.Render(title))
}

// PrintSuccess prints a success line
func PrintSuccess(msg string) {
	fmt.Fprintln(out, successStyle.Render(msg))
}

// PrintInfo prints a muted line
func PrintInfo(msg string) {
	fmt.Fprintln(out, subtleStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintln(out, errorStyle.Render("Error: "+msg))
}

// PrintUser prints the summary of a created account
func PrintUser(u *user.User) {
	PrintSuccess("User created successfully!")
	fmt.Fprintf(out, "  ID:    %s\n", u.ID)
	fmt.Fprintf(out, "  Name:  %s\n", u.Name)
	fmt.Fprintf(out, "  Email: %s\n", u.Email)
	fmt.Fprintln(out)
}

// PrintMigrationGroup reports what a migrate up/down run touched
func PrintMigrationGroup(action string, group *migrate.MigrationGroup) {
	if group == nil || group.IsZero() {
		PrintInfo(fmt.Sprintf("No migrations to %s", action))
		return
	}

	PrintSuccess(fmt.Sprintf("%s %s", action, group))
	for _, m := range group.Migrations {
		fmt.Fprintf(out, "  %s\n", m.Name)
	}
}

// PrintMigrationStatus renders every known migration as a table
func PrintMigrationStatus(ms migrate.MigrationSlice) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		Headers("MIGRATION", "COMMENT", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, m := range ms {
		status := "pending"
		if m.IsApplied() {
			status = fmt.Sprintf("applied (group #%d)", m.GroupID)
		}
		t.Row(m.Name, m.Comment, status)
	}

	PrintTitle("Migrations")
	fmt.Fprintln(out, t.Render())
}
