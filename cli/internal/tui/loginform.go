// ABOUTME: Interactive login form built with huh
// ABOUTME: Collects the username or email and the password for drive login

package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/styles"
)

// Credentials are the values collected by the login form
type Credentials struct {
	Identifier string
	Password   string
}

// createTheme returns a huh theme using the panel palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(styles.Muted).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(styles.Danger).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(styles.Danger)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(styles.Muted)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(styles.Primary)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(styles.Muted)

	return t
}

// LoginForm builds the form; values are written into creds on submit.
// A pre-filled identifier is kept and only the password is asked for.
func LoginForm(creds *Credentials) *huh.Form {
	var fields []huh.Field
	if creds.Identifier == "" {
		fields = append(fields, huh.NewInput().
			Title("Username or email").
			Placeholder("e.g., siti or siti@oganilirkab.go.id").
			CharLimit(255).
			Value(&creds.Identifier).
			Validate(validateRequired("username or email")))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		CharLimit(1024).
		Value(&creds.Password).
		Validate(validateRequired("password")))

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Drive Ogan Ilir").
			Description("Sign in to upload files"),
	).WithTheme(createTheme())
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
