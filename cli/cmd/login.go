// ABOUTME: Login and logout commands for the drive CLI
// ABOUTME: Exchanges credentials for the web tier's session cookie and persists it

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/client"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Drive Ogan Ilir",
	Long: `Sign in with your Drive username or email. Missing values are prompted for
on an interactive terminal. The session cookie is saved in the config
directory; the backend token never leaves the web tier.

Exit codes:
  0 - Signed in
  1 - Credentials rejected
  2 - Error (connectivity, missing input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		creds := tui.Credentials{Identifier: loginUsername, Password: loginPassword}
		if creds.Password == "" {
			creds.Password = os.Getenv("DRIVE_PASSWORD")
		}
		if (creds.Identifier == "" || creds.Password == "") && isInteractive() {
			if err := tui.LoginForm(&creds).RunWithContext(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitRejected)
			}
		}

		exitCode := runLogin(ctx, os.Stdout, creds)
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (or DRIVE_PASSWORD)")
}

// runLogin signs in and saves the session, returning the exit code
func runLogin(ctx context.Context, w io.Writer, creds tui.Credentials) int {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" || creds.Password == "" {
		fmt.Fprintln(w, "Error: username and password are required")
		return exitRejected
	}

	c, store, _, err := sessionClient()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	user, err := c.Login(ctx, identifier, creds.Password)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		if client.IsUnauthorized(err) {
			return exitFailed
		}
		return exitRejected
	}

	if err := saveSession(c, store, user.Username); err != nil {
		fmt.Fprintf(w, "Error: signed in but could not save the session: %v\n", err)
		return exitRejected
	}

	if IsJSONOutput() {
		writeJSON(w, user)
		return exitOK
	}
	fmt.Fprintf(w, "Signed in as %s (%s)\n", displayName(user.Name, user.Username), user.Username)
	return exitOK
}

// runLogout ends the session; the saved cookies are removed even when the
// web tier cannot be reached.
func runLogout(ctx context.Context, w io.Writer) int {
	c, store, saved, err := sessionClient()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}
	if saved == nil {
		fmt.Fprintln(w, "Not signed in")
		return exitOK
	}

	logoutErr := c.Logout(ctx)
	if err := store.Delete(c.BaseURL()); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}
	if logoutErr != nil && !errors.Is(logoutErr, client.ErrNotLoggedIn) {
		fmt.Fprintf(w, "Signed out locally; the web tier reported: %v\n", logoutErr)
		return exitOK
	}

	fmt.Fprintln(w, "Signed out")
	return exitOK
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}
