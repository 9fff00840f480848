// ABOUTME: Whoami command for the drive CLI
// ABOUTME: Shows the signed-in profile and storage quota, optionally refreshed from the backend

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

var whoamiRefresh bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the signed-in user and storage quota.

With --refresh the web tier re-fetches the profile from the Drive backend and
renews the session; a revoked session is cleared.

Exit codes:
  0 - Signed in
  1 - Not signed in or session expired
  2 - Error (connectivity)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Re-fetch the profile from the Drive backend")
}

// runWhoami prints the current user and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	c, store, saved, err := sessionClient()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}
	if saved == nil {
		fmt.Fprintln(w, "Not signed in (run: drive login)")
		return exitFailed
	}

	info, err := c.Me(ctx, whoamiRefresh)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	if !info.Authenticated || info.User == nil {
		store.Delete(c.BaseURL())
		msg := "Session expired"
		if info.Error != "" {
			msg = info.Error
		}
		fmt.Fprintf(w, "%s (run: drive login)\n", msg)
		return exitFailed
	}

	if info.Refreshed {
		// the web tier renewed the cookie
		if err := saveSession(c, store, info.User.Username); err != nil {
			fmt.Fprintf(w, "Error: could not save the renewed session: %v\n", err)
		}
	}

	if IsJSONOutput() {
		writeJSON(w, info)
		return exitOK
	}
	fmt.Fprintln(w, formatWhoami(info))
	return exitOK
}

// formatWhoami formats the profile for human readability
func formatWhoami(info *models.UserInfoResponse) string {
	u := info.User
	role := u.Role
	if role == "" {
		role = "user"
	}

	out := fmt.Sprintf(`Name:      %s
Username:  %s
Email:     %s
Role:      %s
Storage:   %s of %s used (%.1f%%)`,
		displayName(u.Name, u.Username), u.Username, u.Email, role,
		humanize.IBytes(uint64(u.Storage.Used)), humanize.IBytes(uint64(u.Storage.Total)), u.Storage.Percent)

	if info.ExpiresAt > 0 {
		out += "\nSession:   expires " + humanize.Time(time.UnixMilli(info.ExpiresAt))
	}
	return out
}

func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
