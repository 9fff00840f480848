// ABOUTME: Health command for the drive CLI
// ABOUTME: Checks web tier connectivity and the Drive backend status it reports

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check web tier connectivity",
	Long: `Check connectivity to the Drive Ogan Ilir web tier and the Drive backend behind it.

Exit codes:
  0 - Web tier reachable (backend status is reported, not enforced)
  2 - Web tier unreachable`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	c, err := client.New(GetAPIURL())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(c.BaseURL(), resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(c.BaseURL(), resp))
	}

	return exitOK
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *models.HealthResponse) string {
	return fmt.Sprintf(`Web tier:     %s
Status:       %s
Drive API:    %s
SOCKS5 proxy: %t
Checked at:   %s`, url, resp.Status, resp.DriveAPI, resp.ProxyEnabled, resp.Timestamp)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *models.HealthResponse) string {
	output := map[string]any{
		"web_tier":      url,
		"status":        resp.Status,
		"drive_api":     resp.DriveAPI,
		"proxy_enabled": resp.ProxyEnabled,
		"timestamp":     resp.Timestamp,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
