// ABOUTME: Root command for the drive CLI
// ABOUTME: Handles global flags, the debug log and the saved session

package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/client"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/credentials"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/debuglog"
)

var (
	apiURL     string
	jsonOutput bool
)

const defaultAPIURL = "http://localhost:8080"

// Exit codes shared by the commands
const (
	exitOK       = 0
	exitFailed   = 1
	exitRejected = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "drive",
	Short: "CLI for Drive Ogan Ilir",
	Long: `drive is a command-line client for the Drive Ogan Ilir web tier.

It signs in with your Drive account, keeps the session cookie in your config
directory and uploads files or whole folders with live progress.

Environment Variables:
  DRIVE_WEB_URL     Web tier URL (default: http://localhost:8080)
  DRIVE_DEBUG       Write a debug log to the config directory when set to 1
  DRIVE_NERD_FONTS  Force Nerd Font icons on (1) or off (0)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := debuglog.Init(credentials.DefaultConfigDir(), debuglog.Enabled())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debuglog.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Web tier URL (overrides DRIVE_WEB_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("DRIVE_WEB_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// isInteractive reports whether the panel and prompts can be shown
func isInteractive() bool {
	return !jsonOutput && isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// sessionClient builds a client for the configured URL with the saved
// cookies restored.
func sessionClient() (*client.Client, *credentials.Store, *credentials.Session, error) {
	c, err := client.New(GetAPIURL())
	if err != nil {
		return nil, nil, nil, err
	}

	store := credentials.New(credentials.DefaultConfigDir())
	saved, err := store.Load(c.BaseURL())
	if err != nil {
		return nil, nil, nil, err
	}
	if saved != nil {
		c.SetCookies(saved.HTTPCookies())
	}
	return c, store, saved, nil
}

// saveSession persists the cookies the client currently holds
func saveSession(c *client.Client, store *credentials.Store, username string) error {
	return store.Save(credentials.FromHTTP(c.BaseURL(), username, c.Cookies()))
}
