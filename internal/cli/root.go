package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	flagAPIURL string
	flagJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "wallshare",
	Short: "Command-line client for the wallshare platform",
	Long: `wallshare is a command-line client for the wallshare wallpaper-sharing
platform.

Configuration comes from the environment (or a .env file):
  WALLSHARE_API_BASE_URL     Backend base URL (default: the local stub)
  WALLSHARE_SESSION_BACKEND  Credential store: file, memory or redis
  WALLSHARE_SESSION_FILE     Session file path for the file backend`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend base URL (overrides WALLSHARE_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output JSON instead of human-readable text")
}

// printJSON writes v indented when --json is set and reports whether it did.
func printJSON(w io.Writer, v any) bool {
	if !flagJSON {
		return false
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false
	}
	fmt.Fprintln(w, string(data))
	return true
}
