package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the agentgate application
var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "Gmail and Calendar delegation service for autonomous agents",
	Long: `agentgate holds Google OAuth credentials on behalf of autonomous agents
and exposes Gmail, Calendar and secret storage operations over an HTTP API
and MCP (Model Context Protocol) tools.

Agents never see refresh tokens: credentials are encrypted at rest and
resolved per agent on every call, with expired access tokens refreshed
transparently.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "agentgate version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
