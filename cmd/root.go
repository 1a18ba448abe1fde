package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the servar application
var rootCmd = &cobra.Command{
	Use:   "servar",
	Short: "MCP server for Gmail, Google Drive and Google Classroom",
	Long: `servar exposes Gmail, Google Drive and Google Classroom as Model Context
Protocol tools for AI assistants.

Each Google service is authorized separately. The first call to a service
opens the Google consent page in a browser and stores the resulting token
file; later runs reuse and refresh it. Run "servar auth" to authorize ahead
of time.`,
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
	rootCmd.SetVersionTemplate(`{{printf "servar version %s\n" .Version}}`)

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
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
