// Package commands implements the rangelockctl CLI commands.
package commands

import (
	"github.com/fileloom/rangelockd/internal/cli/output"
	"github.com/fileloom/rangelockd/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var outputFormat string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rangelockctl",
	Short: "Inspect and exercise the rangelock byte-range lock manager",
	Long: `rangelockctl drives an in-process byte-range lock manager through
scripted scenarios and prints the outcome of each step.

Use "rangelockctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			logger.SetLevel("DEBUG")
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(demoCmd)
}

func currentFormat() (output.Format, error) {
	return output.ParseFormat(outputFormat)
}
