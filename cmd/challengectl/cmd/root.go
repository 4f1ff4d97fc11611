package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "challengectl",
	Short: "challengectl inspects payment challenge sessions",
	Long: `Operator tools for the payments challenge service: dry-run status mapping
rules, verify ACS signed content, read sessions from a bbolt store and sign
payment sessions.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
