package cmd

import (
	"github.com/spf13/cobra"

	"github.com/0xsj/overwatch-payments/internal/app/service"
)

var identityName string

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage the service signing identity",
}

var identityGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a service identity for signing published events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.WriteNewIdentity(cmd.OutOrStdout(), identityName)
	},
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityGenerateCmd)
	identityGenerateCmd.Flags().StringVar(&identityName, "name", "payments", "Service name embedded in the identity")
}
