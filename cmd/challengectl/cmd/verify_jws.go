package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

var (
	jwsFile         string
	jwsTrustDir     string
	jwsTrustVersion string
	jwsCardType     string
	jwsSkipChain    bool
)

var verifyJWSCmd = &cobra.Command{
	Use:   "verify-jws",
	Short: "Verify ACS signed content against a trust file",
	Long: `Checks a compact JWS the way the authenticate round does: the x5c chain must
lead to a directory server root for the card type in the given trust version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(jwsFile)
		if err != nil {
			return fmt.Errorf("failed to read signed content: %w", err)
		}

		path := filepath.Join(jwsTrustDir, jwsTrustVersion, service.TrustConfigFile)
		roots, err := service.LoadTrustRoots(path)
		if err != nil {
			return err
		}
		pool, ok := roots[strings.ToLower(jwsCardType)]
		if !ok {
			return fmt.Errorf("no directory server info for %q in %s", jwsCardType, path)
		}

		if err := service.VerifySignedContent(strings.TrimSpace(string(data)), pool, jwsSkipChain); err != nil {
			return fmt.Errorf("signed content rejected: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "signed content verified")
		return err
	},
}

func init() {
	rootCmd.AddCommand(verifyJWSCmd)
	verifyJWSCmd.Flags().StringVarP(&jwsFile, "file", "f", "", "File holding the compact JWS")
	verifyJWSCmd.Flags().StringVar(&jwsTrustDir, "trust-dir", "./trust", "Directory of versioned trust files")
	verifyJWSCmd.Flags().StringVar(&jwsTrustVersion, "trust-version", model.NewFeatureSet().TrustVersion(), "Trust version directory")
	verifyJWSCmd.Flags().StringVar(&jwsCardType, "card-type", "", "Payment method type (visa, mc, amex, ...)")
	verifyJWSCmd.Flags().BoolVar(&jwsSkipChain, "skip-chain", false, "Only check the signature, as emulator sessions do")
	_ = verifyJWSCmd.MarkFlagRequired("file")
	_ = verifyJWSCmd.MarkFlagRequired("card-type")
}
