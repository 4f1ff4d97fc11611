package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	boltstore "github.com/0xsj/overwatch-payments/internal/adapter/outbound/bbolt"
)

var (
	sessionDBPath string
	sessionPublic bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect sessions in a bbolt store",
}

var sessionGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Print a stored session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := boltstore.Open(sessionDBPath, &bbolt.Options{Timeout: 2 * time.Second})
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		stored, err := boltstore.NewSessionStore(db, 0).Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to read session %s: %w", args[0], err)
		}

		var out any = stored
		if sessionPublic {
			out = stored.Public()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionGetCmd)
	sessionCmd.PersistentFlags().StringVar(&sessionDBPath, "db", "payments.db", "Path to the bbolt session store")
	sessionGetCmd.Flags().BoolVar(&sessionPublic, "public", false, "Print only the caller-visible payment session")
}
