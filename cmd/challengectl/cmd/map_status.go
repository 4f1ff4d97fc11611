package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

var (
	mapTransStatus     string
	mapReason          string
	mapCancelIndicator string
	mapFlags           []string
	mapMOTO            bool
	mapThreeDSOne      bool
)

var mapStatusCmd = &cobra.Command{
	Use:   "map-status",
	Short: "Show the challenge status a protocol outcome maps to",
	Long: `Runs the status mapper over a transStatus with the given feature flags, so
mapping rules can be checked before they are rolled out.`,
}

var mapAuthenticationCmd = &cobra.Command{
	Use:   "authenticate",
	Short: "Map an authenticate transStatus",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.ParseTransactionStatus(mapTransStatus)
		var mapped model.ChallengeStatus
		if mapThreeDSOne {
			mapped = service.MapThreeDSOneAuthentication(status)
		} else {
			mapped = service.NewStatusMapper(model.NewFeatureSet(mapFlags...)).MapAuthentication(status, mapReason, mapMOTO)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), mapped.String())
		return err
	},
}

var mapCompletionCmd = &cobra.Command{
	Use:   "complete",
	Short: "Map a challenge completion result",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := &model.CompletionResult{
			TransStatus:              model.ParseTransactionStatus(mapTransStatus),
			TransStatusReason:        mapReason,
			ChallengeCancelIndicator: mapCancelIndicator,
		}

		var mapped model.ChallengeStatus
		if mapThreeDSOne {
			mapped = service.MapThreeDSOneCompletion(result, false)
		} else {
			mapper := service.NewStatusMapper(model.NewFeatureSet(mapFlags...))
			if rule, ok := mapper.MatchCompletion(result); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "matched rule -> %s\n", rule)
			}
			mapped = mapper.MapCompletion(result)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), mapped.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(mapStatusCmd)
	mapStatusCmd.AddCommand(mapAuthenticationCmd, mapCompletionCmd)

	mapStatusCmd.PersistentFlags().StringVar(&mapTransStatus, "trans-status", "", "Protocol transStatus (Y, N, U, A, C, R, FR, ...)")
	mapStatusCmd.PersistentFlags().StringVar(&mapReason, "reason", "", "transStatusReason")
	mapStatusCmd.PersistentFlags().StringSliceVar(&mapFlags, "flag", nil, "Feature flag to enable (repeatable)")
	mapStatusCmd.PersistentFlags().BoolVar(&mapThreeDSOne, "three-ds-one", false, "Use the 3DS1 mapping")
	_ = mapStatusCmd.MarkPersistentFlagRequired("trans-status")

	mapAuthenticationCmd.Flags().BoolVar(&mapMOTO, "moto", false, "Treat the purchase as MOTO")
	mapCompletionCmd.Flags().StringVar(&mapCancelIndicator, "cancel-indicator", "", "challengeCancel indicator")
}
