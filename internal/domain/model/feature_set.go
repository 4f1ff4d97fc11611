package model

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Feature flags read by the challenge orchestrator.
const (
	FlagPSD2ProdIntegration                      = "PXPSD2ProdIntegration"
	FlagEnableChallengesForMOTO                  = "PXEnableChallengesForMOTO"
	FlagIgnorePIAuthorizationPartners            = "PXPSD2IgnorePIAuthorizationPartners"
	FlagIndia3dsEnableForBilldesk                = "India3dsEnableForBilldesk"
	FlagEnableIndia3DS1Challenge                 = "PXEnableIndia3DS1Challenge"
	FlagPretendPIMSReturned3DS2                  = "PXPSD2PretendPIMSReturned3DS2"
	FlagSkipChallengeForZeroAmountIndiaAuth      = "PXSkipChallengeForZeroAmountIndiaAuth"
	FlagEnableLtsUpiQRConsumer                   = "EnableLtsUpiQRConsumer"
	FlagEnablePSD2ForGooglePay                   = "PXEnablePSD2ForGooglePay"
	FlagEnablePSD2ForGuestCheckoutFlow           = "PXEnablePSD2ForGuestCheckoutFlow"
	FlagSkipDuplicatePostProcessForMotoRewards   = "PXSkipDuplicatePostProcessForMotoAndRewards"
	FlagPSD2SettingVersionV25                    = "PXPSD2SettingVersionV25"
	FlagDisplayJCBChallenge                      = "PXDisplayJCBChallenge"
	FlagEnableValidatePIOnAttachChallenge        = "PXEnableValidatePIOnAttachChallenge"
	FlagStoredSessionForChallengeDescriptions    = "PXEnableGettingStoredSessionForChallengeDescriptionsController"
	FlagEnablePSD2PaymentInstrumentSession       = "PXEnablePSD2PaymentInstrumentSession"
	FlagSkipFingerprint                          = "PXPSD2SkipFingerprint"
	FlagReturnFailedSessionState                 = "PXReturnFailedSessionState"
	FlagAuthenticateChallengeTypeOnStoredSession = "PXAuthenticateChallengeTypeOnStoredSession"
	FlagEnforcePreferredChallengeIndicator       = "PXPSD2EnforcePreferredChallengeIndicator"
	FlagServiceSideCertificateValidation         = "PXEnablePSD2ServiceSideCertificateValidation"
	FlagUsePaymentSessionsHandlerV2              = "PXUsePaymentSessionsHandlerV2"
)

// Status mapping rule contexts.
const (
	MappingContextAuthentication = "PXPSD2Auth"
	MappingContextCompletion     = "PXPSD2Comp"
)

const (
	DefaultSettingVersion = 11
	MinimumTrustVersion   = 17
)

var settingVersionPattern = regexp.MustCompile(`(?i)^\s*PXPSD2SettingVersionV(\d{1,4})\s*$`)

// FeatureSet is an immutable, case-insensitive set of enabled feature flags.
// It is captured once per request and frozen into the stored session.
type FeatureSet struct {
	flags []string
}

// NewFeatureSet builds a FeatureSet, dropping blanks and duplicates while
// keeping first-seen order.
func NewFeatureSet(flags ...string) FeatureSet {
	out := make([]string, 0, len(flags))
	seen := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return FeatureSet{flags: out}
}

func (f FeatureSet) Has(flag string) bool {
	for _, enabled := range f.flags {
		if strings.EqualFold(enabled, flag) {
			return true
		}
	}
	return false
}

// Flags returns a copy of the enabled flags in order.
func (f FeatureSet) Flags() []string {
	out := make([]string, len(f.flags))
	copy(out, f.flags)
	return out
}

func (f FeatureSet) Len() int      { return len(f.flags) }
func (f FeatureSet) IsEmpty() bool { return len(f.flags) == 0 }

// With returns a new set containing the receiver's flags plus extra.
func (f FeatureSet) With(extra ...string) FeatureSet {
	return NewFeatureSet(append(f.Flags(), extra...)...)
}

// SettingVersion returns the highest PXPSD2SettingVersionV{n} flag, or the
// default version when none is enabled.
func (f FeatureSet) SettingVersion() int {
	version := -1
	for _, flag := range f.flags {
		m := settingVersionPattern.FindStringSubmatch(flag)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > version {
			version = n
		}
	}
	if version < 0 {
		return DefaultSettingVersion
	}
	return version
}

// TrustVersion is the certificate configuration version, never older than
// the minimum supported one.
func (f FeatureSet) TrustVersion() string {
	v := f.SettingVersion()
	if v <= MinimumTrustVersion {
		v = MinimumTrustVersion
	}
	return "V" + strconv.Itoa(v)
}

func (f FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Flags())
}

func (f *FeatureSet) UnmarshalJSON(data []byte) error {
	var flags []string
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	*f = NewFeatureSet(flags...)
	return nil
}

type featuresKey struct{}

// ContextWithFeatures attaches the flags the caller sent with the request.
func ContextWithFeatures(ctx context.Context, f FeatureSet) context.Context {
	return context.WithValue(ctx, featuresKey{}, f)
}

// FeaturesFromContext returns the request flags, or an empty set.
func FeaturesFromContext(ctx context.Context) FeatureSet {
	f, _ := ctx.Value(featuresKey{}).(FeatureSet)
	return f
}
