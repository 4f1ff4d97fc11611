package model

import "strings"

// ChallengeStatus is the orchestrator's view of a payment challenge outcome.
type ChallengeStatus string

const (
	ChallengeStatusUnknown             ChallengeStatus = "Unknown"
	ChallengeStatusNotApplicable       ChallengeStatus = "NotApplicable"
	ChallengeStatusSucceeded           ChallengeStatus = "Succeeded"
	ChallengeStatusFailed              ChallengeStatus = "Failed"
	ChallengeStatusByPassed            ChallengeStatus = "ByPassed"
	ChallengeStatusCancelled           ChallengeStatus = "Cancelled"
	ChallengeStatusTimedOut            ChallengeStatus = "TimedOut"
	ChallengeStatusInternalServerError ChallengeStatus = "InternalServerError"
)

var challengeStatuses = []ChallengeStatus{
	ChallengeStatusUnknown,
	ChallengeStatusNotApplicable,
	ChallengeStatusSucceeded,
	ChallengeStatusFailed,
	ChallengeStatusByPassed,
	ChallengeStatusCancelled,
	ChallengeStatusTimedOut,
	ChallengeStatusInternalServerError,
}

func (s ChallengeStatus) String() string {
	return string(s)
}

func (s ChallengeStatus) IsValid() bool {
	for _, known := range challengeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsAuthenticationVerified reports whether the purchase may proceed without
// further cardholder interaction.
func (s ChallengeStatus) IsAuthenticationVerified() bool {
	switch s {
	case ChallengeStatusSucceeded, ChallengeStatusByPassed, ChallengeStatusNotApplicable:
		return true
	default:
		return false
	}
}

// ParseChallengeStatus matches a status name case-insensitively.
func ParseChallengeStatus(s string) (ChallengeStatus, bool) {
	s = strings.TrimSpace(s)
	for _, known := range challengeStatuses {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// ChallengeStatuses returns every known status in declaration order.
func ChallengeStatuses() []ChallengeStatus {
	out := make([]ChallengeStatus, len(challengeStatuses))
	copy(out, challengeStatuses)
	return out
}

// ChallengeType tags the kind of interactive challenge a session needs.
type ChallengeType string

const (
	ChallengeTypeNone                  ChallengeType = ""
	ChallengeTypePSD2                  ChallengeType = "PSD2Challenge"
	ChallengeTypeUPI                   ChallengeType = "UPIChallenge"
	ChallengeTypeIndia3DS              ChallengeType = "India3DSChallenge"
	ChallengeTypeValidatePIOnAttach    ChallengeType = "ValidatePIOnAttachChallenge"
	ChallengeTypeLegacyBillDeskPayment ChallengeType = "LegacyBillDeskPaymentChallenge"
)

func (t ChallengeType) String() string {
	return string(t)
}

// ChallengeScenario describes why the purchase is being authenticated.
type ChallengeScenario string

const (
	ChallengeScenarioPaymentTransaction   ChallengeScenario = "PaymentTransaction"
	ChallengeScenarioRecurringTransaction ChallengeScenario = "RecurringTransaction"
	ChallengeScenarioAddCard              ChallengeScenario = "AddCard"
)

// DeviceChannel is the 3DS device channel of the purchase.
type DeviceChannel string

const (
	DeviceChannelBrowser DeviceChannel = "Browser"
	DeviceChannelApp     DeviceChannel = "App"
)

// HandlerVersion tags which orchestrator implementation owns a session.
type HandlerVersion string

const (
	HandlerVersionV1 HandlerVersion = "V1"
	HandlerVersionV2 HandlerVersion = "V2"
)

func (v HandlerVersion) IsValid() bool {
	return v == HandlerVersionV1 || v == HandlerVersionV2
}
