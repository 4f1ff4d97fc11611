package model

import "strings"

// Payment method families and types the orchestrator distinguishes.
const (
	PaymentMethodFamilyCreditCard      = "credit_card"
	PaymentMethodFamilyEWallet         = "ewallet"
	PaymentMethodFamilyRealTimePayment = "real_time_payments"
	PaymentMethodFamilyNetBanking      = "netbanking"

	PaymentMethodTypeAmex           = "amex"
	PaymentMethodTypeJCB            = "jcb"
	PaymentMethodTypeGooglePay      = "googlepay"
	PaymentMethodTypeApplePay       = "applepay"
	PaymentMethodTypeUPI            = "upi"
	PaymentMethodTypeUPIQr          = "upi_qr"
	PaymentMethodTypeLegacyBillDesk = "legacy_billdesk_payment"
)

// Required challenge markers reported by the instrument service.
const (
	RequiredChallenge3DS  = "3ds"
	RequiredChallenge3DS2 = "3ds2"
)

// Instrument usage types.
const (
	UsageTypeInline = "inline"
)

// PaymentInstrument is the subset of instrument details the challenge
// decision depends on.
type PaymentInstrument struct {
	ID                     string   `json:"id"`
	AccountID              string   `json:"accountId"`
	Family                 string   `json:"paymentMethodFamily"`
	Type                   string   `json:"paymentMethodType"`
	RequiredChallenge      []string `json:"requiredChallenge,omitempty"`
	WalletType             string   `json:"walletType,omitempty"`
	IsTokenCollected       bool     `json:"isTokenCollected,omitempty"`
	UsageType              string   `json:"usageType,omitempty"`
	LinkedPaymentSessionID string   `json:"linkedPaymentSessionId,omitempty"`
}

func (pi *PaymentInstrument) IsCreditCard() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyCreditCard)
}

func (pi *PaymentInstrument) IsAmex() bool {
	return pi.IsCreditCard() && strings.EqualFold(pi.Type, PaymentMethodTypeAmex)
}

func (pi *PaymentInstrument) IsJCB() bool {
	return pi.IsCreditCard() && strings.EqualFold(pi.Type, PaymentMethodTypeJCB)
}

func (pi *PaymentInstrument) IsGooglePay() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyEWallet) && strings.EqualFold(pi.Type, PaymentMethodTypeGooglePay)
}

func (pi *PaymentInstrument) IsApplePay() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyEWallet) && strings.EqualFold(pi.Type, PaymentMethodTypeApplePay)
}

func (pi *PaymentInstrument) IsUPI() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyRealTimePayment) && strings.EqualFold(pi.Type, PaymentMethodTypeUPI)
}

func (pi *PaymentInstrument) IsUPIQr() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyRealTimePayment) && strings.EqualFold(pi.Type, PaymentMethodTypeUPIQr)
}

func (pi *PaymentInstrument) IsLegacyBillDesk() bool {
	return strings.EqualFold(pi.Family, PaymentMethodFamilyNetBanking) && strings.EqualFold(pi.Type, PaymentMethodTypeLegacyBillDesk)
}

// IsInlineUsage reports whether the instrument was collected for a single
// purchase rather than saved to the account.
func (pi *PaymentInstrument) IsInlineUsage() bool {
	return strings.EqualFold(pi.UsageType, UsageTypeInline)
}

// Requires reports whether the instrument service listed the given challenge.
func (pi *PaymentInstrument) Requires(challenge string) bool {
	for _, c := range pi.RequiredChallenge {
		if strings.EqualFold(c, challenge) {
			return true
		}
	}
	return false
}

// PaymentMethodType is the key used to look up directory server trust roots.
func (pi *PaymentInstrument) PaymentMethodType() string {
	return strings.ToLower(pi.Type)
}

// PaymentInstrumentSession records the latest challenge session for an
// instrument so that downstream flows can find it without the session id.
type PaymentInstrumentSession struct {
	PaymentInstrumentID string   `json:"paymentInstrumentId"`
	SessionID           string   `json:"sessionId"`
	AccountID           string   `json:"accountId"`
	RequiredChallenge   []string `json:"requiredChallenge,omitempty"`
}

// PaymentInstrumentSessionKey is the store key for an instrument's session record.
func PaymentInstrumentSessionKey(piid string) string {
	return "pi_session_" + piid
}

// ValidationRequest asks the instrument service to run a zero-value
// authorization bound to a challenge session.
type ValidationRequest struct {
	AccountID           string `json:"accountId"`
	PaymentInstrumentID string `json:"piid"`
	SessionID           string `json:"sessionId"`
	EmailAddress        string `json:"email,omitempty"`
}

// ValidationResult is the instrument service's answer to a validate call.
type ValidationResult struct {
	Result string `json:"result"`
}

const ValidationResultFailed = "Failed"

func (r ValidationResult) IsFailed() bool {
	return strings.EqualFold(r.Result, ValidationResultFailed)
}
