package model

import (
	"strings"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
)

// Markets and currencies with dedicated challenge rules.
const (
	CountryIndia = "in"
	CurrencyINR  = "inr"

	PartnerWebblends = "webblends"
)

// Environments where PSD2 always runs regardless of partner settings.
const (
	EnvironmentIntegration = "int"
	EnvironmentOnebox      = "onebox"
)

// Test scenario headers understood by the orchestrator.
const (
	TestScenarioPSD2Prefix   = "px-psd2"
	TestScenarioPSD2E2E      = "px-psd2-e2e"
	TestScenarioThreeDSOne   = "px-psd2-3ds1"
	TestScenarioPSD2Emulator = "px-psd2-emulator"
)

// PartnerSettings carries the per-partner switches the caller resolved
// before invoking the orchestrator.
type PartnerSettings struct {
	PSD2Enabled                bool `json:"psd2Enabled"`
	India3DS1EnableForBilldesk bool `json:"india3ds1EnableForBilldesk"`
	EnableIndia3DS1Challenge   bool `json:"enableIndia3ds1Challenge"`
	IndiaCommercialPartner     bool `json:"indiaCommercialPartner"`
	ValidatePIOnAttach         bool `json:"validatePIOnAttach"`
	IgnorePIAuthorization      bool `json:"ignorePIAuthorization"`
	LegacyBillDesk             bool `json:"legacyBillDesk"`
}

// RequestContext identifies the alternate integration path where the payment
// request, not the account, owns the session.
type RequestContext struct {
	RequestID string `json:"requestId"`
	TenantID  string `json:"tenantId"`
}

// PaymentSessionData is the caller's description of a purchase that may need
// a payment challenge.
type PaymentSessionData struct {
	PaymentInstrumentID string            `json:"piid"`
	AccountID           string            `json:"accountId"`
	Language            string            `json:"language"`
	Amount              float64           `json:"amount"`
	Currency            string            `json:"currency"`
	Country             string            `json:"country"`
	Partner             string            `json:"partner"`
	ChallengeScenario   ChallengeScenario `json:"challengeScenario"`
	ChallengeWindowSize string            `json:"challengeWindowSize"`
	DeviceChannel       DeviceChannel     `json:"deviceChannel"`
	HasPreOrder         bool              `json:"hasPreOrder"`
	IsMOTO              bool              `json:"isMOTO"`
	IsMotoAuthorized    string            `json:"isMotoAuthorized,omitempty"`
	PurchaseOrderID     string            `json:"purchaseOrderId,omitempty"`
	RedeemRewards       bool              `json:"redeemRewards"`
	BillableAccountID   string            `json:"billableAccountId,omitempty"`
	ClassicProduct      string            `json:"classicProduct,omitempty"`
	EmailAddress        string            `json:"emailAddress,omitempty"`
	UserID              string            `json:"userId,omitempty"`
	IsGuestUser         bool              `json:"isGuestUser"`
	SuccessURL          string            `json:"successUrl,omitempty"`
	FailureURL          string            `json:"failureUrl,omitempty"`
	Settings            PartnerSettings   `json:"settings"`
	RequestContext      *RequestContext   `json:"requestContext,omitempty"`
	Environment         string            `json:"environment,omitempty"`
	TestScenarios       []string          `json:"testScenarios,omitempty"`
	SettingsVersion     string            `json:"settingsVersion,omitempty"`
	SettingsTryCount    int               `json:"settingsVersionTryCount,omitempty"`
}

// Validate checks the fields every create call needs.
func (d *PaymentSessionData) Validate() error {
	if strings.TrimSpace(d.PaymentInstrumentID) == "" {
		return domainerror.ErrPaymentInstrumentIDRequired
	}
	if d.RequestContext == nil && strings.TrimSpace(d.AccountID) == "" {
		return domainerror.ErrAccountIDRequired
	}
	return nil
}

func (d *PaymentSessionData) IsIndia() bool {
	return strings.EqualFold(d.Country, CountryIndia)
}

func (d *PaymentSessionData) IsRupee() bool {
	return strings.EqualFold(d.Currency, CurrencyINR)
}

func (d *PaymentSessionData) IsZeroAmount() bool {
	return d.Amount == 0
}

// IsMotoAuthorizedCaller reports whether the caller vouched for MOTO use.
func (d *PaymentSessionData) IsMotoAuthorizedCaller() bool {
	return strings.EqualFold(strings.TrimSpace(d.IsMotoAuthorized), "true")
}

func (d *PaymentSessionData) HasTestScenario(name string) bool {
	for _, s := range d.TestScenarios {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// HasPSD2TestScenario reports whether any px-psd2 scenario is active.
func (d *PaymentSessionData) HasPSD2TestScenario() bool {
	for _, s := range d.TestScenarios {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), TestScenarioPSD2Prefix) {
			return true
		}
	}
	return false
}

// IsPSD2ForcedEnvironment reports environments where PSD2 runs regardless of
// partner settings.
func (d *PaymentSessionData) IsPSD2ForcedEnvironment() bool {
	return strings.EqualFold(d.Environment, EnvironmentIntegration) ||
		strings.EqualFold(d.Environment, EnvironmentOnebox)
}

// ValidateSettingsVersion rejects a first attempt made against stale
// partner settings so the caller can reload and retry.
func (d *PaymentSessionData) ValidateSettingsVersion(target string) error {
	if target == "" || d.SettingsVersion == "" {
		return nil
	}
	if !strings.EqualFold(target, d.SettingsVersion) && d.SettingsTryCount == 1 {
		return domainerror.ErrSettingsVersionMismatch.
			WithExpectedActual(target, d.SettingsVersion)
	}
	return nil
}
