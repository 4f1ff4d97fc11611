package model

import (
	"github.com/0xsj/overwatch-pkg/types"
)

// StoredSession is the durable state of a challenge session. It is created
// once when the challenge decision is made and rewritten after every round.
// Rounds receive it as an explicit value; nothing caches it between calls.
type StoredSession struct {
	PaymentSession

	AccountID           string `json:"accountId,omitempty"`
	PIAccountID         string `json:"piAccountId,omitempty"`
	CommercialAccountID string `json:"commercialAccountId,omitempty"`
	EmailAddress        string `json:"emailAddress,omitempty"`

	// Purchase context captured at creation.
	Country                  string            `json:"country,omitempty"`
	Currency                 string            `json:"currency,omitempty"`
	Amount                   float64           `json:"amount"`
	Partner                  string            `json:"partner,omitempty"`
	DeviceChannel            DeviceChannel     `json:"deviceChannel,omitempty"`
	PaymentMethodFamily      string            `json:"paymentMethodFamily,omitempty"`
	PaymentMethodType        string            `json:"paymentMethodType,omitempty"`
	ChallengeScenario        ChallengeScenario `json:"challengeScenario,omitempty"`
	ChallengeWindowSize      string            `json:"challengeWindowSize,omitempty"`
	PurchaseOrderID          string            `json:"purchaseOrderId,omitempty"`
	IsMOTO                   bool              `json:"isMOTO"`
	HasPreOrder              bool              `json:"hasPreOrder"`
	RedeemRewards            bool              `json:"redeemRewards"`
	IsGuestCheckout          bool              `json:"isGuestCheckout"`
	PIRequiresAuthentication bool              `json:"piRequiresAuthentication"`
	TestScenarios            []string          `json:"testScenarios,omitempty"`

	// Features is frozen at creation; later rounds read it instead of the
	// flags on the live request.
	Features FeatureSet `json:"features"`

	// Protocol state.
	ProtocolSessionID      string                `json:"protocolSessionId,omitempty"`
	BrowserInfo            *BrowserInfo          `json:"browserInfo,omitempty"`
	MethodData             *MethodData           `json:"methodData,omitempty"`
	AuthenticationResponse *AuthenticationResult `json:"authenticationResponse,omitempty"`
	TransStatus            TransactionStatus     `json:"transStatus,omitempty"`
	TransStatusReason      string                `json:"transStatusReason,omitempty"`

	// PaaS integration path.
	RequestID string `json:"requestId,omitempty"`
	TenantID  string `json:"tenantId,omitempty"`

	IsSystemError  bool            `json:"isSystemError"`
	HandlerVersion HandlerVersion  `json:"handlerVersion,omitempty"`
	CreatedAt      types.Timestamp `json:"createdAt"`
	UpdatedAt      types.Timestamp `json:"updatedAt"`
}

// NewStoredSession builds the durable record for a session that has just
// been assigned a protocol session id.
func NewStoredSession(
	session *PaymentSession,
	data *PaymentSessionData,
	pi *PaymentInstrument,
	features FeatureSet,
) *StoredSession {
	now := types.Now()
	stored := &StoredSession{
		PaymentSession:      *session,
		AccountID:           data.AccountID,
		EmailAddress:        data.EmailAddress,
		Country:             data.Country,
		Currency:            data.Currency,
		Amount:              data.Amount,
		Partner:             data.Partner,
		DeviceChannel:       data.DeviceChannel,
		ChallengeScenario:   data.ChallengeScenario,
		ChallengeWindowSize: data.ChallengeWindowSize,
		PurchaseOrderID:     data.PurchaseOrderID,
		IsMOTO:              data.IsMOTO,
		HasPreOrder:         data.HasPreOrder,
		RedeemRewards:       data.RedeemRewards,
		TestScenarios:       append([]string(nil), data.TestScenarios...),
		Features:            features,
		ProtocolSessionID:   session.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if pi != nil {
		stored.PIAccountID = pi.AccountID
		stored.PaymentMethodFamily = pi.Family
		stored.PaymentMethodType = pi.Type
	}
	if data.RequestContext != nil {
		stored.RequestID = data.RequestContext.RequestID
		stored.TenantID = data.RequestContext.TenantID
	}
	return stored
}

// Queries

// IsPaaS reports whether the session belongs to the request-owned integration path.
func (s *StoredSession) IsPaaS() bool {
	return s.RequestID != ""
}

// ResolveAccountID picks the first known account in precedence order.
func (s *StoredSession) ResolveAccountID() string {
	for _, id := range []string{s.AccountID, s.PIAccountID, s.BillableAccountID, s.CommercialAccountID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// IsEmulatorScenario reports whether certificate chains may be skipped.
func (s *StoredSession) IsEmulatorScenario() bool {
	for _, sc := range s.TestScenarios {
		if sc == TestScenarioPSD2Emulator {
			return true
		}
	}
	return false
}

func (s *StoredSession) IsIndiaRupee() bool {
	d := PaymentSessionData{Country: s.Country, Currency: s.Currency}
	return d.IsIndia() && d.IsRupee()
}

// Commands

// SetStatus records a resolved challenge status.
func (s *StoredSession) SetStatus(status ChallengeStatus) {
	s.Status = status
	s.touch()
}

// RecordTransaction stores the raw protocol outcome of a round.
func (s *StoredSession) RecordTransaction(status TransactionStatus, reason string) {
	s.TransStatus = status
	s.TransStatusReason = reason
	s.touch()
}

// MarkSystemError flags that a dependency failed during a round.
func (s *StoredSession) MarkSystemError() {
	s.IsSystemError = true
	s.touch()
}

func (s *StoredSession) touch() {
	s.UpdatedAt = types.Now()
}

// Public returns the caller-facing view. The signature is carried over, so
// callers that mutate the returned value must re-sign it.
func (s *StoredSession) Public() *PaymentSession {
	return s.PaymentSession.Clone()
}
