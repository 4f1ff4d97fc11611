package event

// PaymentSessionCreated is emitted once the challenge decision for a
// purchase has been persisted.
type PaymentSessionCreated struct {
	BaseEvent
	SessionID           string `json:"session_id"`
	AccountID           string `json:"account_id"`
	PaymentInstrumentID string `json:"piid"`
	ChallengeType       string `json:"challenge_type,omitempty"`
	ChallengeRequired   bool   `json:"challenge_required"`
	Status              string `json:"status"`
	HandlerVersion      string `json:"handler_version"`
}

// NewPaymentSessionCreated creates a new PaymentSessionCreated event.
func NewPaymentSessionCreated(
	sessionID string,
	accountID string,
	piid string,
	challengeType string,
	challengeRequired bool,
	status string,
	handlerVersion string,
) PaymentSessionCreated {
	return PaymentSessionCreated{
		BaseEvent:           newSessionEvent(EventTypePaymentSessionCreated, AggregateTypePaymentSession, sessionID),
		SessionID:           sessionID,
		AccountID:           accountID,
		PaymentInstrumentID: piid,
		ChallengeType:       challengeType,
		ChallengeRequired:   challengeRequired,
		Status:              status,
		HandlerVersion:      handlerVersion,
	}
}

// ChallengeResolved is emitted when a round settles the challenge status.
type ChallengeResolved struct {
	BaseEvent
	SessionID         string `json:"session_id"`
	Round             string `json:"round"`
	Status            string `json:"status"`
	TransStatus       string `json:"trans_status,omitempty"`
	TransStatusReason string `json:"trans_status_reason,omitempty"`
	IsSystemError     bool   `json:"is_system_error"`
}

// NewChallengeResolved creates a new ChallengeResolved event.
func NewChallengeResolved(
	sessionID string,
	round string,
	status string,
	transStatus string,
	reason string,
	isSystemError bool,
) ChallengeResolved {
	return ChallengeResolved{
		BaseEvent:         newSessionEvent(EventTypeChallengeResolved, AggregateTypePaymentSession, sessionID),
		SessionID:         sessionID,
		Round:             round,
		Status:            status,
		TransStatus:       transStatus,
		TransStatusReason: reason,
		IsSystemError:     isSystemError,
	}
}

// AttestationUpdated is emitted after the attestation service recorded the
// verification outcome of a purchase.
type AttestationUpdated struct {
	BaseEvent
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id"`
	Verified  bool   `json:"verified"`
}

// NewAttestationUpdated creates a new AttestationUpdated event.
func NewAttestationUpdated(sessionID, accountID string, verified bool) AttestationUpdated {
	return AttestationUpdated{
		BaseEvent: newSessionEvent(EventTypeAttestationUpdated, AggregateTypeAttestation, sessionID),
		SessionID: sessionID,
		AccountID: accountID,
		Verified:  verified,
	}
}
