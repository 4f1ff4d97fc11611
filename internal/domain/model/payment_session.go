package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
)

// SessionSigner produces and checks the tamper-evident signature carried by
// every payment session handed to a caller.
type SessionSigner interface {
	Sign(payload []byte) (string, error)
	Verify(payload []byte, signature string) error
}

// PaymentSession is the caller-facing view of a challenge session.
type PaymentSession struct {
	ID                  string          `json:"id"`
	Status              ChallengeStatus `json:"challengeStatus"`
	ChallengeType       ChallengeType   `json:"challengeType,omitempty"`
	IsChallengeRequired bool            `json:"isChallengeRequired"`
	PaymentInstrumentID string          `json:"piid"`
	Signature           string          `json:"signature"`
	Language            string          `json:"language,omitempty"`
	BillableAccountID   string          `json:"billableAccountId,omitempty"`
	ClassicProduct      string          `json:"classicProduct,omitempty"`
	SuccessURL          string          `json:"successUrl,omitempty"`
	FailureURL          string          `json:"failureUrl,omitempty"`
	UserDisplayMessage  string          `json:"userDisplayMessage,omitempty"`
	IsTokenCollected    bool            `json:"isTokenCollected,omitempty"`
}

// NewSessionID allocates a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewPaymentSession starts a session for the given purchase with the
// permissive defaults: no challenge, not applicable.
func NewPaymentSession(data *PaymentSessionData) *PaymentSession {
	return &PaymentSession{
		ID:                  NewSessionID(),
		Status:              ChallengeStatusNotApplicable,
		IsChallengeRequired: false,
		PaymentInstrumentID: data.PaymentInstrumentID,
		Language:            data.Language,
		BillableAccountID:   data.BillableAccountID,
		ClassicProduct:      data.ClassicProduct,
		SuccessURL:          data.SuccessURL,
		FailureURL:          data.FailureURL,
	}
}

// signingPayload is the canonical byte form of the signed fields.
func (s *PaymentSession) signingPayload() []byte {
	var b strings.Builder
	b.WriteString(s.ID)
	b.WriteByte('|')
	b.WriteString(string(s.Status))
	b.WriteByte('|')
	b.WriteString(string(s.ChallengeType))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(s.IsChallengeRequired))
	b.WriteByte('|')
	b.WriteString(s.PaymentInstrumentID)
	return []byte(b.String())
}

// Sign recomputes the signature over the current signed fields.
func (s *PaymentSession) Sign(signer SessionSigner) error {
	sig, err := signer.Sign(s.signingPayload())
	if err != nil {
		return domainerror.ErrSessionSigningFailed.WithCause(err)
	}
	s.Signature = sig
	return nil
}

// VerifySignature fails when any signed field changed after the last Sign.
func (s *PaymentSession) VerifySignature(signer SessionSigner) error {
	if s.Signature == "" {
		return domainerror.ErrSessionSignatureInvalid
	}
	if err := signer.Verify(s.signingPayload(), s.Signature); err != nil {
		return domainerror.ErrSessionSignatureInvalid.WithCause(err)
	}
	return nil
}

func (s *PaymentSession) IsVerified() bool {
	return s.Status.IsAuthenticationVerified()
}

// Clone returns a shallow copy safe to mutate independently.
func (s *PaymentSession) Clone() *PaymentSession {
	cp := *s
	return &cp
}
