package mocks

import (
	"context"
	"sync"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// --- InstrumentService Mock ---

// InstrumentService is a mock implementation of gateway.InstrumentService.
// Instruments are keyed by piid and served to both lookups.
type InstrumentService struct {
	mu sync.Mutex

	Instruments map[string]*model.PaymentInstrument
	Validation  *model.ValidationResult

	// Linked records sessionID per piid passed to LinkSession.
	Linked map[string]string

	Calls struct {
		GetInstrument         int
		GetExtendedInstrument int
		ValidateInstrument    int
		LinkSession           int
	}

	Errors struct {
		GetInstrument         error
		GetExtendedInstrument error
		ValidateInstrument    error
		LinkSession           error
	}
}

// NewInstrumentService creates a mock that validates every instrument.
func NewInstrumentService(instruments ...*model.PaymentInstrument) *InstrumentService {
	m := &InstrumentService{
		Instruments: make(map[string]*model.PaymentInstrument),
		Validation:  &model.ValidationResult{Result: "Succeeded"},
		Linked:      make(map[string]string),
	}
	for _, pi := range instruments {
		m.Instruments[pi.ID] = pi
	}
	return m
}

func (m *InstrumentService) GetInstrument(ctx context.Context, accountID, piid string) (*model.PaymentInstrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.GetInstrument++

	if m.Errors.GetInstrument != nil {
		return nil, m.Errors.GetInstrument
	}
	return m.Instruments[piid], nil
}

func (m *InstrumentService) GetExtendedInstrument(ctx context.Context, piid string) (*model.PaymentInstrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.GetExtendedInstrument++

	if m.Errors.GetExtendedInstrument != nil {
		return nil, m.Errors.GetExtendedInstrument
	}
	return m.Instruments[piid], nil
}

func (m *InstrumentService) ValidateInstrument(ctx context.Context, req *model.ValidationRequest) (*model.ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.ValidateInstrument++

	if m.Errors.ValidateInstrument != nil {
		return nil, m.Errors.ValidateInstrument
	}
	return m.Validation, nil
}

func (m *InstrumentService) LinkSession(ctx context.Context, accountID, piid, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.LinkSession++

	if m.Errors.LinkSession != nil {
		return m.Errors.LinkSession
	}
	m.Linked[piid] = sessionID
	return nil
}

// --- AuthenticationService Mock ---

// AuthenticationService is a mock implementation of gateway.AuthenticationService.
// Each method returns its configured response; the last request is kept.
type AuthenticationService struct {
	mu sync.Mutex

	SessionID            string
	MethodData           *model.MethodData
	AuthResult           *model.AuthenticationResult
	ThreeDSOneResult     *model.ThreeDSOneAuthenticationResult
	Completion           *model.CompletionResult
	ThreeDSOneCompletion *model.CompletionResult

	LastAuthentication *model.AuthenticationRequest
	LastCompletion     *model.CompletionRequest

	Calls struct {
		CreateSessionID             int
		GetMethodURL                int
		Authenticate                int
		AuthenticateThreeDSOne      int
		CompleteChallenge           int
		CompleteThreeDSOneChallenge int
	}

	Errors struct {
		CreateSessionID             error
		GetMethodURL                error
		Authenticate                error
		AuthenticateThreeDSOne      error
		CompleteChallenge           error
		CompleteThreeDSOneChallenge error
	}
}

// NewAuthenticationService creates a mock that hands out protocolSessionID
// and has no method URL.
func NewAuthenticationService(protocolSessionID string) *AuthenticationService {
	return &AuthenticationService{
		SessionID:  protocolSessionID,
		MethodData: &model.MethodData{},
	}
}

func (m *AuthenticationService) CreateSessionID(ctx context.Context, data *model.PaymentSessionData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.CreateSessionID++

	if m.Errors.CreateSessionID != nil {
		return "", m.Errors.CreateSessionID
	}
	return m.SessionID, nil
}

func (m *AuthenticationService) GetMethodURL(ctx context.Context, sessionID string, browser *model.BrowserInfo) (*model.MethodData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.GetMethodURL++

	if m.Errors.GetMethodURL != nil {
		return nil, m.Errors.GetMethodURL
	}
	return m.MethodData, nil
}

func (m *AuthenticationService) Authenticate(ctx context.Context, req *model.AuthenticationRequest) (*model.AuthenticationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Authenticate++
	m.LastAuthentication = req

	if m.Errors.Authenticate != nil {
		return nil, m.Errors.Authenticate
	}
	return m.AuthResult, nil
}

func (m *AuthenticationService) AuthenticateThreeDSOne(ctx context.Context, req *model.AuthenticationRequest) (*model.ThreeDSOneAuthenticationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.AuthenticateThreeDSOne++
	m.LastAuthentication = req

	if m.Errors.AuthenticateThreeDSOne != nil {
		return nil, m.Errors.AuthenticateThreeDSOne
	}
	return m.ThreeDSOneResult, nil
}

func (m *AuthenticationService) CompleteChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.CompleteChallenge++
	m.LastCompletion = req

	if m.Errors.CompleteChallenge != nil {
		return nil, m.Errors.CompleteChallenge
	}
	return m.Completion, nil
}

func (m *AuthenticationService) CompleteThreeDSOneChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.CompleteThreeDSOneChallenge++
	m.LastCompletion = req

	if m.Errors.CompleteThreeDSOneChallenge != nil {
		return nil, m.Errors.CompleteThreeDSOneChallenge
	}
	return m.ThreeDSOneCompletion, nil
}

// --- AttestationService Mock ---

// Attestation is one recorded UpdateChallengeAttestation call.
type Attestation struct {
	AccountID string
	SessionID string
	Verified  bool
}

// AttestationService is a mock implementation of gateway.AttestationService.
type AttestationService struct {
	mu sync.Mutex

	attestations []Attestation

	Calls struct {
		UpdateChallengeAttestation int
	}

	Errors struct {
		UpdateChallengeAttestation error
	}
}

// NewAttestationService creates a new mock AttestationService.
func NewAttestationService() *AttestationService {
	return &AttestationService{}
}

func (m *AttestationService) UpdateChallengeAttestation(ctx context.Context, accountID, sessionID string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.UpdateChallengeAttestation++

	if m.Errors.UpdateChallengeAttestation != nil {
		return m.Errors.UpdateChallengeAttestation
	}
	m.attestations = append(m.attestations, Attestation{AccountID: accountID, SessionID: sessionID, Verified: verified})
	return nil
}

// Attestations returns the recorded calls in order.
func (m *AttestationService) Attestations() []Attestation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Attestation(nil), m.attestations...)
}
