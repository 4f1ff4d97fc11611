// Package orchestrator drives the payment challenge protocol: it decides
// whether a purchase must be step-up authenticated, runs the fingerprint,
// authenticate and completion rounds against the authentication service,
// and keeps the stored session and attestation in step with the outcome.
//
// Every dependency failure falls back to a permissive outcome so that a
// degraded authentication stack never blocks checkout.
package orchestrator

import (
	"context"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

// ChallengeOrchestrator runs the challenge rounds of a payment session.
type ChallengeOrchestrator interface {
	// Version tags sessions created by this orchestrator.
	Version() model.HandlerVersion

	// CreatePaymentSession decides whether the purchase needs a challenge and
	// persists the session. Only validation errors and excluded service
	// errors are returned; every other failure yields the safety-net session.
	CreatePaymentSession(ctx context.Context, data *model.PaymentSessionData, features model.FeatureSet) (*model.PaymentSession, error)

	// HandlePaymentChallenge starts the challenge the session was created with.
	HandlePaymentChallenge(ctx context.Context, accountID string, browser *model.BrowserInfo, session *model.PaymentSession) (*model.BrowserFlowContext, error)

	// GetThreeDSMethodURL runs the browser fingerprint round.
	GetThreeDSMethodURL(ctx context.Context, accountID string, browser *model.BrowserInfo, session *model.PaymentSession) (*model.BrowserFlowContext, error)

	// AuthenticateBrowser runs the browser authenticate round after the 3DS
	// method form was posted.
	AuthenticateBrowser(ctx context.Context, sessionID string, methodCompleted bool) (*model.BrowserFlowContext, error)

	// AuthenticateApp runs the app SDK authenticate round.
	AuthenticateApp(ctx context.Context, accountID, sessionID string, req *model.AppAuthenticationRequest) (*model.AuthenticationResponse, error)

	// AuthenticateThreeDSOne starts a 3DS1 redirect challenge.
	AuthenticateThreeDSOne(ctx context.Context, sessionID string) (*model.ThreeDSOneChallenge, error)

	// CompleteChallenge fetches and records the final result of a 3DS2 challenge.
	CompleteChallenge(ctx context.Context, accountID, sessionID string) (*model.PaymentSession, error)

	// CompleteThreeDSOneChallenge records the final result of a 3DS1 challenge.
	CompleteThreeDSOneChallenge(ctx context.Context, accountID, sessionID string, params map[string]string) (*model.PaymentSession, error)

	// TryGetPaymentSession returns the signed public view of a stored
	// session, or nil when it cannot be read.
	TryGetPaymentSession(ctx context.Context, sessionID string) (*model.PaymentSession, error)

	// GetChallengeRedirectURI builds the success or failure redirect for a session.
	GetChallengeRedirectURI(ctx context.Context, sessionID string) (string, error)
}

// Round names used in logs and events.
const (
	RoundCreate           = "create"
	RoundFingerprint      = "fingerprint"
	RoundAuthenticate     = "authenticate"
	RoundAuthenticateApp  = "authenticate_app"
	RoundAuthenticate3DS1 = "authenticate_3ds1"
	RoundComplete         = "complete"
	RoundComplete3DS1     = "complete_3ds1"
	RoundValidatePI       = "validate_pi"
)

// Config holds orchestrator settings.
type Config struct {
	// NotificationBaseURL is the public base the ACS and 3DS method forms
	// post back to.
	NotificationBaseURL string

	// CacheTTL bounds how long a stored session stays in the cache.
	CacheTTL time.Duration

	// CreateAttempts and CreateBackoff control persistence retries of a
	// newly created session.
	CreateAttempts int
	CreateBackoff  time.Duration
}

// DefaultConfig returns the settings used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		CacheTTL:       30 * time.Minute,
		CreateAttempts: 2,
		CreateBackoff:  50 * time.Millisecond,
	}
}

// Dependencies are the collaborators shared by every orchestrator version.
// Cache and Publisher are optional.
type Dependencies struct {
	Sessions           repository.SessionStore
	InstrumentSessions repository.InstrumentSessionStore
	Cache              cache.SessionCache

	Instruments    gateway.InstrumentService
	Authentication gateway.AuthenticationService
	Attestation    gateway.AttestationService

	Publisher messaging.EventPublisher

	Signer       model.SessionSigner
	SafetyNet    *service.SafetyNet
	Certificates *service.CertificateValidator
	Localizer    *service.Localizer

	Logger log.Logger
	Config Config
}
