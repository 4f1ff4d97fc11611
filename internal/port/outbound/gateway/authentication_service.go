package gateway

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// AuthenticationService fronts the 3DS server. It owns the protocol
// session and speaks to directory servers and issuer ACSes.
type AuthenticationService interface {
	// CreateSessionID allocates a protocol session for the purchase.
	CreateSessionID(ctx context.Context, data *model.PaymentSessionData) (string, error)

	// GetMethodURL looks up the issuer's 3DS method URL for fingerprinting.
	GetMethodURL(ctx context.Context, sessionID string, browser *model.BrowserInfo) (*model.MethodData, error)

	// Authenticate runs the risk-based authentication step.
	Authenticate(ctx context.Context, req *model.AuthenticationRequest) (*model.AuthenticationResult, error)

	// AuthenticateThreeDSOne starts a 3DS1 redirect challenge.
	AuthenticateThreeDSOne(ctx context.Context, req *model.AuthenticationRequest) (*model.ThreeDSOneAuthenticationResult, error)

	// CompleteChallenge fetches the final result of a 3DS2 challenge.
	CompleteChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error)

	// CompleteThreeDSOneChallenge forwards the issuer's authorization
	// parameters and returns the 3DS1 result.
	CompleteThreeDSOneChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error)
}
