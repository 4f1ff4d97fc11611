package orchestrator

import (
	"context"
	"fmt"
	"net/url"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// Redirect error codes sent to the failure URL.
const (
	redirectErrorRejectedByProvider  = "RejectedByProvider"
	redirectErrorInternalServerError = "InternalServerError"
)

func (e *engine) TryGetPaymentSession(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	r := service.Execute(ctx, e.SafetyNet, service.OpGetSession, model.FeaturesFromContext(ctx), func(ctx context.Context) (*model.StoredSession, error) {
		return e.getSession(ctx, sessionID)
	})
	if r.Excluded() {
		return nil, r.Err
	}
	if !r.OK() || r.Value == nil {
		return nil, nil
	}

	s := r.Value
	ps := s.Public()
	if s.AuthenticationResponse != nil {
		ps.UserDisplayMessage = s.AuthenticationResponse.CardHolderInfo
	}
	return e.sign(ps), nil
}

func (e *engine) GetChallengeRedirectURI(ctx context.Context, sessionID string) (string, error) {
	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var cardHolderInfo string
	if s.AuthenticationResponse != nil {
		cardHolderInfo = s.AuthenticationResponse.CardHolderInfo
	}
	return ChallengeRedirectURI(s.Public(), cardHolderInfo)
}

// ChallengeRedirectURI builds the redirect for a finished challenge: the
// success URL with the session and instrument for Succeeded, else the
// failure URL with an error code and the status.
func ChallengeRedirectURI(ps *model.PaymentSession, userDisplayMessage string) (string, error) {
	target := ps.FailureURL
	if ps.Status == model.ChallengeStatusSucceeded {
		target = ps.SuccessURL
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect url: %w", err)
	}

	q := u.Query()
	q.Set("challengeStatus", ps.Status.String())
	if ps.Status == model.ChallengeStatusSucceeded {
		q.Set("sessionId", ps.ID)
		q.Set("piid", ps.PaymentInstrumentID)
	} else {
		code := redirectErrorRejectedByProvider
		if ps.Status == model.ChallengeStatusInternalServerError {
			code = redirectErrorInternalServerError
		}
		q.Set("errorCode", code)
		q.Set("errorMessage", ps.Status.String())
		if userDisplayMessage != "" {
			q.Set("userDisplayMessage", userDisplayMessage)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
