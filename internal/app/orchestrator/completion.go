package orchestrator

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

func (e *engine) CompleteChallenge(ctx context.Context, accountID, sessionID string) (ps *model.PaymentSession, err error) {
	var s *model.StoredSession
	verified := false
	defer func() {
		if ferr := e.updateSessionOnFinally(ctx, s, accountID, sessionID, verified); ferr != nil && err == nil {
			ps, err = nil, ferr
		}
	}()

	s, err = e.getSession(ctx, sessionID)
	if err != nil {
		return e.completionFailed(RoundComplete, sessionID, nil, err)
	}
	if accountID == "" {
		accountID = s.ResolveAccountID()
	}

	_, status, err := e.complete(ctx, s, accountID)
	if err != nil {
		return nil, err
	}
	if err := e.updateSession(ctx, s); err != nil {
		return e.completionFailed(RoundComplete, sessionID, s, err)
	}

	verified = status.IsAuthenticationVerified()
	return e.sign(s.Public()), nil
}

// complete fetches the 3DS2 challenge result under the safety net and
// records the mapped status on s. A swallowed failure leaves an empty
// result and marks s as a system error. Only excluded errors are returned.
func (e *engine) complete(ctx context.Context, s *model.StoredSession, accountID string) (*model.CompletionResult, model.ChallengeStatus, error) {
	r := service.Execute(ctx, e.SafetyNet, service.OpCompletion, s.Features, func(ctx context.Context) (*model.CompletionResult, error) {
		return e.Authentication.CompleteChallenge(ctx, &model.CompletionRequest{
			ProtocolSessionID: s.ProtocolSessionID,
			AccountID:         accountID,
		})
	})
	if r.Excluded() {
		return nil, "", r.Err
	}

	result := r.Value
	if r.Fallback() || result == nil {
		result = &model.CompletionResult{}
		s.MarkSystemError()
	}

	s.RecordTransaction(result.TransStatus, result.TransStatusReason)
	status := service.NewStatusMapper(s.Features).MapCompletion(result)
	s.SetStatus(status)
	e.resolved(ctx, RoundComplete, s)
	return result, status, nil
}

func (e *engine) CompleteThreeDSOneChallenge(
	ctx context.Context,
	accountID string,
	sessionID string,
	params map[string]string,
) (ps *model.PaymentSession, err error) {
	var s *model.StoredSession
	verified := false
	defer func() {
		if ferr := e.updateSessionOnFinally(ctx, s, accountID, sessionID, verified); ferr != nil && err == nil {
			ps, err = nil, ferr
		}
	}()

	s, err = e.getSession(ctx, sessionID)
	if err != nil {
		return e.completionFailed(RoundComplete3DS1, sessionID, nil, err)
	}
	if accountID == "" {
		accountID = s.ResolveAccountID()
	}

	r := service.Execute(ctx, e.SafetyNet, service.OpCompletion, s.Features, func(ctx context.Context) (*model.CompletionResult, error) {
		return e.Authentication.CompleteThreeDSOneChallenge(ctx, &model.CompletionRequest{
			ProtocolSessionID:       s.ProtocolSessionID,
			AccountID:               accountID,
			AuthorizationParameters: params,
		})
	})
	if r.Excluded() {
		return nil, r.Err
	}

	result, fromSafetyNet := r.Value, false
	if r.Fallback() || result == nil {
		result, fromSafetyNet = &model.CompletionResult{TransStatus: model.TransactionStatusR}, true
	}

	s.RecordTransaction(result.TransStatus, result.TransStatusReason)
	status := service.MapThreeDSOneCompletion(result, fromSafetyNet)
	s.SetStatus(status)
	e.resolved(ctx, RoundComplete3DS1, s)

	if err := e.updateSession(ctx, s); err != nil {
		return e.completionFailed(RoundComplete3DS1, sessionID, s, err)
	}

	verified = status.IsAuthenticationVerified()
	return e.sign(s.Public()), nil
}

func (e *engine) completionFailed(round, sessionID string, s *model.StoredSession, err error) (*model.PaymentSession, error) {
	if service.IsExcluded(err) {
		return nil, err
	}
	if s != nil {
		s.MarkSystemError()
	}
	e.roundFailed(round, sessionID, err)
	return e.safetyNetSession(sessionID), nil
}
