package orchestrator

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// v1 keeps the earlier completion round: the session read is safety-netted
// and post-processing and attestation run inline instead of in a finally.
type v1 struct {
	*engine
}

// NewV1 creates the orchestrator tagged V1.
func NewV1(deps Dependencies) ChallengeOrchestrator {
	return &v1{engine: newEngine(deps, model.HandlerVersionV1)}
}

func (o *v1) CompleteChallenge(ctx context.Context, accountID, sessionID string) (*model.PaymentSession, error) {
	got := service.Execute(ctx, o.SafetyNet, service.OpGetSession, model.FeaturesFromContext(ctx), func(ctx context.Context) (*model.StoredSession, error) {
		return o.getSession(ctx, sessionID)
	})
	if got.Excluded() {
		return nil, got.Err
	}
	if got.Fallback() {
		if err := o.attest(ctx, model.FeaturesFromContext(ctx), accountID, sessionID, true); err != nil {
			return nil, err
		}
		return o.safetyNetSession(sessionID), nil
	}

	s := got.Value
	if accountID == "" {
		accountID = s.ResolveAccountID()
	}

	result, status, err := o.complete(ctx, s, accountID)
	if err != nil {
		return nil, err
	}
	verified := status.IsAuthenticationVerified()

	// Without a configured rule only outcomes other than FR, R and N are
	// post-processed.
	postProcess := verified
	if _, matched := service.NewStatusMapper(s.Features).MatchCompletion(result); !matched {
		switch result.TransStatus {
		case model.TransactionStatusFR, model.TransactionStatusR, model.TransactionStatusN:
			postProcess = false
		default:
			postProcess = true
		}
	}
	if postProcess {
		if err := o.postProcessOnSuccess(ctx, s); err != nil {
			return nil, err
		}
	}

	if err := o.updateSession(ctx, s); err != nil {
		ps, ferr := o.completionFailed(RoundComplete, sessionID, s, err)
		if ferr != nil {
			return nil, ferr
		}
		if err := o.attest(ctx, s.Features, accountID, s.ID, true); err != nil {
			return nil, err
		}
		return ps, nil
	}

	if err := o.attest(ctx, s.Features, accountID, s.ID, verified); err != nil {
		return nil, err
	}
	return o.sign(s.Public()), nil
}
