package orchestrator

import (
	"context"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// Router is the ChallengeOrchestrator the service exposes. New sessions go
// to the default version; every later round goes to the version the session
// was created with.
type Router struct {
	defaultVersion model.HandlerVersion
	handlers       map[model.HandlerVersion]ChallengeOrchestrator
	lookup         *engine
}

var _ ChallengeOrchestrator = (*Router)(nil)

// NewRouter builds both orchestrator versions over deps.
func NewRouter(defaultVersion model.HandlerVersion, deps Dependencies) (*Router, error) {
	if !defaultVersion.IsValid() {
		return nil, domainerror.ErrHandlerVersionInvalid.WithMeta("handler_version", string(defaultVersion))
	}
	return &Router{
		defaultVersion: defaultVersion,
		handlers: map[model.HandlerVersion]ChallengeOrchestrator{
			model.HandlerVersionV1: NewV1(deps),
			model.HandlerVersionV2: NewV2(deps),
		},
		lookup: newEngine(deps, defaultVersion),
	}, nil
}

func (r *Router) Version() model.HandlerVersion { return r.defaultVersion }

// forNew picks the orchestrator for a session that does not exist yet.
func (r *Router) forNew(features model.FeatureSet) ChallengeOrchestrator {
	if features.Has(model.FlagUsePaymentSessionsHandlerV2) {
		return r.handlers[model.HandlerVersionV2]
	}
	return r.handlers[r.defaultVersion]
}

// forSession picks the orchestrator that owns sessionID. A session that
// cannot be read goes to the default version, whose round handles the
// failure.
func (r *Router) forSession(ctx context.Context, sessionID string) ChallengeOrchestrator {
	s, err := r.lookup.getSession(ctx, sessionID)
	if err != nil {
		r.lookup.logger.Debug("routing unreadable session to default handler",
			log.String("session_id", sessionID),
			log.Err(err),
		)
		return r.handlers[r.defaultVersion]
	}
	if h, ok := r.handlers[s.HandlerVersion]; ok {
		return h
	}
	return r.handlers[r.defaultVersion]
}

func (r *Router) CreatePaymentSession(ctx context.Context, data *model.PaymentSessionData, features model.FeatureSet) (*model.PaymentSession, error) {
	return r.forNew(features).CreatePaymentSession(ctx, data, features)
}

func (r *Router) HandlePaymentChallenge(ctx context.Context, accountID string, browser *model.BrowserInfo, session *model.PaymentSession) (*model.BrowserFlowContext, error) {
	if session == nil {
		return nil, domainerror.ErrSessionIDRequired
	}
	return r.forSession(ctx, session.ID).HandlePaymentChallenge(ctx, accountID, browser, session)
}

func (r *Router) GetThreeDSMethodURL(ctx context.Context, accountID string, browser *model.BrowserInfo, session *model.PaymentSession) (*model.BrowserFlowContext, error) {
	if session == nil {
		return nil, domainerror.ErrSessionIDRequired
	}
	return r.forSession(ctx, session.ID).GetThreeDSMethodURL(ctx, accountID, browser, session)
}

func (r *Router) AuthenticateBrowser(ctx context.Context, sessionID string, methodCompleted bool) (*model.BrowserFlowContext, error) {
	return r.forSession(ctx, sessionID).AuthenticateBrowser(ctx, sessionID, methodCompleted)
}

func (r *Router) AuthenticateApp(ctx context.Context, accountID, sessionID string, req *model.AppAuthenticationRequest) (*model.AuthenticationResponse, error) {
	return r.forSession(ctx, sessionID).AuthenticateApp(ctx, accountID, sessionID, req)
}

func (r *Router) AuthenticateThreeDSOne(ctx context.Context, sessionID string) (*model.ThreeDSOneChallenge, error) {
	return r.forSession(ctx, sessionID).AuthenticateThreeDSOne(ctx, sessionID)
}

func (r *Router) CompleteChallenge(ctx context.Context, accountID, sessionID string) (*model.PaymentSession, error) {
	return r.forSession(ctx, sessionID).CompleteChallenge(ctx, accountID, sessionID)
}

func (r *Router) CompleteThreeDSOneChallenge(ctx context.Context, accountID, sessionID string, params map[string]string) (*model.PaymentSession, error) {
	return r.forSession(ctx, sessionID).CompleteThreeDSOneChallenge(ctx, accountID, sessionID, params)
}

func (r *Router) TryGetPaymentSession(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	return r.handlers[r.defaultVersion].TryGetPaymentSession(ctx, sessionID)
}

func (r *Router) GetChallengeRedirectURI(ctx context.Context, sessionID string) (string, error) {
	return r.handlers[r.defaultVersion].GetChallengeRedirectURI(ctx, sessionID)
}
