package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/retry"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/event"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

// engine holds the rounds shared by every orchestrator version. Session
// state is never kept on the engine; each round loads a *model.StoredSession
// and passes it explicitly to the helpers it calls.
type engine struct {
	Dependencies
	version model.HandlerVersion
	logger  log.Logger
}

func newEngine(deps Dependencies, version model.HandlerVersion) *engine {
	defaults := DefaultConfig()
	if deps.Config.CacheTTL <= 0 {
		deps.Config.CacheTTL = defaults.CacheTTL
	}
	if deps.Config.CreateAttempts <= 0 {
		deps.Config.CreateAttempts = defaults.CreateAttempts
	}
	if deps.Config.CreateBackoff <= 0 {
		deps.Config.CreateBackoff = defaults.CreateBackoff
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNoop()
	}
	if deps.SafetyNet == nil {
		deps.SafetyNet = service.NewSafetyNet(deps.Logger, nil)
	}
	if deps.Localizer == nil {
		deps.Localizer = service.NewLocalizer()
	}

	return &engine{
		Dependencies: deps,
		version:      version,
		logger: deps.Logger.With(
			log.Component("orchestrator"),
			log.String("handler_version", string(version)),
		),
	}
}

func (e *engine) Version() model.HandlerVersion { return e.version }

// Session access

// getSession reads through the cache to the durable store.
func (e *engine) getSession(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	if sessionID == "" {
		return nil, domainerror.ErrSessionIDRequired
	}

	if e.Cache != nil {
		cached, err := e.Cache.Get(ctx, sessionID)
		if err != nil {
			e.logger.Warn("session cache read failed",
				log.String("session_id", sessionID),
				log.Err(err),
			)
		}
		if cached != nil {
			return cached, nil
		}
	}

	stored, err := e.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domainerror.ErrSessionNotFound.WithMeta("session_id", sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	e.cacheSession(ctx, stored)
	return stored, nil
}

func (e *engine) updateSession(ctx context.Context, s *model.StoredSession) error {
	if err := e.Sessions.Update(ctx, s); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	e.cacheSession(ctx, s)
	return nil
}

// createWithRetry persists a new session, retrying once after a short pause.
func (e *engine) createWithRetry(ctx context.Context, s *model.StoredSession) error {
	err := retry.Attempts(ctx, e.Config.CreateAttempts, func() error {
		return e.Sessions.Create(ctx, s)
	},
		retry.WithConstantBackoff(e.Config.CreateBackoff),
		retry.WithRetryAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	e.cacheSession(ctx, s)
	return nil
}

func (e *engine) cacheSession(ctx context.Context, s *model.StoredSession) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Set(ctx, s, e.Config.CacheTTL); err != nil {
		e.logger.Warn("session cache write failed",
			log.String("session_id", s.ID),
			log.Err(err),
		)
	}
}

// safetyNetUpdate persists s under the safety net.
func (e *engine) safetyNetUpdate(ctx context.Context, s *model.StoredSession) error {
	r := e.SafetyNet.Run(ctx, service.OpUpdateSessionResourceData, s.Features, func(ctx context.Context) error {
		return e.updateSession(ctx, s)
	})
	if r.Excluded() {
		return r.Err
	}
	return nil
}

// Finally and post-processing

// updateSessionOnFinally runs at the end of every round. A session that
// ended verified or with a system error is post-processed and persisted,
// and the purchase is attested as verified. A round that never loaded a
// session attests as well.
func (e *engine) updateSessionOnFinally(
	ctx context.Context,
	s *model.StoredSession,
	accountID string,
	sessionID string,
	verified bool,
) error {
	features := model.FeatureSet{}
	if s != nil {
		features = s.Features
		sessionID = s.ID
		if accountID == "" {
			accountID = s.ResolveAccountID()
		}

		verified = verified || s.IsSystemError
		if verified {
			if err := e.postProcessOnSuccess(ctx, s); err != nil {
				return err
			}
		}
		if err := e.safetyNetUpdate(ctx, s); err != nil {
			return err
		}
	}

	verified = verified || s == nil
	if !verified {
		return nil
	}
	return e.attest(ctx, features, accountID, sessionID, true)
}

// attest records the verification outcome of a purchase with the
// attestation service.
func (e *engine) attest(ctx context.Context, features model.FeatureSet, accountID, sessionID string, verified bool) error {
	r := e.SafetyNet.Run(ctx, service.OpAttestation, features, func(ctx context.Context) error {
		return e.Attestation.UpdateChallengeAttestation(ctx, accountID, sessionID, verified)
	})
	if r.Excluded() {
		return r.Err
	}
	if r.OK() {
		e.publish(ctx, event.NewAttestationUpdated(sessionID, accountID, verified))
	}
	return nil
}

// postProcessOnSuccess tells the instrument service about a verified
// session. Request-owned sessions skip it.
func (e *engine) postProcessOnSuccess(ctx context.Context, s *model.StoredSession) error {
	if s.IsPaaS() {
		return nil
	}

	if _, err := e.validatePI(ctx, s); err != nil {
		return err
	}

	r := e.SafetyNet.Run(ctx, service.OpLinkSessionToPI, s.Features, func(ctx context.Context) error {
		return e.Instruments.LinkSession(ctx, s.PIAccountID, s.PaymentInstrumentID, s.ID)
	})
	if r.Excluded() {
		return r.Err
	}
	return nil
}

// validatePI runs the zero-value authorization for pre-orders and zero
// amount purchases. It reports false only when the instrument service
// explicitly failed the instrument.
func (e *engine) validatePI(ctx context.Context, s *model.StoredSession) (bool, error) {
	if s == nil {
		return true, nil
	}

	valid := true
	r := e.SafetyNet.Run(ctx, service.OpValidatePI, s.Features, func(ctx context.Context) error {
		if !s.HasPreOrder && s.Amount != 0 {
			return nil
		}
		result, err := e.Instruments.ValidateInstrument(ctx, &model.ValidationRequest{
			AccountID:           s.PIAccountID,
			PaymentInstrumentID: s.PaymentInstrumentID,
			SessionID:           s.ID,
			EmailAddress:        s.EmailAddress,
		})
		if err != nil {
			return err
		}
		if result.IsFailed() {
			valid = false
			return domainerror.ErrPaymentInstrumentInvalid.WithMeta("piid", s.PaymentInstrumentID)
		}
		return nil
	})
	if r.Excluded() {
		return valid, r.Err
	}
	return valid, nil
}

// Safety-net outcomes

// sign signs ps in place. A signing failure is logged; the caller still
// gets the session.
func (e *engine) sign(ps *model.PaymentSession) *model.PaymentSession {
	if err := ps.Sign(e.Signer); err != nil {
		e.logger.Error("failed to sign payment session",
			log.String("session_id", ps.ID),
			log.Err(err),
		)
	}
	return ps
}

// safetyNetSessionForData is returned when the challenge decision itself failed.
func (e *engine) safetyNetSessionForData(data *model.PaymentSessionData) *model.PaymentSession {
	return e.sign(model.NewPaymentSession(data))
}

// safetyNetSession is returned when a round failed before a stored session
// could be used.
func (e *engine) safetyNetSession(sessionID string) *model.PaymentSession {
	return e.sign(&model.PaymentSession{
		ID:                  sessionID,
		IsChallengeRequired: true,
		Status:              model.ChallengeStatusSucceeded,
	})
}

// safetyNetBrowserContext lets the browser continue without a challenge.
// Indian rupee purchases fail instead when the flag asks for it.
func (e *engine) safetyNetBrowserContext(ps *model.PaymentSession, s *model.StoredSession) *model.BrowserFlowContext {
	ps.Status = model.ChallengeStatusSucceeded
	if s != nil && s.IsIndiaRupee() && s.Features.Has(model.FlagReturnFailedSessionState) {
		ps.Status = model.ChallengeStatusFailed
	}
	return &model.BrowserFlowContext{
		PaymentSession:         e.sign(ps),
		IsFingerPrintRequired:  false,
		IsAcsChallengeRequired: false,
	}
}

func safetyNetAuthenticationResponse() *model.AuthenticationResponse {
	return &model.AuthenticationResponse{
		EnrollmentStatus: model.EnrollmentStatusBypassed,
		ChallengeStatus:  model.ChallengeStatusSucceeded,
	}
}

// Events

func (e *engine) publish(ctx context.Context, evt event.Event) {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.Publish(ctx, evt); err != nil {
		e.logger.Warn("failed to publish event",
			log.String("event_type", evt.EventType()),
			log.String("aggregate_id", evt.AggregateID().String()),
			log.Err(err),
		)
	}
}

func (e *engine) resolved(ctx context.Context, round string, s *model.StoredSession) {
	e.logger.Info("challenge status resolved",
		log.String("round", round),
		log.String("session_id", s.ID),
		log.String("status", s.Status.String()),
		log.String("trans_status", s.TransStatus.String()),
	)
	e.publish(ctx, event.NewChallengeResolved(
		s.ID,
		round,
		s.Status.String(),
		s.TransStatus.String(),
		s.TransStatusReason,
		s.IsSystemError,
	))
}

// roundFailed logs an error that a round is about to replace with its
// safety-net outcome.
func (e *engine) roundFailed(round, sessionID string, err error) {
	e.logger.Error("round failed, returning safety net outcome",
		log.String("round", round),
		log.String("session_id", sessionID),
		log.Err(err),
	)
}

// Form encoding

// encodeFormInput is the URL-encoded base64 JSON carried in the 3DS method form.
func encodeFormInput(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode form input: %w", err)
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(data)), nil
}

// encodeChallengeInput is the unpadded base64url JSON posted to the ACS.
func encodeChallengeInput(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode challenge input: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func (e *engine) notificationURL(sessionID, action string) string {
	return fmt.Sprintf("%s/paymentSessions/%s/%s", e.Config.NotificationBaseURL, sessionID, action)
}
