package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/event"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

// creation is the state of one CreatePaymentSession call. stored stays nil
// until a protocol session exists; only then is anything persisted.
type creation struct {
	data     *model.PaymentSessionData
	features model.FeatureSet
	session  *model.PaymentSession
	pi       *model.PaymentInstrument
	stored   *model.StoredSession

	requires3ds2 bool
}

type requirements struct {
	issuedIn3ds1Country bool
	requires3ds1        bool
	requires3ds2        bool
}

func (e *engine) CreatePaymentSession(
	ctx context.Context,
	data *model.PaymentSessionData,
	features model.FeatureSet,
) (*model.PaymentSession, error) {
	if data == nil {
		return nil, domainerror.ErrPaymentInstrumentIDRequired
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	c := &creation{
		data:     data,
		features: features,
		session:  model.NewPaymentSession(data),
	}

	var (
		session *model.PaymentSession
		err     error
	)
	if data.RequestContext != nil {
		session, err = e.createForRequest(ctx, c)
	} else {
		session, err = e.createForAccount(ctx, c)
	}
	if err != nil {
		if errors.IsValidation(err) || service.IsExcluded(err) {
			return nil, err
		}
		e.roundFailed(RoundCreate, c.session.ID, err)
		return e.safetyNetSessionForData(data), nil
	}
	logCreation(e.logger, session)
	return session, nil
}

// createForAccount decides the challenge for an account-owned purchase.
// The first exit that applies wins.
func (e *engine) createForAccount(ctx context.Context, c *creation) (session *model.PaymentSession, err error) {
	data, features := c.data, c.features

	if !data.Settings.PSD2Enabled &&
		!features.Has(model.FlagPSD2ProdIntegration) &&
		!data.IsPSD2ForcedEnvironment() &&
		!data.HasPSD2TestScenario() {
		return e.notApplicable(c), nil
	}

	if data.IsMOTO && !data.IsMotoAuthorizedCaller() {
		return nil, domainerror.ErrUnauthorizedMotoPaymentSession
	}

	defer func() {
		if ferr := e.finishCreate(ctx, c); ferr != nil && err == nil {
			session, err = nil, ferr
		}
	}()

	// Ignore-authorization partners may pay with instruments the account
	// does not own, so non-card methods must exit before the ownership check.
	if data.Settings.IgnorePIAuthorization || features.Has(model.FlagIgnorePIAuthorizationPartners) {
		r := service.Execute(ctx, e.SafetyNet, service.OpGetPIExt, features, func(ctx context.Context) (*model.PaymentInstrument, error) {
			return e.Instruments.GetExtendedInstrument(ctx, data.PaymentInstrumentID)
		})
		if r.Excluded() {
			return nil, r.Err
		}
		if r.Fallback() {
			return e.safetyNetSessionForData(data), nil
		}
		if paymentMethodNotRequiresChallenge(r.Value, features) {
			return e.notApplicable(c), nil
		}
	}

	owned, err := e.Instruments.GetInstrument(ctx, data.AccountID, data.PaymentInstrumentID)
	if err != nil {
		return nil, ownershipError(err)
	}
	if owned.IsGooglePay() || owned.IsApplePay() {
		c.session.IsTokenCollected = isTokenCollected(owned)
	}
	if owned.IsApplePay() {
		return e.validatePIOnAttachSession(c, owned), nil
	}
	if paymentMethodNotRequiresChallenge(owned, features) {
		return e.notApplicable(c), nil
	}

	r := service.Execute(ctx, e.SafetyNet, service.OpGetPIExt, features, func(ctx context.Context) (*model.PaymentInstrument, error) {
		return e.Instruments.GetExtendedInstrument(ctx, data.PaymentInstrumentID)
	})
	if r.Excluded() {
		return nil, r.Err
	}
	if r.Fallback() {
		return e.safetyNetSessionForData(data), nil
	}
	pi := r.Value
	c.pi = pi
	req := readRequirements(pi, data, features)

	guest := false
	if data.IsGuestUser && pi.IsInlineUsage() && pi.LinkedPaymentSessionID != "" {
		c.session.IsChallengeRequired = false
		c.session.Status = model.ChallengeStatusNotApplicable
		c.session.ID = pi.LinkedPaymentSessionID
		if !features.Has(model.FlagEnablePSD2ForGuestCheckoutFlow) {
			return e.sign(c.session), nil
		}
		guest = true
	}

	req = applyOverrides(req, pi, data, features)
	c.requires3ds2 = req.requires3ds2

	piRequiresAuthentication := (pi.IsUPIQr() && features.Has(model.FlagEnableLtsUpiQRConsumer)) ||
		req.requires3ds2 || req.requires3ds1 || pi.IsUPI()

	if !guest {
		r := service.Execute(ctx, e.SafetyNet, service.OpCreatePS, features, func(ctx context.Context) (string, error) {
			return e.Authentication.CreateSessionID(ctx, data)
		})
		if r.Excluded() {
			return nil, r.Err
		}
		if r.Fallback() {
			return e.safetyNetSessionForData(data), nil
		}
		c.session.ID = r.Value
	}

	c.stored = model.NewStoredSession(c.session, data, pi, features)
	c.stored.PIRequiresAuthentication = piRequiresAuthentication
	c.stored.IsGuestCheckout = guest

	if service.BypassMOTO(data.IsMOTO, features) || data.RedeemRewards {
		return e.bypassChallenge(ctx, c)
	}

	classify(c, pi, req)

	if features.Has(model.FlagStoredSessionForChallengeDescriptions) {
		c.stored.ChallengeType = c.session.ChallengeType
		c.stored.PIRequiresAuthentication = c.session.IsChallengeRequired
	}
	return e.sign(c.session), nil
}

// bypassChallenge notifies the authentication service of a purchase that
// skips the challenge (MOTO or rewards) and returns without one.
func (e *engine) bypassChallenge(ctx context.Context, c *creation) (*model.PaymentSession, error) {
	c.session.IsChallengeRequired = false
	c.session.Status = model.ChallengeStatusByPassed
	if c.data.RedeemRewards {
		c.session.Status = model.ChallengeStatusNotApplicable
	}
	e.sign(c.session)

	r := service.Execute(ctx, e.SafetyNet, service.OpMotoAuthN, c.features, func(ctx context.Context) (*model.AuthenticationResult, error) {
		return e.Authentication.Authenticate(ctx, &model.AuthenticationRequest{
			ProtocolSessionID:   c.stored.ProtocolSessionID,
			AccountID:           c.data.AccountID,
			PaymentInstrumentID: c.data.PaymentInstrumentID,
			DeviceChannel:       c.data.DeviceChannel,
			MessageVersion:      model.DefaultMessageVersion,
			IsMOTO:              c.data.IsMOTO,
		})
	})
	if r.Excluded() {
		return nil, r.Err
	}

	c.stored.SetStatus(c.session.Status)

	if !c.features.Has(model.FlagSkipDuplicatePostProcessForMotoRewards) {
		if err := e.postProcessOnSuccess(ctx, c.stored); err != nil {
			return nil, err
		}
	}
	return c.session, nil
}

// classify sets the challenge requirement of a purchase that reached a
// protocol session. The first rule that applies wins.
func classify(c *creation, pi *model.PaymentInstrument, req requirements) {
	data, features, session := c.data, c.features, c.session
	scenario := data.ChallengeScenario
	transactional := scenario == model.ChallengeScenarioRecurringTransaction ||
		scenario == model.ChallengeScenarioPaymentTransaction

	required := func(t model.ChallengeType) {
		session.IsChallengeRequired = true
		session.Status = model.ChallengeStatusUnknown
		session.ChallengeType = t
	}

	switch {
	case req.requires3ds2:
		required(model.ChallengeTypePSD2)
		if pi.IsLegacyBillDesk() {
			session.ChallengeType = model.ChallengeTypeLegacyBillDeskPayment
		}
		if excludeJCBChallenge(pi, features) {
			session.IsChallengeRequired = false
			session.Status = model.ChallengeStatusNotApplicable
		}
	case pi.IsUPI() && transactional:
		required(model.ChallengeTypeUPI)
	case pi.IsUPIQr() && transactional && features.Has(model.FlagEnableLtsUpiQRConsumer):
		required(model.ChallengeTypeUPI)
	case (data.Settings.IndiaCommercialPartner &&
		scenario == model.ChallengeScenarioPaymentTransaction &&
		!data.IsZeroAmount() &&
		data.IsIndia()) || req.requires3ds1:
		required(model.ChallengeTypeIndia3DS)
	case validatePIOnAttachEnabled(data, features) &&
		(pi.IsCreditCard() || pi.IsGooglePay()) &&
		!data.IsIndia() &&
		!req.issuedIn3ds1Country:
		required(model.ChallengeTypeValidatePIOnAttach)
	default:
		session.IsChallengeRequired = false
		session.Status = model.ChallengeStatusNotApplicable
	}
}

// createForRequest decides the challenge for a purchase owned by a payment
// request rather than an account.
func (e *engine) createForRequest(ctx context.Context, c *creation) (session *model.PaymentSession, err error) {
	data, features := c.data, c.features

	defer func() {
		if ferr := e.finishCreate(ctx, c); ferr != nil && err == nil {
			session, err = nil, ferr
		}
	}()

	r := service.Execute(ctx, e.SafetyNet, service.OpGetPIExt, features, func(ctx context.Context) (*model.PaymentInstrument, error) {
		return e.Instruments.GetExtendedInstrument(ctx, data.PaymentInstrumentID)
	})
	if r.Excluded() {
		return nil, r.Err
	}
	if r.Fallback() {
		return e.safetyNetSessionForData(data), nil
	}
	pi := r.Value
	c.pi = pi

	if paymentMethodNotRequiresChallenge(pi, features) || excludeJCBChallenge(pi, features) {
		return e.notApplicable(c), nil
	}

	ps := service.Execute(ctx, e.SafetyNet, service.OpCreatePS, features, func(ctx context.Context) (string, error) {
		return e.Authentication.CreateSessionID(ctx, data)
	})
	if ps.Excluded() {
		return nil, ps.Err
	}
	if ps.Fallback() {
		return e.safetyNetSessionForData(data), nil
	}
	c.session.ID = ps.Value

	c.stored = model.NewStoredSession(c.session, data, pi, features)
	c.stored.PIRequiresAuthentication = true

	c.session.IsChallengeRequired = true
	c.session.Status = model.ChallengeStatusUnknown

	if features.Has(model.FlagStoredSessionForChallengeDescriptions) {
		c.stored.ChallengeType = c.session.ChallengeType
		c.stored.PIRequiresAuthentication = c.session.IsChallengeRequired
	}
	return e.sign(c.session), nil
}

// finishCreate persists the stored session of a creation, records the
// instrument's latest session and attests purchases that skip a challenge
// the instrument asked for.
func (e *engine) finishCreate(ctx context.Context, c *creation) error {
	s := c.stored
	if s == nil {
		return nil
	}

	s.ID = c.session.ID
	s.Status = c.session.Status
	s.IsChallengeRequired = c.session.IsChallengeRequired
	s.HandlerVersion = e.version

	if s.IsGuestCheckout {
		// The linked session may already exist from an earlier attempt.
		if _, err := e.Sessions.Get(ctx, s.ID); errors.Is(err, repository.ErrNotFound) {
			if err := e.createWithRetry(ctx, s); err != nil {
				return err
			}
		}
	} else if err := e.createWithRetry(ctx, s); err != nil {
		return err
	}

	e.publish(ctx, event.NewPaymentSessionCreated(
		s.ID,
		s.AccountID,
		s.PaymentInstrumentID,
		c.session.ChallengeType.String(),
		c.session.IsChallengeRequired,
		c.session.Status.String(),
		string(e.version),
	))

	if c.pi != nil && c.features.Has(model.FlagEnablePSD2PaymentInstrumentSession) && e.InstrumentSessions != nil {
		record := &model.PaymentInstrumentSession{
			PaymentInstrumentID: c.data.PaymentInstrumentID,
			SessionID:           s.ID,
			AccountID:           c.data.AccountID,
			RequiredChallenge:   c.pi.RequiredChallenge,
		}
		r := e.SafetyNet.Run(ctx, service.OpPutPISession, c.features, func(ctx context.Context) error {
			return e.InstrumentSessions.Put(ctx, record)
		})
		if r.Excluded() {
			return r.Err
		}
	}

	attest := !c.session.IsChallengeRequired
	if c.data.RequestContext == nil {
		redeemSkipped := c.data.RedeemRewards && c.features.Has(model.FlagSkipDuplicatePostProcessForMotoRewards)
		attest = service.BypassMOTO(c.data.IsMOTO, c.features) ||
			redeemSkipped ||
			(c.requires3ds2 && !c.session.IsChallengeRequired)
	}
	if attest {
		return e.updateSessionOnFinally(ctx, s, c.data.AccountID, s.ID, true)
	}
	return nil
}

// notApplicable is the answer for purchases that never need a challenge.
func (e *engine) notApplicable(c *creation) *model.PaymentSession {
	c.session.IsChallengeRequired = false
	c.session.ID = model.NewSessionID()
	c.session.Status = model.ChallengeStatusNotApplicable
	return e.sign(c.session)
}

// validatePIOnAttachSession starts a zero-value validation challenge. No
// protocol session is allocated; the stored id is a placeholder.
func (e *engine) validatePIOnAttachSession(c *creation, pi *model.PaymentInstrument) *model.PaymentSession {
	c.session.IsChallengeRequired = true
	c.session.ID = model.NewSessionID()
	c.session.Status = model.ChallengeStatusUnknown
	c.session.ChallengeType = model.ChallengeTypeValidatePIOnAttach
	e.sign(c.session)

	c.stored = model.NewStoredSession(c.session, c.data, pi, c.features)
	c.stored.ProtocolSessionID = model.NewSessionID() + "_init"
	c.stored.ChallengeType = model.ChallengeTypeValidatePIOnAttach
	return c.session
}

// readRequirements derives the challenge requirements reported by the
// instrument service.
func readRequirements(pi *model.PaymentInstrument, data *model.PaymentSessionData, features model.FeatureSet) requirements {
	var req requirements
	req.issuedIn3ds1Country = pi.Requires(model.RequiredChallenge3DS) &&
		(features.Has(model.FlagIndia3dsEnableForBilldesk) || data.Settings.India3DS1EnableForBilldesk)
	req.requires3ds1 = req.issuedIn3ds1Country && data.IsIndia() && data.IsRupee()
	req.requires3ds2 = pi.Requires(model.RequiredChallenge3DS2)
	return req
}

// applyOverrides adjusts the requirements for market exclusions and test
// scenarios, in order.
func applyOverrides(req requirements, pi *model.PaymentInstrument, data *model.PaymentSessionData, features model.FeatureSet) requirements {
	india3DS1 := features.Has(model.FlagEnableIndia3DS1Challenge) || data.Settings.EnableIndia3DS1Challenge

	// Amex is not routed through the Indian 3DS1 provider.
	if req.requires3ds1 && pi.IsCreditCard() && (!india3DS1 || (pi.IsAmex() && data.IsIndia())) {
		req.requires3ds1 = false
	}

	if !req.requires3ds1 && pi.IsCreditCard() && data.HasTestScenario(model.TestScenarioThreeDSOne) {
		req.requires3ds1 = true
		req.requires3ds2 = false
	}

	e2e := data.HasTestScenario(model.TestScenarioPSD2E2E)
	if !req.requires3ds2 && (pi.IsCreditCard() || pi.IsGooglePay()) &&
		(features.Has(model.FlagPretendPIMSReturned3DS2) || e2e) {
		req.requires3ds2 = true
		if india3DS1 && data.IsIndia() {
			req.requires3ds2 = false
		}
	}

	if !req.requires3ds1 && pi.IsCreditCard() && e2e && data.IsIndia() {
		req.requires3ds1 = true
		req.requires3ds2 = false

		scenario := data.ChallengeScenario
		if data.Settings.IndiaCommercialPartner &&
			((scenario == model.ChallengeScenarioPaymentTransaction && data.IsZeroAmount()) ||
				scenario == model.ChallengeScenarioRecurringTransaction) {
			req.requires3ds1 = false
		}
	}

	if features.Has(model.FlagSkipChallengeForZeroAmountIndiaAuth) &&
		data.IsIndia() &&
		strings.EqualFold(data.Partner, model.PartnerWebblends) &&
		data.IsZeroAmount() {
		req.requires3ds1 = false
	}
	return req
}

// paymentMethodNotRequiresChallenge reports instrument classes that are
// never challenged.
func paymentMethodNotRequiresChallenge(pi *model.PaymentInstrument, features model.FeatureSet) bool {
	if pi.IsUPIQr() && features.Has(model.FlagEnableLtsUpiQRConsumer) {
		return false
	}
	if pi.IsGooglePay() && features.Has(model.FlagEnablePSD2ForGooglePay) {
		return false
	}
	return !pi.IsCreditCard() && !pi.IsLegacyBillDesk() && !pi.IsUPI()
}

// excludeJCBChallenge holds JCB cards back until the JCB challenge is enabled.
func excludeJCBChallenge(pi *model.PaymentInstrument, features model.FeatureSet) bool {
	return pi.IsJCB() &&
		(!features.Has(model.FlagPSD2SettingVersionV25) || !features.Has(model.FlagDisplayJCBChallenge))
}

func validatePIOnAttachEnabled(data *model.PaymentSessionData, features model.FeatureSet) bool {
	return data.Settings.ValidatePIOnAttach || features.Has(model.FlagEnableValidatePIOnAttachChallenge)
}

func isTokenCollected(pi *model.PaymentInstrument) bool {
	return strings.EqualFold(pi.WalletType, model.PaymentMethodTypeGooglePay) ||
		strings.EqualFold(pi.WalletType, model.PaymentMethodTypeApplePay)
}

// ownershipError translates an ownership read failure. Unknown failures
// are returned as-is and end in the safety-net session.
func ownershipError(err error) error {
	se, ok := gateway.AsServiceError(err)
	if !ok {
		return fmt.Errorf("failed to get payment instrument: %w", err)
	}
	switch se.ErrorCode {
	case gateway.ErrorCodeAccountPINotFound:
		return domainerror.ErrPaymentInstrumentNotFound.WithCause(err)
	case gateway.ErrorCodeInvalidAccountID, gateway.ErrorCodeAccountNotFound:
		return domainerror.ErrInvalidAccountID.WithCause(err)
	default:
		return fmt.Errorf("failed to get payment instrument: %w", err)
	}
}

func logCreation(logger log.Logger, ps *model.PaymentSession) {
	logger.Info("payment session decided",
		log.String("session_id", ps.ID),
		log.String("challenge_type", ps.ChallengeType.String()),
		log.Bool("challenge_required", ps.IsChallengeRequired),
		log.String("status", ps.Status.String()),
	)
}
