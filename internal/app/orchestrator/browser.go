package orchestrator

import (
	"context"
	"fmt"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// Notification actions the ACS and the 3DS method page post back to.
const (
	actionAuthenticate              = "authenticate"
	actionNotifyChallengeCompleted  = "NotifyThreeDSChallengeCompleted"
	actionNotifyThreeDSOneCompleted = "BrowserNotifyThreeDSOneChallengeCompleted"
	threeDSOneMessageVersion        = "1.0.2"
)

func (e *engine) HandlePaymentChallenge(
	ctx context.Context,
	accountID string,
	browser *model.BrowserInfo,
	session *model.PaymentSession,
) (*model.BrowserFlowContext, error) {
	if session == nil {
		return nil, domainerror.ErrSessionIDRequired
	}
	if session.ChallengeType == model.ChallengeTypeValidatePIOnAttach {
		return e.handleValidatePIOnAttach(ctx, session)
	}
	return e.GetThreeDSMethodURL(ctx, accountID, browser, session)
}

// handleValidatePIOnAttach settles a zero-value validation challenge without
// any 3DS round.
func (e *engine) handleValidatePIOnAttach(ctx context.Context, session *model.PaymentSession) (*model.BrowserFlowContext, error) {
	r := service.Execute(ctx, e.SafetyNet, service.OpGetSession, model.FeaturesFromContext(ctx), func(ctx context.Context) (*model.StoredSession, error) {
		return e.getSession(ctx, session.ID)
	})
	if r.Excluded() {
		return nil, r.Err
	}
	s := r.Value

	valid, err := e.validatePI(ctx, s)
	if err != nil {
		return nil, err
	}

	ps := session.Clone()
	ps.Status = model.ChallengeStatusSucceeded
	if !valid {
		ps.Status = model.ChallengeStatusFailed
	}

	if s != nil {
		s.SetStatus(ps.Status)
		if err := e.safetyNetUpdate(ctx, s); err != nil {
			return nil, err
		}
		e.resolved(ctx, RoundValidatePI, s)
	}
	return &model.BrowserFlowContext{PaymentSession: e.sign(ps)}, nil
}

func (e *engine) GetThreeDSMethodURL(
	ctx context.Context,
	accountID string,
	browser *model.BrowserInfo,
	session *model.PaymentSession,
) (fc *model.BrowserFlowContext, err error) {
	if session == nil {
		return nil, domainerror.ErrSessionIDRequired
	}

	var s *model.StoredSession
	delegated := false
	defer func() {
		// A delegated authenticate round already ran its own finally.
		if s == nil || delegated {
			return
		}
		verified := fc != nil && fc.PaymentSession != nil && fc.PaymentSession.Status == model.ChallengeStatusSucceeded
		if ferr := e.updateSessionOnFinally(ctx, s, accountID, s.ID, verified); ferr != nil && err == nil {
			fc, err = nil, ferr
		}
	}()

	s, err = e.getSession(ctx, session.ID)
	if err != nil {
		return e.browserRoundFailed(RoundFingerprint, session.Clone(), nil, err)
	}

	method, err := e.Authentication.GetMethodURL(ctx, s.ProtocolSessionID, browser)
	if err != nil {
		return e.browserRoundFailed(RoundFingerprint, session.Clone(), s, fmt.Errorf("failed to get method url: %w", err))
	}
	s.BrowserInfo = browser
	s.MethodData = method

	skip := s.Features.Has(model.FlagSkipFingerprint)
	if !method.HasMethodURL() || skip {
		indicator := model.MethodCompletionU
		if method.HasMethodURL() {
			indicator = model.MethodCompletionN
		}

		delegated = true
		authenticated, aerr := e.authenticate(ctx, s, accountID, indicator)
		if aerr == nil {
			return authenticated, nil
		}
		fc, err = e.browserRoundFailed(RoundAuthenticate, s.Public(), s, aerr)
		if err != nil {
			return nil, err
		}
		if err := e.safetyNetUpdate(ctx, s); err != nil {
			return nil, err
		}
		return fc, nil
	}

	data, err := encodeFormInput(model.MethodNotification{
		ThreeDSServerTransID:         method.ThreeDSServerTransID,
		ThreeDSMethodNotificationURL: e.notificationURL(s.ID, actionAuthenticate),
	})
	if err != nil {
		return e.browserRoundFailed(RoundFingerprint, session.Clone(), s, err)
	}

	return &model.BrowserFlowContext{
		PaymentSession:             e.sign(s.Public()),
		IsFingerPrintRequired:      true,
		FormActionURL:              method.MethodURL,
		FormInputThreeDSMethodData: data,
	}, nil
}

func (e *engine) AuthenticateBrowser(ctx context.Context, sessionID string, methodCompleted bool) (*model.BrowserFlowContext, error) {
	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return e.browserRoundFailed(RoundAuthenticate, &model.PaymentSession{
			ID:                  sessionID,
			IsChallengeRequired: true,
		}, nil, err)
	}

	indicator := model.MethodCompletionN
	if methodCompleted {
		indicator = model.MethodCompletionY
	}

	fc, err := e.authenticate(ctx, s, "", indicator)
	if err == nil {
		return fc, nil
	}

	fc, err = e.browserRoundFailed(RoundAuthenticate, s.Public(), s, err)
	if err != nil {
		return nil, err
	}
	if err := e.safetyNetUpdate(ctx, s); err != nil {
		return nil, err
	}
	return fc, nil
}

// browserRoundFailed replaces a failed browser round with the safety-net
// context and records the failure on s when it was loaded. Excluded errors
// are returned unchanged.
func (e *engine) browserRoundFailed(
	round string,
	ps *model.PaymentSession,
	s *model.StoredSession,
	err error,
) (*model.BrowserFlowContext, error) {
	if service.IsExcluded(err) {
		return nil, err
	}
	e.roundFailed(round, ps.ID, err)

	fc := e.safetyNetBrowserContext(ps, s)
	if s != nil {
		s.MarkSystemError()
		s.SetStatus(fc.PaymentSession.Status)
	}
	return fc, nil
}

// authenticate runs the browser authenticate step on a loaded session. Its
// finally persists and attests; a failure marks s as a system error and is
// returned for the caller to replace.
func (e *engine) authenticate(
	ctx context.Context,
	s *model.StoredSession,
	accountID string,
	indicator model.MethodCompletionIndicator,
) (fc *model.BrowserFlowContext, err error) {
	if accountID == "" {
		accountID = s.ResolveAccountID()
	}

	verified := false
	defer func() {
		if ferr := e.updateSessionOnFinally(ctx, s, accountID, s.ID, verified); ferr != nil && err == nil {
			fc, err = nil, ferr
		}
	}()

	fc, verified, err = e.authenticateBrowser(ctx, s, accountID, indicator)
	if err != nil {
		verified = true
		s.MarkSystemError()
		return nil, err
	}
	return fc, nil
}

func (e *engine) authenticateBrowser(
	ctx context.Context,
	s *model.StoredSession,
	accountID string,
	indicator model.MethodCompletionIndicator,
) (*model.BrowserFlowContext, bool, error) {
	req := &model.AuthenticationRequest{
		ProtocolSessionID:         s.ProtocolSessionID,
		AccountID:                 accountID,
		PaymentInstrumentID:       s.PaymentInstrumentID,
		DeviceChannel:             model.DeviceChannelBrowser,
		BrowserInfo:               s.BrowserInfo,
		MethodCompletionIndicator: indicator,
		NotificationURL:           e.notificationURL(s.ID, actionNotifyChallengeCompleted),
		ChallengeIndicator:        model.ChallengeIndicatorNoPreference,
		MessageVersion:            model.DefaultMessageVersion,
		IsMOTO:                    s.IsMOTO,
	}
	if s.MethodData != nil {
		req.ThreeDSServerTransID = s.MethodData.ThreeDSServerTransID
	}
	if s.IsGuestCheckout {
		req.ChallengeIndicator = model.ChallengeIndicatorChallengeRequested
	}

	result, err := e.Authentication.Authenticate(ctx, req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to authenticate: %w", err)
	}
	s.RecordTransaction(result.TransStatus, result.TransStatusReason)

	status := service.NewStatusMapper(s.Features).MapAuthentication(result.TransStatus, result.TransStatusReason, s.IsMOTO)
	if status != model.ChallengeStatusUnknown {
		s.SetStatus(status)
		e.resolved(ctx, RoundAuthenticate, s)
		return &model.BrowserFlowContext{
			PaymentSession: e.sign(s.Public()),
			CardHolderInfo: result.CardHolderInfo,
		}, status.IsAuthenticationVerified(), nil
	}

	s.AuthenticationResponse = result

	windowSize := s.ChallengeWindowSize
	if s.BrowserInfo != nil && s.BrowserInfo.ChallengeWindow != "" {
		windowSize = s.BrowserInfo.ChallengeWindow
	}
	window, err := model.LookupChallengeWindow(windowSize)
	if err != nil {
		return nil, false, err
	}

	messageVersion := result.MessageVersion
	if messageVersion == "" {
		messageVersion = model.DefaultMessageVersion
	}
	creq, err := encodeChallengeInput(model.ChallengeRequest{
		ThreeDSServerTransID: result.ThreeDSServerTransID,
		ACSTransID:           result.ACSTransID,
		MessageType:          model.MessageTypeCReq,
		MessageVersion:       messageVersion,
		ChallengeWindowSize:  window.Size,
	})
	if err != nil {
		return nil, false, err
	}
	sessionData, err := encodeChallengeInput(model.ThreeDSSessionData{
		ThreeDSServerTransID: result.ThreeDSServerTransID,
		ACSTransID:           result.ACSTransID,
	})
	if err != nil {
		return nil, false, err
	}

	return &model.BrowserFlowContext{
		PaymentSession:              e.sign(s.Public()),
		IsAcsChallengeRequired:      true,
		FormActionURL:               result.ACSURL,
		FormInputCReq:               creq,
		FormInputThreeDSSessionData: sessionData,
		ChallengeWindowWidth:        window.Width,
		ChallengeWindowHeight:       window.Height,
		TransactionSessionID:        result.TransactionSessionID,
		CardHolderInfo:              result.CardHolderInfo,
	}, false, nil
}

func (e *engine) AuthenticateThreeDSOne(ctx context.Context, sessionID string) (out *model.ThreeDSOneChallenge, err error) {
	var s *model.StoredSession
	verified := false
	defer func() {
		if s == nil {
			return
		}
		if ferr := e.updateSessionOnFinally(ctx, s, "", sessionID, verified); ferr != nil && err == nil {
			out, err = nil, ferr
		}
	}()

	s, err = e.getSession(ctx, sessionID)
	if err != nil {
		return e.threeDSOneFailed(sessionID, nil, err)
	}

	result, err := e.Authentication.AuthenticateThreeDSOne(ctx, &model.AuthenticationRequest{
		ProtocolSessionID:   s.ProtocolSessionID,
		AccountID:           s.ResolveAccountID(),
		PaymentInstrumentID: s.PaymentInstrumentID,
		DeviceChannel:       model.DeviceChannelBrowser,
		BrowserInfo:         s.BrowserInfo,
		NotificationURL:     e.notificationURL(s.ID, actionNotifyThreeDSOneCompleted),
		MessageVersion:      threeDSOneMessageVersion,
	})
	if err != nil {
		return e.threeDSOneFailed(sessionID, s, fmt.Errorf("failed to authenticate 3ds1: %w", err))
	}

	s.RecordTransaction(result.TransStatus, "")
	status := service.MapThreeDSOneAuthentication(result.TransStatus)
	s.SetStatus(status)
	e.resolved(ctx, RoundAuthenticate3DS1, s)

	if status != model.ChallengeStatusUnknown {
		verified = status.IsAuthenticationVerified()
		return &model.ThreeDSOneChallenge{PaymentSession: e.sign(s.Public())}, nil
	}

	s.AuthenticationResponse = &model.AuthenticationResult{
		TransStatus: result.TransStatus,
		ACSURL:      result.RedirectURL,
	}
	if err := e.updateSession(ctx, s); err != nil {
		return e.threeDSOneFailed(sessionID, s, err)
	}

	return &model.ThreeDSOneChallenge{
		PaymentSession: e.sign(s.Public()),
		RedirectURL:    result.RedirectURL,
		FormFields:     result.FormFields,
	}, nil
}

func (e *engine) threeDSOneFailed(sessionID string, s *model.StoredSession, err error) (*model.ThreeDSOneChallenge, error) {
	if service.IsExcluded(err) {
		return nil, err
	}
	if s != nil {
		s.MarkSystemError()
	}
	e.roundFailed(RoundAuthenticate3DS1, sessionID, err)
	return &model.ThreeDSOneChallenge{PaymentSession: e.safetyNetSession(sessionID)}, nil
}
