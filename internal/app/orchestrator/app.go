package orchestrator

import (
	"context"
	"fmt"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

func (e *engine) AuthenticateApp(
	ctx context.Context,
	accountID string,
	sessionID string,
	req *model.AppAuthenticationRequest,
) (resp *model.AuthenticationResponse, err error) {
	if req == nil {
		req = &model.AppAuthenticationRequest{}
	}

	var s *model.StoredSession
	verified := true
	defer func() {
		if ferr := e.updateSessionOnFinally(ctx, s, accountID, sessionID, verified); ferr != nil && err == nil {
			resp, err = nil, ferr
		}
	}()

	s, err = e.getSession(ctx, sessionID)
	if err != nil {
		return e.appRoundFailed(sessionID, nil, err)
	}

	if s.Features.Has(model.FlagAuthenticateChallengeTypeOnStoredSession) &&
		s.ChallengeType == model.ChallengeTypeValidatePIOnAttach {
		return safetyNetAuthenticationResponse(), nil
	}

	if accountID == "" {
		accountID = s.ResolveAccountID()
	}
	messageVersion := req.MessageVersion
	if messageVersion == "" {
		messageVersion = model.DefaultMessageVersion
	}

	authReq := &model.AuthenticationRequest{
		ProtocolSessionID:   s.ProtocolSessionID,
		AccountID:           accountID,
		PaymentInstrumentID: s.PaymentInstrumentID,
		DeviceChannel:       model.DeviceChannelApp,
		ChallengeIndicator:  model.ChallengeIndicatorNoPreference,
		MessageVersion:      messageVersion,
		Language:            req.Language,
		SDK:                 &req.SDK,
		IsMOTO:              s.IsMOTO,
	}
	if s.Features.Has(model.FlagEnforcePreferredChallengeIndicator) {
		authReq.ChallengeIndicator = model.ChallengeIndicatorChallengeRequested
	}

	result, err := e.Authentication.Authenticate(ctx, authReq)
	if err != nil {
		return e.appRoundFailed(sessionID, s, fmt.Errorf("failed to authenticate: %w", err))
	}
	s.RecordTransaction(result.TransStatus, result.TransStatusReason)

	status := service.NewStatusMapper(s.Features).MapAuthentication(result.TransStatus, result.TransStatusReason, s.IsMOTO)
	if status == model.ChallengeStatusUnknown &&
		s.Features.Has(model.FlagServiceSideCertificateValidation) &&
		e.Certificates != nil {
		status = e.Certificates.Validate(s, result.ACSSignedContent, status)
	}

	verified = status.IsAuthenticationVerified()
	s.AuthenticationResponse = result
	s.SetStatus(status)
	e.resolved(ctx, RoundAuthenticateApp, s)

	resp = model.NewAuthenticationResponse(result, status)
	resp.DisplayStrings = e.Localizer.ChallengeStrings(req.Language)
	if resp.MessageVersion == "" {
		resp.MessageVersion = messageVersion
	}
	return resp, nil
}

func (e *engine) appRoundFailed(sessionID string, s *model.StoredSession, err error) (*model.AuthenticationResponse, error) {
	if service.IsExcluded(err) {
		return nil, err
	}
	if s != nil {
		s.MarkSystemError()
		s.SetStatus(model.ChallengeStatusSucceeded)
	}
	e.roundFailed(RoundAuthenticateApp, sessionID, err)
	return safetyNetAuthenticationResponse(), nil
}
