package httpclient

import (
	"context"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

const authenticationServiceName = "authentication-service"

// authenticationService implements gateway.AuthenticationService against
// the 3DS server.
type authenticationService struct {
	c *serviceClient
}

// NewAuthenticationService creates a new AuthenticationService.
func NewAuthenticationService(ep Endpoint, logger log.Logger) gateway.AuthenticationService {
	if ep.APIVersion == "" {
		ep.APIVersion = "2019-04-16"
	}
	return &authenticationService{c: newServiceClient(authenticationServiceName, ep, logger)}
}

type createSessionRequest struct {
	PaymentSessionData *model.PaymentSessionData `json:"paymentSessionData"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

func (s *authenticationService) CreateSessionID(ctx context.Context, data *model.PaymentSessionData) (string, error) {
	var resp createSessionResponse
	if err := s.c.post(ctx, "/CreatePaymentSessionId", createSessionRequest{PaymentSessionData: data}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", s.c.missing("id")
	}
	return resp.ID, nil
}

type methodURLRequest struct {
	SessionID   string             `json:"sessionId"`
	BrowserInfo *model.BrowserInfo `json:"browserInfo,omitempty"`
}

func (s *authenticationService) GetMethodURL(ctx context.Context, sessionID string, browser *model.BrowserInfo) (*model.MethodData, error) {
	var data model.MethodData
	if err := s.c.post(ctx, "/GetThreeDSMethodURL", methodURLRequest{SessionID: sessionID, BrowserInfo: browser}, &data); err != nil {
		return nil, err
	}
	if data.ThreeDSServerTransID == "" {
		return nil, s.c.missing("threeDSServerTransID")
	}
	return &data, nil
}

func (s *authenticationService) Authenticate(ctx context.Context, req *model.AuthenticationRequest) (*model.AuthenticationResult, error) {
	var res model.AuthenticationResult
	if err := s.c.post(ctx, "/Authenticate", req, &res); err != nil {
		return nil, err
	}
	if res.EnrollmentStatus != model.EnrollmentStatusBypassed && res.ACSTransID == "" {
		return nil, s.c.missing("acsTransID")
	}
	if err := s.checkChallengeFields(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// checkChallengeFields rejects an enrolled result that cannot be rendered on
// the request's channel.
func (s *authenticationService) checkChallengeFields(req *model.AuthenticationRequest, res *model.AuthenticationResult) error {
	if res.EnrollmentStatus != model.EnrollmentStatusEnrolled {
		return nil
	}
	switch req.DeviceChannel {
	case model.DeviceChannelBrowser:
		if res.ACSURL == "" {
			return s.c.missing("acsURL")
		}
	case model.DeviceChannelApp:
		if res.ACSSignedContent == "" || res.ThreeDSServerTransID == "" {
			return s.c.missing("acsSignedContent")
		}
	}
	return nil
}

type threeDSOneResponse struct {
	model.AuthenticationResult
	RedirectURL string            `json:"redirectUrl,omitempty"`
	FormFields  map[string]string `json:"formFields,omitempty"`
}

func (s *authenticationService) AuthenticateThreeDSOne(ctx context.Context, req *model.AuthenticationRequest) (*model.ThreeDSOneAuthenticationResult, error) {
	var res threeDSOneResponse
	if err := s.c.post(ctx, "/Authenticate", req, &res); err != nil {
		return nil, err
	}
	if err := s.checkChallengeFields(req, &res.AuthenticationResult); err != nil {
		return nil, err
	}

	redirect := res.RedirectURL
	if redirect == "" {
		redirect = res.ACSURL
	}
	return &model.ThreeDSOneAuthenticationResult{
		TransStatus: res.TransStatus,
		RedirectURL: redirect,
		FormFields:  res.FormFields,
	}, nil
}

func (s *authenticationService) CompleteChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	return s.complete(ctx, "/CompleteChallenge", req)
}

func (s *authenticationService) CompleteThreeDSOneChallenge(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	return s.complete(ctx, "/CompleteThreeDSOneChallenge", req)
}

func (s *authenticationService) complete(ctx context.Context, path string, req *model.CompletionRequest) (*model.CompletionResult, error) {
	var res *model.CompletionResult
	if err := s.c.post(ctx, path, req, &res); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, s.c.missing("completion result")
	}
	return res, nil
}
