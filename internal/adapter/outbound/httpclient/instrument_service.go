package httpclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

const instrumentServiceName = "instrument-service"

// instrumentService implements gateway.InstrumentService.
type instrumentService struct {
	c *serviceClient
}

// NewInstrumentService creates a new InstrumentService.
func NewInstrumentService(ep Endpoint, logger log.Logger) gateway.InstrumentService {
	if ep.APIVersion == "" {
		ep.APIVersion = "v4.0"
	}
	return &instrumentService{c: newServiceClient(instrumentServiceName, ep, logger)}
}

func (s *instrumentService) GetInstrument(ctx context.Context, accountID, piid string) (*model.PaymentInstrument, error) {
	var pi model.PaymentInstrument
	path := fmt.Sprintf("/%s/paymentInstruments/%s", url.PathEscape(accountID), url.PathEscape(piid))
	if err := s.c.get(ctx, path, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (s *instrumentService) GetExtendedInstrument(ctx context.Context, piid string) (*model.PaymentInstrument, error) {
	var pi model.PaymentInstrument
	path := fmt.Sprintf("/paymentInstruments/%s/extendedView", url.PathEscape(piid))
	if err := s.c.get(ctx, path, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (s *instrumentService) ValidateInstrument(ctx context.Context, req *model.ValidationRequest) (*model.ValidationResult, error) {
	var result model.ValidationResult
	path := fmt.Sprintf("/%s/paymentInstruments/%s/validate", url.PathEscape(req.AccountID), url.PathEscape(req.PaymentInstrumentID))
	if err := s.c.post(ctx, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type linkSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *instrumentService) LinkSession(ctx context.Context, accountID, piid, sessionID string) error {
	path := fmt.Sprintf("/%s/paymentInstruments/%s/LinkTransaction", url.PathEscape(accountID), url.PathEscape(piid))
	return s.c.post(ctx, path, linkSessionRequest{SessionID: sessionID}, nil)
}
