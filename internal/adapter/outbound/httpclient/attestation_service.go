package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/retry"

	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

const attestationServiceName = "attestation-service"

// attestationService implements gateway.AttestationService.
type attestationService struct {
	c     *serviceClient
	retry retry.Config
}

// NewAttestationService creates a new AttestationService. A failed update
// is tried once more before the error is returned.
func NewAttestationService(ep Endpoint, logger log.Logger) gateway.AttestationService {
	return &attestationService{
		c: newServiceClient(attestationServiceName, ep, logger),
		retry: retry.DefaultConfig().
			WithMaxAttempts(2).
			WithConstantBackoff(50 * time.Millisecond).
			WithRetryAll(),
	}
}

type attestationRequest struct {
	AuthenticationVerified bool `json:"authenticationVerified"`
}

func (s *attestationService) UpdateChallengeAttestation(ctx context.Context, accountID, sessionID string, verified bool) error {
	if accountID == "" || sessionID == "" {
		return nil
	}

	path := fmt.Sprintf("/transactiondata/%s/data/%s", url.PathEscape(accountID), url.PathEscape(sessionID))
	return retry.DoWithConfig(ctx, s.retry, func() error {
		return s.c.post(ctx, path, attestationRequest{AuthenticationVerified: verified}, nil)
	})
}
