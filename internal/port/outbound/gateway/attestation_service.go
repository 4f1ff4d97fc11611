package gateway

import "context"

// AttestationService records whether a purchase was step-up verified.
type AttestationService interface {
	UpdateChallengeAttestation(ctx context.Context, accountID, sessionID string, verified bool) error
}
