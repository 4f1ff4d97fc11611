package gateway

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// InstrumentService is the payment instrument management service.
type InstrumentService interface {
	// GetInstrument reads an instrument through the owning account.
	// Fails with a ServiceError when the account does not own it.
	GetInstrument(ctx context.Context, accountID, piid string) (*model.PaymentInstrument, error)

	// GetExtendedInstrument reads an instrument without an ownership check,
	// including its challenge requirements.
	GetExtendedInstrument(ctx context.Context, piid string) (*model.PaymentInstrument, error)

	// ValidateInstrument runs a zero-value authorization against the instrument.
	ValidateInstrument(ctx context.Context, req *model.ValidationRequest) (*model.ValidationResult, error)

	// LinkSession associates a challenge session with the instrument.
	LinkSession(ctx context.Context, accountID, piid, sessionID string) error
}
