package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// toSessionRow serializes a stored session. The row expires ttl after the
// session was created.
func toSessionRow(s *model.StoredSession, ttl time.Duration) (sessionRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return sessionRow{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	createdAt := s.CreatedAt.Time()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := s.UpdatedAt.Time()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return sessionRow{
		ID:             s.ID,
		HandlerVersion: string(s.HandlerVersion),
		Payload:        payload,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		ExpiresAt:      createdAt.Add(ttl),
	}, nil
}

func toSessionModel(row sessionRow) (*model.StoredSession, error) {
	var s model.StoredSession
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", row.ID, err)
	}
	return &s, nil
}

func toInstrumentSessionPayload(record *model.PaymentInstrumentSession) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instrument session: %w", err)
	}
	return payload, nil
}

func toInstrumentSessionModel(payload []byte) (*model.PaymentInstrumentSession, error) {
	var record model.PaymentInstrumentSession
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instrument session: %w", err)
	}
	return &record, nil
}
