package bbolt

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

func newTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newStoredSession(id string, created time.Time) *model.StoredSession {
	return &model.StoredSession{
		PaymentSession: model.PaymentSession{
			ID:                  id,
			Status:              model.ChallengeStatusUnknown,
			IsChallengeRequired: true,
			PaymentInstrumentID: "pi_1",
		},
		AccountID:         "acct_1",
		ProtocolSessionID: "3ds_" + id,
		CreatedAt:         types.FromTime(created),
		UpdatedAt:         types.FromTime(created),
	}
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newStore := func(t *testing.T) *SessionStore {
		s := NewSessionStore(newTestDB(t), time.Hour)
		s.now = func() time.Time { return now }
		return s
	}

	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newStoredSession("ps_1", now)))

		got, err := s.Get(ctx, "ps_1")

		require.NoError(t, err)
		assert.Equal(t, "3ds_ps_1", got.ProtocolSessionID)
		assert.True(t, got.IsChallengeRequired)
	})

	t.Run("GetTwiceByteIdentical", func(t *testing.T) {
		s := newStore(t)
		session := newStoredSession("ps_1", now)
		session.Features = model.NewFeatureSet("PXPSD2SettingVersionV18", "PXEnableChallengesForMOTO")
		session.TestScenarios = []string{"px-service-psd2-e2e-emulator"}
		session.Amount = 12.5
		session.AuthenticationResponse = &model.AuthenticationResult{TransStatus: model.TransactionStatusC, CardHolderInfo: "Contact your bank"}
		require.NoError(t, s.Create(ctx, session))

		first, err := s.Get(ctx, "ps_1")
		require.NoError(t, err)
		second, err := s.Get(ctx, "ps_1")
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))

		pa, err := json.Marshal(first.Public())
		require.NoError(t, err)
		pb, err := json.Marshal(second.Public())
		require.NoError(t, err)
		assert.Equal(t, string(pa), string(pb))
	})

	t.Run("CreateTwice", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newStoredSession("ps_1", now)))

		err := s.Create(ctx, newStoredSession("ps_1", now))

		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := newStore(t).Get(ctx, "absent")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UpdateKeepsExpiry", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newStoredSession("ps_1", now)))

		updated := newStoredSession("ps_1", now)
		updated.Status = model.ChallengeStatusSucceeded
		s.now = func() time.Time { return now.Add(30 * time.Minute) }
		require.NoError(t, s.Update(ctx, updated))

		got, err := s.Get(ctx, "ps_1")
		require.NoError(t, err)
		assert.Equal(t, model.ChallengeStatusSucceeded, got.Status)

		s.now = func() time.Time { return now.Add(61 * time.Minute) }
		_, err = s.Get(ctx, "ps_1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := newStore(t).Update(ctx, newStoredSession("ps_1", now))

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newStoredSession("old", now.Add(-2*time.Hour))))
		require.NoError(t, s.Create(ctx, newStoredSession("new", now)))

		purged, err := s.PurgeExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, purged)
		_, err = s.Get(ctx, "new")
		assert.NoError(t, err)
	})
}

func TestInstrumentSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewInstrumentSessionStore(newTestDB(t))

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "pi_1")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("PutGet", func(t *testing.T) {
		record := &model.PaymentInstrumentSession{
			PaymentInstrumentID: "pi_1",
			SessionID:           "ps_1",
			AccountID:           "acct_1",
		}
		require.NoError(t, s.Put(ctx, record))

		got, err := s.Get(ctx, "pi_1")

		require.NoError(t, err)
		assert.Equal(t, record, got)
	})
}
