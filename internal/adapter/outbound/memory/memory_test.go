package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := New(ttl)
	t.Cleanup(func() { s.Close() })
	return s
}

func newStoredSession(id string) *model.StoredSession {
	return &model.StoredSession{
		PaymentSession: model.PaymentSession{
			ID:                  id,
			Status:              model.ChallengeStatusUnknown,
			PaymentInstrumentID: "pi_1",
		},
		ProtocolSessionID: "3ds_" + id,
	}
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create get update", func(t *testing.T) {
		sessions := newTestStore(t, time.Hour).Sessions()
		require.NoError(t, sessions.Create(ctx, newStoredSession("ps_1")))

		updated := newStoredSession("ps_1")
		updated.Status = model.ChallengeStatusFailed
		require.NoError(t, sessions.Update(ctx, updated))

		got, err := sessions.Get(ctx, "ps_1")
		require.NoError(t, err)
		assert.Equal(t, model.ChallengeStatusFailed, got.Status)
		assert.Equal(t, "3ds_ps_1", got.ProtocolSessionID)
	})

	t.Run("get twice is byte identical", func(t *testing.T) {
		sessions := newTestStore(t, time.Hour).Sessions()
		session := newStoredSession("ps_1")
		session.Features = model.NewFeatureSet("PXPSD2SettingVersionV18", "PXEnableChallengesForMOTO")
		session.TestScenarios = []string{"px-service-psd2-e2e-emulator"}
		session.Amount = 12.5
		session.AuthenticationResponse = &model.AuthenticationResult{TransStatus: model.TransactionStatusC, CardHolderInfo: "Contact your bank"}
		require.NoError(t, sessions.Create(ctx, session))

		first, err := sessions.Get(ctx, "ps_1")
		require.NoError(t, err)
		second, err := sessions.Get(ctx, "ps_1")
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

	t.Run("duplicate create", func(t *testing.T) {
		sessions := newTestStore(t, time.Hour).Sessions()
		require.NoError(t, sessions.Create(ctx, newStoredSession("ps_1")))

		assert.ErrorIs(t, sessions.Create(ctx, newStoredSession("ps_1")), repository.ErrAlreadyExists)
	})

	t.Run("missing", func(t *testing.T) {
		sessions := newTestStore(t, time.Hour).Sessions()

		_, err := sessions.Get(ctx, "ps_1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, sessions.Update(ctx, newStoredSession("ps_1")), repository.ErrNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		sessions := newTestStore(t, 20*time.Millisecond).Sessions()
		require.NoError(t, sessions.Create(ctx, newStoredSession("ps_1")))

		time.Sleep(40 * time.Millisecond)

		_, err := sessions.Get(ctx, "ps_1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		sessions := newTestStore(t, time.Hour).Sessions()
		require.NoError(t, sessions.Create(ctx, newStoredSession("ps_1")))

		got, err := sessions.Get(ctx, "ps_1")
		require.NoError(t, err)
		got.Status = model.ChallengeStatusSucceeded

		again, err := sessions.Get(ctx, "ps_1")
		require.NoError(t, err)
		assert.Equal(t, model.ChallengeStatusUnknown, again.Status)
	})
}

func TestInstrumentStore(t *testing.T) {
	ctx := context.Background()
	instruments := newTestStore(t, time.Hour).Instruments()

	_, err := instruments.Get(ctx, "pi_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	record := &model.PaymentInstrumentSession{PaymentInstrumentID: "pi_1", SessionID: "ps_1"}
	require.NoError(t, instruments.Put(ctx, record))

	got, err := instruments.Get(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestSessionCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, time.Hour)
	c := store.Cache()

	got, err := c.Get(ctx, "ps_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, newStoredSession("ps_1"), time.Minute))
	got, err = c.Get(ctx, "ps_1")
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = store.Sessions().Get(ctx, "ps_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, c.Delete(ctx, "ps_1"))
	got, err = c.Get(ctx, "ps_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
