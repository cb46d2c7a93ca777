package pg_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/pg"
)

func TestAuditStore(t *testing.T) {
	store := pg.NewAuditStore(setupPool(t))
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	alice := uuid.New()
	event := func(acc uuid.UUID, action audit.Action, offset time.Duration) audit.Event {
		return audit.Event{
			ID: uuid.New(), AccountID: acc, Action: action, Result: audit.ResultSuccess,
			CreatedAt: base.Add(offset),
		}
	}

	failed := event(alice, audit.ActionLoginFailed, time.Minute)
	failed.Result = audit.ResultFailure
	failed.Reason = "invalid credentials"
	failed.Metadata = map[string]any{"attempts": 2}

	require.NoError(t, store.StoreBatch(ctx, []audit.Event{
		event(alice, audit.ActionRegistered, 0),
		failed,
		event(uuid.Nil, audit.ActionLoginFailed, 2*time.Minute),
	}))
	require.NoError(t, store.Store(ctx, event(alice, audit.ActionAccountLocked, 3*time.Minute)))

	t.Run("by account newest first", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Criteria{AccountID: alice})
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, audit.ActionAccountLocked, events[0].Action)
		assert.Equal(t, audit.ActionRegistered, events[2].Action)

		got := events[1]
		assert.Equal(t, failed.ID, got.ID)
		assert.Equal(t, audit.ResultFailure, got.Result)
		assert.Equal(t, "invalid credentials", got.Reason)
		assert.EqualValues(t, 2, got.Metadata["attempts"])
		assert.True(t, failed.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("by action and since", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Criteria{
			Actions: []audit.Action{audit.ActionLoginFailed},
			Since:   base.Add(90 * time.Second),
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, uuid.Nil, events[0].AccountID)
	})

	t.Run("limit", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Criteria{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("invalid event rejects batch", func(t *testing.T) {
		err := store.StoreBatch(ctx, []audit.Event{event(alice, audit.ActionTotpEnabled, 4*time.Minute), {}})
		assert.ErrorIs(t, err, pg.ErrQueryFailed)

		events, err := store.Query(ctx, audit.Criteria{Actions: []audit.Action{audit.ActionTotpEnabled}})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
