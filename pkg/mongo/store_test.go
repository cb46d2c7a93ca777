package mongo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/securekey/authcore/pkg/account"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/mongo"
)

func setupDatabase(t *testing.T) *mongodriver.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mongo container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  fmt.Sprintf("mongodb://%s", endpoint),
		Database:       "authcore_test",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  5,
		RetryInterval:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	require.NoError(t, mongo.Healthcheck(db.Client())(ctx))

	return db
}

func TestStores(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	t.Run("accounts", func(t *testing.T) {
		store, err := mongo.NewAccountStore(ctx, db.Collection("accounts"))
		require.NoError(t, err)

		saved, err := store.Save(ctx, account.New("Bob@Example.com", "hash"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		byEmail, err := store.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, byEmail.ID)

		_, err = store.Save(ctx, account.New("bob@example.com", "other"))
		assert.ErrorIs(t, err, account.ErrEmailTaken)

		next := byEmail.Clone()
		next.FailedLoginAttempts = 1
		next.UnlockToken = account.UnlockToken{Value: "tok", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
		updated, err := store.Save(ctx, next)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)

		byToken, err := store.FindByUnlockToken(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, 1, byToken.FailedLoginAttempts)

		_, err = store.Save(ctx, byEmail)
		assert.ErrorIs(t, err, account.ErrVersionConflict)

		require.NoError(t, store.Delete(ctx, saved.ID))
		_, err = store.FindByID(ctx, saved.ID)
		assert.ErrorIs(t, err, account.ErrNotFound)

		_, err = store.Save(ctx, updated)
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("audit events", func(t *testing.T) {
		store, err := mongo.NewAuditStore(ctx, db.Collection("audit_events"))
		require.NoError(t, err)

		id := uuid.New()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.StoreBatch(ctx, []audit.Event{
			{ID: uuid.New(), AccountID: id, Action: audit.ActionLoginFailed, Result: audit.ResultFailure, CreatedAt: base},
			{ID: uuid.New(), AccountID: id, Action: audit.ActionAccountLocked, Result: audit.ResultSuccess, CreatedAt: base.Add(time.Second)},
			{ID: uuid.New(), Action: audit.ActionLoginFailed, Result: audit.ResultFailure, CreatedAt: base.Add(2 * time.Second)},
		}))

		events, err := store.Query(ctx, audit.Criteria{AccountID: id})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionAccountLocked, events[0].Action)

		events, err = store.Query(ctx, audit.Criteria{Actions: []audit.Action{audit.ActionLoginFailed}, Limit: 1})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, uuid.Nil, events[0].AccountID)
	})
}
