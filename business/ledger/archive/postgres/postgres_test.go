//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ardanlabs/ledger/business/ledger/archive"
	"github.com/ardanlabs/ledger/business/ledger/archive/postgres"
)

// setupStore starts a throwaway Postgres container, connects a store
// and applies the schema. The returned cleanup must be deferred.
func setupStore(t *testing.T) (*postgres.Store, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("ledger"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "connection string")

	store, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err, "create store")

	require.NoError(t, store.Migrate(ctx), "migrate")

	cleanup := func() {
		store.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return store, cleanup
}

func TestStore_WriteAndQuery(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	account := "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	at := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

	evts := []archive.Event{
		{Seq: 1, Kind: "transfer", Account: account, Amount: 250, At: at},
		{Seq: 2, Kind: "payroll", Account: account, Amount: 1100, Meta: map[string]string{"period": "202505"}, At: at.Add(time.Minute)},
		{Seq: 3, Kind: "transfer", Account: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", Amount: 50, At: at.Add(2 * time.Minute)},
	}
	require.NoError(t, store.WriteBatch(ctx, evts), "write batch")

	got, err := store.EventsByAccount(ctx, account)
	require.NoError(t, err, "query by account")
	require.Len(t, got, 2)

	require.Equal(t, uint64(1), got[0].Seq)
	require.Equal(t, "transfer", got[0].Kind)
	require.Equal(t, uint64(250), got[0].Amount)

	require.Equal(t, uint64(2), got[1].Seq)
	require.Equal(t, "202505", got[1].Meta["period"])
}

func TestStore_ReplayIsIgnored(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	account := "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"

	evt := archive.Event{Seq: 7, Kind: "swap", Account: account, Amount: 100, At: time.Now().UTC()}
	require.NoError(t, store.Write(ctx, evt))

	// Replaying the same sequence number must not produce a second row
	// or an error.
	evt.Amount = 999
	require.NoError(t, store.Write(ctx, evt))

	got, err := store.EventsByAccount(ctx, account)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint64(100), got[0].Amount)
}
