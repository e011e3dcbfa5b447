package exec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emarden/agentarena/internal/adapters/storage"
	"github.com/emarden/agentarena/internal/book"
	"github.com/emarden/agentarena/internal/exec"
)

func newAccounts(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestExecute_OpensBookAndPersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newAccounts(t)
	ex := exec.New(store, nil, "comp-1", "BTCUSDT", 100000)

	executed, err := ex.Execute(ctx, "a1", book.OrderBuy, 1, 50000)
	require.NoError(t, err)
	assert.True(t, executed)

	equity, ok := ex.Equity("a1")
	require.True(t, ok)
	assert.InDelta(t, 100000, equity, 0.001)

	account, err := store.GetAccount(ctx, "a1", "comp-1")
	require.NoError(t, err)
	assert.InDelta(t, 50000, account.Cash, 0.001)
	require.Contains(t, account.Positions, "BTCUSDT")
	assert.InDelta(t, 1.0, account.Positions["BTCUSDT"].Size, 1e-9)
	assert.InDelta(t, 50000, account.Positions["BTCUSDT"].AvgPrice, 0.001)
}

func TestExecute_RejectedOrderIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newAccounts(t)
	ex := exec.New(store, nil, "comp-1", "BTCUSDT", 1000)

	executed, err := ex.Execute(ctx, "a1", book.OrderBuy, 1, 50000)
	require.NoError(t, err)
	assert.False(t, executed)

	// A rejected order still opens the in-memory book but persists nothing.
	equity, ok := ex.Equity("a1")
	require.True(t, ok)
	assert.Equal(t, 1000.0, equity)
	_, err = store.GetAccount(ctx, "a1", "comp-1")
	require.Error(t, err)
}

func TestHandleTick_RemarksAndPersistsAllBooks(t *testing.T) {
	ctx := context.Background()
	store := newAccounts(t)
	ex := exec.New(store, nil, "comp-1", "BTCUSDT", 100000)

	_, err := ex.Execute(ctx, "a1", book.OrderBuy, 1, 50000)
	require.NoError(t, err)
	_, err = ex.Execute(ctx, "a2", book.OrderBuy, 2, 50000)
	require.NoError(t, err)

	require.NoError(t, ex.HandleTick(ctx, 51000))

	equity, ok := ex.Equity("a1")
	require.True(t, ok)
	assert.InDelta(t, 101000, equity, 0.001)
	equity, ok = ex.Equity("a2")
	require.True(t, ok)
	assert.InDelta(t, 102000, equity, 0.001)

	account, err := store.GetAccount(ctx, "a2", "comp-1")
	require.NoError(t, err)
	assert.InDelta(t, 102000, account.Equity, 0.001)
}

func TestExecute_RestoresBookFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newAccounts(t)

	first := exec.New(store, nil, "comp-1", "BTCUSDT", 100000)
	_, err := first.Execute(ctx, "a1", book.OrderBuy, 1, 50000)
	require.NoError(t, err)

	// A fresh executor (post-restart) picks the book up where it left off
	// rather than reopening at initial cash.
	second := exec.New(store, nil, "comp-1", "BTCUSDT", 100000)
	executed, err := second.Execute(ctx, "a1", book.OrderSell, 1, 52000)
	require.NoError(t, err)
	assert.True(t, executed)

	equity, ok := second.Equity("a1")
	require.True(t, ok)
	assert.InDelta(t, 102000, equity, 0.001)
}

func TestEquity_UnknownAgent(t *testing.T) {
	ex := exec.New(newAccounts(t), nil, "comp-1", "BTCUSDT", 100000)
	_, ok := ex.Equity("nobody")
	assert.False(t, ok)
}
