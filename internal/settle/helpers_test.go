package settle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/emarden/agentarena/internal/adapters/storage"
	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ledger"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createAgent(t *testing.T, store *storage.SQLiteStorage, id, name string) {
	t.Helper()
	err := store.CreateAgent(context.Background(), domain.Agent{
		ID:         id,
		Name:       name,
		Active:     true,
		TrustScore: 0.5,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
}

func createLockedCompetition(t *testing.T, store *storage.SQLiteStorage, c domain.Competition) domain.Competition {
	t.Helper()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = "test-" + c.ID[:8]
	}
	if c.Market == "" {
		c.Market = "BTCUSDT"
	}
	if c.Status == "" {
		c.Status = domain.StatusLocked
	}
	now := time.Now().UTC()
	if c.StartTime.IsZero() {
		c.StartTime = now.Add(-30 * time.Minute)
	}
	if c.LockTime.IsZero() {
		c.LockTime = now.Add(-time.Second)
	}
	if c.SettleTime.IsZero() {
		c.SettleTime = now
	}
	require.NoError(t, store.CreateCompetition(context.Background(), c))
	return c
}

func submit(t *testing.T, store *storage.SQLiteStorage, compID, agentID string, action domain.Action, stake, confidence float64) {
	t.Helper()
	err := store.SaveSubmission(context.Background(), domain.Submission{
		ID:            uuid.New().String(),
		CompetitionID: compID,
		AgentID:       agentID,
		Action:        action,
		Stake:         stake,
		Confidence:    confidence,
		SubmittedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

// failingScoreStore fails the first n SaveScore calls, simulating a
// settlement run that dies before its first durable write.
type failingScoreStore struct {
	*storage.SQLiteStorage
	failures int
}

func (f *failingScoreStore) SaveScore(ctx context.Context, sc domain.Score) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.SQLiteStorage.SaveScore(ctx, sc)
}

// failingLedgerStore fails the first n AppendLedgerEvent calls, simulating
// a settlement run that dies after its first durable write.
type failingLedgerStore struct {
	*storage.SQLiteStorage
	failures int
}

func (f *failingLedgerStore) AppendLedgerEvent(ctx context.Context, e domain.LedgerEvent) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.SQLiteStorage.AppendLedgerEvent(ctx, e)
}

func agentBalance(t *testing.T, led *ledger.Ledger, agentID string) float64 {
	t.Helper()
	balance, err := led.Balance(context.Background(), agentID)
	require.NoError(t, err)
	return balance
}
