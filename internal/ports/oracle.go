package ports

import (
	"context"

	"github.com/emarden/agentarena/internal/domain"
)

// Oracle provides market prices and categorical outcomes at settlement time.
// Implementations wrap domain.ErrOracleUnavailable when data cannot be
// fetched, so the scheduler can defer settlement to the next tick.
type Oracle interface {
	// SettlementPrices returns the reference prices at the competition's
	// start and settle boundaries.
	SettlementPrices(ctx context.Context, c domain.Competition) (priceStart, priceEnd float64, err error)

	// Outcome returns the categorical outcome for accuracy-scoring
	// competitions (e.g. "LONG" when the market closed above its start).
	Outcome(ctx context.Context, c domain.Competition) (string, error)

	// CurrentPrice returns the latest spot price for a symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}
