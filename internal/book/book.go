package book

// book.go — per-agent paper trading book for continuous rounds.
// A pure state accumulator: orders in, cash/positions/equity out. No I/O.

import (
	"time"

	"github.com/emarden/agentarena/internal/domain"
)

// OrderAction is a book-level order instruction. Unlike a round decision,
// these operate on a running position.
type OrderAction string

const (
	OrderBuy  OrderAction = "BUY"
	OrderSell OrderAction = "SELL"
	OrderHold OrderAction = "HOLD"
)

// Book tracks one agent's simulated cash, positions and equity.
type Book struct {
	cash      float64
	positions map[string]domain.Position
	equity    float64
}

// New creates a book with the given starting cash.
func New(initialCash float64) *Book {
	return &Book{
		cash:      initialCash,
		positions: make(map[string]domain.Position),
		equity:    initialCash,
	}
}

// Restore rebuilds a book from a persisted account snapshot.
func Restore(a domain.Account) *Book {
	b := &Book{
		cash:      a.Cash,
		positions: make(map[string]domain.Position, len(a.Positions)),
		equity:    a.Equity,
	}
	for sym, pos := range a.Positions {
		b.positions[sym] = pos
	}
	return b
}

// ExecuteOrder applies one order to the book and reports whether it executed.
// BUY with insufficient cash and SELL beyond the held size are rejected
// no-ops; HOLD and unknown actions do nothing.
func (b *Book) ExecuteOrder(action OrderAction, symbol string, size, price float64) bool {
	if size <= 0 || price <= 0 {
		return false
	}
	switch action {
	case OrderBuy:
		cost := size * price
		if cost > b.cash {
			return false
		}
		b.cash -= cost
		pos := b.positions[symbol]
		newSize := pos.Size + size
		pos.AvgPrice = (pos.Size*pos.AvgPrice + cost) / newSize
		pos.Size = newSize
		b.positions[symbol] = pos
		return true
	case OrderSell:
		pos, ok := b.positions[symbol]
		if !ok || size > pos.Size {
			return false
		}
		b.cash += size * price
		pos.Size -= size
		if pos.Size == 0 {
			delete(b.positions, symbol)
		} else {
			b.positions[symbol] = pos
		}
		return true
	}
	return false
}

// MarkToMarket recomputes equity from cash plus positions valued at the
// given prices; symbols without a quote fall back to their average price.
func (b *Book) MarkToMarket(prices map[string]float64) float64 {
	total := b.cash
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.AvgPrice
		}
		total += pos.Size * price
	}
	b.equity = total
	return total
}

// Cash returns the available cash.
func (b *Book) Cash() float64 { return b.cash }

// Equity returns the last marked equity.
func (b *Book) Equity() float64 { return b.equity }

// Position returns the position for a symbol, ok=false when flat.
func (b *Book) Position(symbol string) (domain.Position, bool) {
	pos, ok := b.positions[symbol]
	return pos, ok
}

// Snapshot freezes the book into a persistable account record.
func (b *Book) Snapshot(agentID, competitionID string, at time.Time) domain.Account {
	positions := make(map[string]domain.Position, len(b.positions))
	for sym, pos := range b.positions {
		positions[sym] = pos
	}
	return domain.Account{
		AgentID:       agentID,
		CompetitionID: competitionID,
		Cash:          b.cash,
		Positions:     positions,
		Equity:        b.equity,
		UpdatedAt:     at,
	}
}
