package domain

// pnl.go — the settlement formulas. Pure functions, shared by both engines.

// DirectionalPnL is the single-shot PnL of a staked directional decision:
// LONG earns the relative price move, SHORT the inverse, anything else zero.
func DirectionalPnL(action Action, stake, priceStart, priceEnd float64) float64 {
	if priceStart <= 0 || stake <= 0 {
		return 0
	}
	switch action {
	case ActionLong:
		return stake * (priceEnd - priceStart) / priceStart
	case ActionShort:
		return stake * (priceStart - priceEnd) / priceStart
	}
	return 0
}

// StakeFee is the flat fee charged on the staked amount.
func StakeFee(stake, feeRate float64) float64 {
	if stake <= 0 || feeRate <= 0 {
		return 0
	}
	return stake * feeRate
}

// AccuracyScore is binary correctness: 1.0 when the chosen action matches
// the categorical outcome, 0.0 otherwise.
func AccuracyScore(action Action, outcome string) float64 {
	if string(action) == outcome {
		return 1.0
	}
	return 0.0
}

// AccuracyPayoff converts binary correctness into a symmetric,
// confidence-weighted payoff.
func AccuracyPayoff(correct bool, basePayout, confidence float64) float64 {
	payoff := basePayout * confidence
	if !correct {
		return -payoff
	}
	return payoff
}
