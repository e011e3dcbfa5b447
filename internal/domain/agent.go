package domain

import "time"

// Agent is a registered autonomous competitor.
type Agent struct {
	ID         string
	Name       string // unique
	Persona    string
	Active     bool
	TrustScore float64 // always in [0,1]
	CreatedAt  time.Time
}

// ClampTrust bounds a trust score to [0,1].
func ClampTrust(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
