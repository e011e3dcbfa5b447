package ports

import (
	"context"

	"github.com/emarden/agentarena/internal/domain"
)

// Announcer publishes human-readable settlement results. The engines never
// block or fail on announcer errors; callers log and move on.
type Announcer interface {
	// Announce publishes a one-line result message.
	Announce(ctx context.Context, msg string) error

	// AnnounceLeaderboard presents the settled scores of one competition.
	AnnounceLeaderboard(ctx context.Context, c domain.Competition, scores []domain.Score) error
}
