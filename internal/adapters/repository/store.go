// Package repository holds the published leaderboard snapshot and serves
// read queries against it.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Store provides read/write access to the published leaderboard state.
type Store interface {
	// Publish atomically replaces the current snapshot.
	Publish(ctx context.Context, snap *Snapshot) error

	// Current returns the latest snapshot, ErrNoSnapshot, or the error a
	// failed snapshot was published with.
	Current(ctx context.Context) (*Snapshot, error)

	// TopN returns at most n leaderboard entries in rank order.
	TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error)

	// Podium returns the first three entries.
	Podium(ctx context.Context) ([]model.LeaderboardEntry, error)

	// Rank looks a competitor up by name, ignoring case, accents and spacing.
	// Returns ErrNotFound if nobody matches.
	Rank(ctx context.Context, name string) (model.LeaderboardEntry, error)

	// History returns every placement in chronological order.
	History(ctx context.Context) ([]model.Placement, error)

	// Count returns the number of competitors on the leaderboard.
	Count(ctx context.Context) int
}
