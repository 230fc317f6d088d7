package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/medals"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	"github.com/okian/podium/pkg/metrics"
)

// MemoryStore keeps the current snapshot behind an atomic pointer. Publish
// swaps the pointer; reads load it without locking.
type MemoryStore struct {
	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.Publish.
func (s *MemoryStore) Publish(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		metrics.RecordErrorByComponent("repository", "nil_snapshot")
		return ErrNilSnapshot
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.PublishedAt.IsZero() {
		snap.PublishedAt = s.now()
	}
	if snap.byKey == nil {
		snap.index()
	}
	s.snapshot.Store(snap)

	metrics.UpdateSnapshotLastUnix(float64(snap.PublishedAt.Unix()))
	metrics.UpdateCompetitors(len(snap.Leaderboard))
	metrics.UpdateSeasons(snap.Seasons)
	return nil
}

// Current implements Store.Current. A failed snapshot yields its error.
func (s *MemoryStore) Current(_ context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if snap.Err != nil {
		return nil, snap.Err
	}
	return snap, nil
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(snap.Leaderboard) {
		n = len(snap.Leaderboard)
	}
	out := make([]model.LeaderboardEntry, n)
	copy(out, snap.Leaderboard[:n])
	return out, nil
}

// Podium implements Store.Podium.
func (s *MemoryStore) Podium(ctx context.Context) ([]model.LeaderboardEntry, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return medals.Podium(snap.Leaderboard), nil
}

// Rank implements Store.Rank.
func (s *MemoryStore) Rank(ctx context.Context, name string) (model.LeaderboardEntry, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return model.LeaderboardEntry{}, err
	}
	key := normalize.FoldName(name)
	if key == "" {
		return model.LeaderboardEntry{}, ErrNotFound
	}
	e, ok := snap.Lookup(key)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.LeaderboardEntry{}, ErrNotFound
	}
	return e, nil
}

// History implements Store.History.
func (s *MemoryStore) History(ctx context.Context) ([]model.Placement, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Placement, len(snap.History))
	copy(out, snap.History)
	return out, nil
}

// Count implements Store.Count. An empty store counts zero.
func (s *MemoryStore) Count(_ context.Context) int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Leaderboard)
}
