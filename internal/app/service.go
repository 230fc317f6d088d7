// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/podium"
	"github.com/okian/podium/internal/domain/schema"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Refresh outcomes reported to metrics and stats.
const (
	OutcomeSuccess     = "success"
	OutcomeFetchError  = "fetch_error"
	OutcomeSchemaError = "schema_error"
	OutcomeStoreError  = "store_error"
)

// Loader reads the two datasets a refresh needs.
type Loader interface {
	Records(ctx context.Context, location string) ([]model.RawRecord, error)
	Assets(ctx context.Context, location string) (assets.Source, error)
}

// Service loads placement datasets, builds leaderboard snapshots and serves
// read queries against the latest one.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	loader Loader

	// Configuration
	recordsURL      string
	assetsURL       string
	opts            podium.Options
	refreshInterval time.Duration

	// State
	started   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	refreshMu sync.Mutex

	refreshes   atomic.Int64
	failures    atomic.Int64
	lastOutcome string
	lastError   string
	lastRefresh time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:           repository.NewMemoryStore(),
		loader:          source.NewLoader(),
		opts:            podium.Options{Aliases: schema.DefaultAliases(), AssetKeys: assets.DefaultKeys()},
		refreshInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l != nil {
		return l
	}
	return logger.Get()
}

// Start runs an initial refresh and then keeps refreshing on the configured
// interval until Stop or ctx cancellation. A failed initial refresh is
// logged; the service still starts and serves once a later refresh works.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.recordsURL == "" {
		s.mu.Unlock()
		return ErrNoRecordsLocation
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.started = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info(ctx, "starting leaderboard service...",
		logger.String("records", s.recordsURL),
		logger.String("assets", s.assetsURL),
		logger.Duration("refreshInterval", s.refreshInterval),
	)

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial refresh failed", logger.Error(err))
	}

	if s.refreshInterval > 0 {
		s.wg.Add(1)
		go s.refreshLoop(ctx, stopCh)
	}

	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("competitors", s.store.Count(ctx)),
	)
	return nil
}

func (s *Service) refreshLoop(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log().Warn(ctx, "periodic refresh failed", logger.Error(err))
			}
		}
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping leaderboard service...")
	close(s.stopCh)
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log().Info(context.Background(), "leaderboard service stopped")
}

// Refresh fetches both datasets concurrently, recomputes the leaderboard and
// publishes a new snapshot. The image dataset is optional: when it fails the
// leaderboard is published without images. A batch whose headers do not
// resolve replaces the snapshot with a failed one so reads report the schema
// error; fetch and store errors leave the previous snapshot in place.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	cycle := uuid.NewString()
	log := s.log().Named("refresh")
	log.Debug(ctx, "refresh started", logger.String("cycle", cycle))

	records, src, err := s.fetch(ctx, log)
	if err != nil {
		return s.fail(ctx, log, start, OutcomeFetchError, err)
	}

	res, err := podium.Compute(records, src, s.opts)
	if err != nil {
		var unresolved *schema.UnresolvedError
		if errors.As(err, &unresolved) {
			missing := make([]string, len(unresolved.Missing))
			for i, f := range unresolved.Missing {
				missing[i] = string(f)
			}
			log.Warn(ctx, "unexpected sheet headers", logger.Any("missing", missing))
		}
		failed := repository.NewFailedSnapshot(err)
		failed.ID = cycle
		if perr := s.store.Publish(ctx, failed); perr != nil {
			log.Error(ctx, "publish failed snapshot", logger.Error(perr))
		}
		metrics.UpdateRecords(0)
		metrics.UpdateRecordsSkipped(nil)
		metrics.UpdateAssets(0, 0)
		return s.fail(ctx, log, start, OutcomeSchemaError, err)
	}

	snap := repository.NewSnapshot(res)
	snap.ID = cycle
	if err := s.store.Publish(ctx, snap); err != nil {
		return s.fail(ctx, log, start, OutcomeStoreError, err)
	}

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordRefresh(OutcomeSuccess, ms)
	metrics.UpdateRecords(res.Records)
	skipped := make(map[string]int, len(res.Skipped))
	for reason, n := range res.Skipped {
		skipped[string(reason)] = n
	}
	metrics.UpdateRecordsSkipped(skipped)
	metrics.UpdateAssets(res.AssetsIndexed, res.ImagesAttached)

	s.refreshes.Add(1)
	s.mu.Lock()
	s.lastOutcome = OutcomeSuccess
	s.lastError = ""
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	log.Info(ctx, "leaderboard refreshed",
		logger.String("cycle", cycle),
		logger.Int("records", res.Records),
		logger.Int("competitors", len(res.Leaderboard)),
		logger.Int("seasons", res.Seasons),
		logger.Int("images", res.ImagesAttached),
		logger.Float64("durationMs", ms),
	)
	return nil
}

func (s *Service) fetch(ctx context.Context, log logger.Logger) ([]model.RawRecord, assets.Source, error) {
	var (
		records []model.RawRecord
		src     = assets.Empty()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() {
			metrics.RecordFetchDuration("records", float64(time.Since(start).Milliseconds()))
		}()
		var err error
		records, err = s.loader.Records(gctx, s.recordsURL)
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}
		return nil
	})
	if s.assetsURL != "" {
		g.Go(func() error {
			start := time.Now()
			defer func() {
				metrics.RecordFetchDuration("assets", float64(time.Since(start).Milliseconds()))
			}()
			loaded, err := s.loader.Assets(gctx, s.assetsURL)
			if err != nil {
				metrics.RecordErrorByComponent("source", "assets_unavailable")
				log.Warn(ctx, "coach images unavailable", logger.Error(err))
				return nil
			}
			src = loaded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, assets.Empty(), err
	}
	return records, src, nil
}

func (s *Service) fail(ctx context.Context, log logger.Logger, start time.Time, outcome string, err error) error {
	metrics.RecordRefresh(outcome, float64(time.Since(start).Milliseconds()))
	metrics.RecordErrorByComponent("service", outcome)

	s.failures.Add(1)
	s.mu.Lock()
	s.lastOutcome = outcome
	s.lastError = err.Error()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	log.Error(ctx, "refresh failed", logger.String("outcome", outcome), logger.Error(err))
	return err
}

// Leaderboard returns the ranked leaderboard. A limit of zero returns every
// entry; a negative limit is rejected.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit < 0 {
		return nil, repository.ErrInvalidLimit
	}
	if limit == 0 {
		limit = s.store.Count(ctx)
	}
	if limit == 0 {
		if _, err := s.store.Current(ctx); err != nil {
			return nil, err
		}
		return []model.LeaderboardEntry{}, nil
	}
	return s.store.TopN(ctx, limit)
}

// Podium returns the first three leaderboard entries.
func (s *Service) Podium(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.store.Podium(ctx)
}

// History returns the chronological placements and the number of distinct
// seasons they span.
func (s *Service) History(ctx context.Context) ([]model.Placement, int, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.store.History(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, snap.Seasons, nil
}

// Rank looks a competitor up by name, ignoring case, accents and spacing.
func (s *Service) Rank(ctx context.Context, name string) (model.LeaderboardEntry, error) {
	return s.store.Rank(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"recordsURL":      s.recordsURL,
		"assetsURL":       s.assetsURL,
		"refreshInterval": s.refreshInterval.String(),
		"refreshes":       s.refreshes.Load(),
		"failures":        s.failures.Load(),
		"competitors":     s.store.Count(ctx),
	}
	if s.lastOutcome != "" {
		stats["lastOutcome"] = s.lastOutcome
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if s.lastError != "" {
		stats["lastError"] = s.lastError
	}

	if snap, err := s.store.Current(ctx); err == nil {
		skipped := make(map[string]int, len(snap.Skipped))
		for reason, n := range snap.Skipped {
			skipped[string(reason)] = n
		}
		stats["snapshotID"] = snap.ID
		stats["publishedAt"] = snap.PublishedAt.UTC().Format(time.RFC3339)
		stats["records"] = snap.Records
		stats["seasons"] = snap.Seasons
		stats["skipped"] = skipped
		stats["keyMap"] = snap.KeyMap
		stats["assetsIndexed"] = snap.AssetsIndexed
		stats["imagesAttached"] = snap.ImagesAttached
	}

	return stats
}
