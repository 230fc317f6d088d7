package service

import (
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/schema"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoader sets the dataset loader.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithStore sets the snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRecordsURL sets the placement dataset location.
func WithRecordsURL(location string) Option {
	return func(s *Service) { s.recordsURL = location }
}

// WithAssetsURL sets the optional image dataset location. Empty disables
// image lookup.
func WithAssetsURL(location string) Option {
	return func(s *Service) { s.assetsURL = location }
}

// WithAliases sets the header alias table used for schema resolution.
func WithAliases(t schema.AliasTable) Option {
	return func(s *Service) {
		if len(t) > 0 {
			s.opts.Aliases = t
		}
	}
}

// WithAssetKeys sets the keys probed in asset records.
func WithAssetKeys(k assets.Keys) Option {
	return func(s *Service) { s.opts.AssetKeys = k.WithDefaults() }
}

// WithRefreshInterval sets how often datasets are reloaded after Start.
// Zero disables periodic refresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}
