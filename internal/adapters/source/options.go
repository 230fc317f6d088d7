package source

import (
	"net/http"
	"time"
)

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the client used for remote locations.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithTimeout bounds every remote fetch.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.client = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header of remote fetches.
func WithUserAgent(ua string) Option {
	return func(l *Loader) { l.userAgent = ua }
}

// WithRecordsFormat forces the decoder used by Records.
func WithRecordsFormat(f Format) Option {
	return func(l *Loader) { l.recordsFormat = f }
}

// WithAssetsFormat forces the decoder used by Assets.
func WithAssetsFormat(f Format) Option {
	return func(l *Loader) { l.assetsFormat = f }
}

// WithSheet picks the xlsx worksheet to read. Empty means the first sheet.
func WithSheet(name string) Option {
	return func(l *Loader) { l.sheet = name }
}
