// Package source fetches placement and asset datasets from local files or
// HTTP endpoints and decodes them into raw records.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/model"
)

// Format names a dataset encoding.
type Format string

// Supported formats. FormatAuto detects from the location or Content-Type.
const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ParseFormat maps a configured format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSON, FormatCSV, FormatXLSX, FormatHTML:
		return f, nil
	case "htm":
		return FormatHTML, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Loader reads datasets from a location. A location starting with http:// or
// https:// is fetched; anything else is opened as a local file.
type Loader struct {
	client        *http.Client
	userAgent     string
	recordsFormat Format
	assetsFormat  Format
	sheet         string
}

// NewLoader creates a Loader with a 30s fetch timeout.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "podium/1.0",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Records loads the placement dataset at location.
func (l *Loader) Records(ctx context.Context, location string) ([]model.RawRecord, error) {
	body, format, err := l.fetch(ctx, location, l.recordsFormat)
	if err != nil {
		return nil, err
	}
	return l.decodeRecords(body, format)
}

// Assets loads the name→image dataset at location. JSON keeps its list or
// object shape; tabular formats become a list of row objects.
func (l *Loader) Assets(ctx context.Context, location string) (assets.Source, error) {
	body, format, err := l.fetch(ctx, location, l.assetsFormat)
	if err != nil {
		return assets.Empty(), err
	}
	if format == FormatJSON {
		src, err := assets.DecodeJSON(bytes.NewReader(body))
		if err != nil {
			return assets.Empty(), fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return src, nil
	}
	rows, err := l.decodeRecords(body, format)
	if err != nil {
		return assets.Empty(), err
	}
	return assets.Records(rows), nil
}

func (l *Loader) decodeRecords(body []byte, format Format) ([]model.RawRecord, error) {
	switch format {
	case FormatJSON:
		return DecodeJSONRecords(bytes.NewReader(body))
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(body))
	case FormatXLSX:
		return DecodeXLSX(bytes.NewReader(body), l.sheet)
	case FormatHTML:
		return DecodeHTML(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// fetch returns the payload at location and the format to decode it with.
func (l *Loader) fetch(ctx context.Context, location string, forced Format) ([]byte, Format, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, FormatAuto, ErrEmptyLocation
	}
	if isRemote(location) {
		return l.get(ctx, location, forced)
	}

	b, err := os.ReadFile(location)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	format := forced
	if format == FormatAuto {
		format = formatFromExt(filepath.Ext(location))
	}
	return b, orJSON(format), nil
}

func (l *Loader) get(ctx context.Context, url string, forced Format) ([]byte, Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, FormatAuto, fmt.Errorf("%w: status %d for %s", ErrFetch, resp.StatusCode, url)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}

	format := forced
	if format == FormatAuto {
		format = formatFromContentType(resp.Header.Get("Content-Type"))
	}
	if format == FormatAuto {
		format = formatFromExt(path.Ext(req.URL.Path))
	}
	return b, orJSON(format), nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func formatFromExt(ext string) Format {
	switch strings.ToLower(ext) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatAuto
	}
}

func formatFromContentType(ct string) Format {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return FormatAuto
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return FormatJSON
	case mt == "text/csv":
		return FormatCSV
	case mt == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX
	case mt == "text/html":
		return FormatHTML
	default:
		return FormatAuto
	}
}

func orJSON(f Format) Format {
	if f == FormatAuto {
		return FormatJSON
	}
	return f
}
