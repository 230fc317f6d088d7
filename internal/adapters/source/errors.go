package source

import "errors"

// Sentinel errors for dataset loading.
var (
	ErrFetch             = errors.New("fetch dataset")
	ErrDecode            = errors.New("decode dataset")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmptyLocation     = errors.New("empty dataset location")
)
