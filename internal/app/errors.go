package service

import "errors"

// ErrNoRecordsLocation is returned by Start when no placement dataset is configured.
var ErrNoRecordsLocation = errors.New("records location not configured")
