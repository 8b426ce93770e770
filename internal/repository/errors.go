package repository

import "errors"

// ErrStaleRevision indicates a conditional update matched no row because the
// record changed after it was read.
var ErrStaleRevision = errors.New("stale revision")

// ErrNotInProgress indicates a conditional transition found the row outside the expected state.
var ErrNotInProgress = errors.New("record not in progress")
