package repository

import "errors"

// ErrNotFound is returned by all repository implementations when a record
// does not exist, regardless of the backing store.
var ErrNotFound = errors.New("record not found")
