package archive

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrLoadFailed      = errors.New("load failed")
	ErrSaveFailed      = errors.New("save failed")
	ErrDeleteFailed    = errors.New("delete failed")
	ErrUnknownBackend  = errors.New("unknown archive backend")
	ErrInvalidDocument = errors.New("invalid archive document")
)
