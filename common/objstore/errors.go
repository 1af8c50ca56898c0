package objstore

import "errors"

var (
	ErrNotFound             = errors.New("object not found")
	ErrUnknownBackend       = errors.New("unknown object store backend")
	ErrUnsupportedDelimiter = errors.New("unsupported delimiter")
)
