package registry

import "errors"

var (
	ErrListApps        = errors.New("unable to list applications")
	ErrFetchManifest   = errors.New("unable to fetch manifest")
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrPublish         = errors.New("unable to publish registry")
	ErrInvalidFilter   = errors.New("invalid entry filter")
	ErrNotPublished    = errors.New("no registry has been published")
)
