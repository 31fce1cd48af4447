package manifest

import "errors"

var (
	ErrEntryNotFound = errors.New("manifest entry not found")
	ErrBadURL        = errors.New("unparseable database url")
)
