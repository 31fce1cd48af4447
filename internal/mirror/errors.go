package mirror

import "github.com/pkg/errors"

var (
	ErrSourceTableNotFound = errors.New("source table not found")
	ErrTargetTableNotFound = errors.New("target table not found")
	ErrUnknownBackend      = errors.New("unknown mirror backend")
)
