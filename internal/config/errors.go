package config

import "errors"

// Errors returned by configuration operations.
var (
	// ErrSchemaRoot indicates a schema whose root is not a group.
	ErrSchemaRoot = errors.New("schema root must be a group")

	// ErrPersist indicates the reconciled document could not be written.
	ErrPersist = errors.New("persisting configuration")
)
