package topomap

import "errors"

var (
	// ErrOrbitNotEmbedded is returned when an operation needs an embedded orbit.
	ErrOrbitNotEmbedded = errors.New("orbit is not embedded")

	// ErrInvalidFormat is returned when persisted data is not a map dump.
	ErrInvalidFormat = errors.New("invalid map format")

	// ErrChecksumMismatch is returned when a binary dump fails its integrity check.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrDimensionMismatch is returned when loading a dump of a map of another dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrExternalWorkersDisabled is returned by RegisterWorker while external workers are not authorized.
	ErrExternalWorkersDisabled = errors.New("external workers are not authorized")

	// ErrNoFreeWorker is returned when every worker slot is taken.
	ErrNoFreeWorker = errors.New("no free worker slot")

	// ErrAttributeExists is returned when an attribute name is already used in an orbit.
	ErrAttributeExists = errors.New("attribute already exists")
)
