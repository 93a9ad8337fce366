package container

import "errors"

var (
	// ErrBlockSizeMismatch is returned when persisted data was written with a different BlockSize.
	ErrBlockSizeMismatch = errors.New("container: block size mismatch")

	// ErrInconsistentState is returned when persisted counts contradict each other.
	ErrInconsistentState = errors.New("container: inconsistent persisted state")

	// ErrAttributeExists is returned when adding an attribute under a name already in use.
	ErrAttributeExists = errors.New("container: attribute already exists")

	// ErrReservedName is returned when an attribute name collides with a field of the XML line format.
	ErrReservedName = errors.New("container: reserved attribute name")

	// ErrTypeAlreadyRegistered is returned when a type name is registered twice with different types.
	ErrTypeAlreadyRegistered = errors.New("container: type already registered")

	// ErrUnknownType is returned when a type name has no registry entry.
	ErrUnknownType = errors.New("container: unknown type")

	// ErrMemoryLimitExceeded is returned when growing the container would exceed its memory budget.
	ErrMemoryLimitExceeded = errors.New("container: memory limit exceeded")
)
