package resolver

import "errors"

var (
	// ErrNotInReplica means the referenced entity is absent from the catalog
	// replica, usually a sign the tenant's config sync is overdue.
	ErrNotInReplica = errors.New("resolver: entity not in catalog replica")

	// ErrParentUnresolved means a child-level entity could not be created
	// because its parent group has no destination mapping.
	ErrParentUnresolved = errors.New("resolver: parent group unresolved")
)
