package mapping

import "errors"

var (
	ErrInvalidTenantID      = errors.New("mapping: invalid tenant ID")
	ErrInvalidKind          = errors.New("mapping: invalid entity kind")
	ErrInvalidSourceID      = errors.New("mapping: invalid source ID")
	ErrInvalidDestinationID = errors.New("mapping: invalid destination ID")
	ErrNotFound             = errors.New("mapping: mapping not found")
	ErrParentUnresolved     = errors.New("mapping: parent group mapping not resolved")
)
