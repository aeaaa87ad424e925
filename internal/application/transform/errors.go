package transform

import "errors"

var (
	ErrEmptyPath       = errors.New("transform: empty field path")
	ErrInvalidPath     = errors.New("transform: invalid field path")
	ErrPathConflict    = errors.New("transform: path conflicts with existing value shape")
	ErrValueNotNumeric = errors.New("transform: value is not numeric")
	ErrMissingValue    = errors.New("transform: required source value is absent")
	ErrLookupMiss      = errors.New("transform: value not found in lookup table")
	ErrInvalidRule     = errors.New("transform: invalid rule")
	ErrMissingSKU      = errors.New("transform: variation has no number")
)
