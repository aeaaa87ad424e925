package tenant

import "errors"

var (
	ErrInvalidName                   = errors.New("tenant: invalid tenant name")
	ErrInvalidEndpoint               = errors.New("tenant: invalid endpoint URL")
	ErrNotFound                      = errors.New("tenant: tenant not found")
	ErrInvalidSourceCredentials      = errors.New("tenant: invalid source credentials")
	ErrInvalidDestinationCredentials = errors.New("tenant: invalid destination credentials")
	ErrConfigKeyNotFound             = errors.New("tenant: config key not found")
	ErrConfigWrongType               = errors.New("tenant: config value has wrong type")
)
