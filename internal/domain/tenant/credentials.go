package tenant

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SourceCredentials authenticate against the source commerce/ERP backend.
// They are decrypted from the job envelope immediately before use.
type SourceCredentials struct {
	BaseURL  string `json:"baseUrl" validate:"required,url"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks the credential fields.
func (c *SourceCredentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidSourceCredentials
	}
	return nil
}

// DestinationCredentials authenticate against the destination platform's
// admin API (client-credentials grant).
type DestinationCredentials struct {
	BaseURL      string `json:"baseUrl" validate:"required,url"`
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

// Validate checks the credential fields.
func (c *DestinationCredentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidDestinationCredentials
	}
	return nil
}
