package session

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("invalid session")

// validate shares the gin binding tags so stored records and request bodies
// are held to the same rules.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// Validate checks a complete session record, server-assigned fields included.
func Validate(s *Session) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if s.CreatedAt == "" {
		return fmt.Errorf("%w: created_at is required", ErrInvalid)
	}
	if s.Status == "" {
		return fmt.Errorf("%w: status is required", ErrInvalid)
	}
	return nil
}
