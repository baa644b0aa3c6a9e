package validators

import (
	"fmt"
	"strings"

	"escaperooms-directory/internal/models"

	"github.com/go-playground/validator/v10"
)

type keyRequest struct {
	Key string `validate:"required,max=200,printascii"`
}

type roomValidator struct {
	validate *validator.Validate
}

func NewRoomValidator() RoomValidator {
	return &roomValidator{validate: validator.New()}
}

func (v *roomValidator) ValidateFilter(filter *models.RoomFilter) error {
	if filter == nil {
		return fmt.Errorf("filter is required")
	}
	return v.validate.Struct(filter)
}

// ValidateKey accepts a logical cache key: printable ASCII without spaces or
// glob metacharacters.
func (v *roomValidator) ValidateKey(key string) error {
	if err := v.validatePrintable(key); err != nil {
		return err
	}
	if strings.ContainsAny(key, "*?[]") {
		return fmt.Errorf("key %q must not contain glob characters", key)
	}
	return nil
}

// ValidatePattern accepts a glob; a bare "*" is allowed and clears the
// namespace.
func (v *roomValidator) ValidatePattern(pattern string) error {
	return v.validatePrintable(pattern)
}

func (v *roomValidator) validatePrintable(s string) error {
	if err := v.validate.Struct(keyRequest{Key: s}); err != nil {
		return err
	}
	if strings.Contains(s, " ") {
		return fmt.Errorf("%q must not contain spaces", s)
	}
	return nil
}
