package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/loanportal/portal-client/internal/core/domain"
)

const defaultPhoneRegion = "IN"

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// region is the default region for the "phone" tag when a number has no
// leading "+".
func NewValidator(region string) *echoValidator {
	if region == "" {
		region = defaultPhoneRegion
	}
	v := validator.New()
	_ = v.RegisterValidation("phone", phoneValidator(strings.ToUpper(region)))
	_ = v.RegisterValidation("role", validateRole)
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func phoneValidator(region string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		num, err := phonenumbers.Parse(fl.Field().String(), region)
		if err != nil {
			return false
		}
		return phonenumbers.IsValidNumber(num)
	}
}

// validateRole accepts any spelling the login role check treats as a known
// role, e.g. "Customer" or "ROLE_CUSTOMER".
func validateRole(fl validator.FieldLevel) bool {
	switch domain.NormalizeRole(fl.Field().String()) {
	case domain.RoleCustomer, domain.RoleOfficer, domain.RoleAdmin:
		return true
	}
	return false
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "phone":
		return field + " must be a valid phone number"
	case "role":
		return field + " must be one of: customer, officer, admin"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
