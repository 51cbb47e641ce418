package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// fieldNames maps struct field names to their JSON names for error messages.
var fieldNames = map[string]string{
	"AccountID":   "account_id",
	"CouponCode":  "coupon_code",
	"Code":        "code",
	"Title":       "title",
	"Description": "description",
	"Discount":    "discount",
	"Cost":        "cost",
	"ValidFrom":   "valid_from",
	"ValidUntil":  "valid_until",
	"TotalCap":    "total_cap",
	"PerUserCap":  "per_user_cap",
	"Delta":       "delta",
	"Type":        "type",
	"RefType":     "ref_type",
	"RefID":       "ref_id",
	"Location":    "location",
}

// formatValidationError converts validator errors to precise client messages.
// Provides defensive handling for unknown fields with descriptive fallbacks.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			name := fieldNames[fe.Field()]
			if name == "" {
				name = fe.Field()
			}

			switch fe.Tag() {
			case "required":
				return "invalid request: " + name + " is required"
			case "notblank":
				return "invalid request: " + name + " cannot be whitespace only"
			case "max":
				return "invalid request: " + name + " exceeds maximum length of " + fe.Param()
			case "gte":
				return "invalid request: " + name + " must be at least " + fe.Param()
			case "uuid4":
				return "invalid request: " + name + " must be a valid uuid"
			case "gtfield":
				other := fieldNames[fe.Param()]
				if other == "" {
					other = fe.Param()
				}
				return "invalid request: " + name + " must be after " + other
			default:
				return "invalid request: " + name + " is invalid"
			}
		}
	}
	return "invalid request"
}
