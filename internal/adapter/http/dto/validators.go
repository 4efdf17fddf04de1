package dto

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("decimal", validateDecimal)
		_ = v.RegisterValidation("printable", validatePrintable)
	}
}

// validateDecimal accepts plain decimal notation such as "-12.50".
// Exponent forms are rejected so the written scale is the stored scale.
func validateDecimal(fl validator.FieldLevel) bool {
	_, err := ParseAmount(fl.Field().String())
	return err == nil
}

// validatePrintable rejects control characters.
func validatePrintable(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
}

var errAmountFormat = errors.New("amount must be a decimal string")

// ParseAmount parses a request amount written in plain decimal notation.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "eE") {
		return decimal.Decimal{}, errAmountFormat
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errAmountFormat
	}
	return d, nil
}

// BindingMessage turns a validator error into a short client message and the
// offending JSON field.
func BindingMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "malformed request body"
	}
	fe := verrs[0]
	field = jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field, "This field is required."
	case "max":
		return field, "Ensure this field has no more than " + fe.Param() + " characters."
	case "uuid":
		return field, "Must be a valid UUID."
	case "decimal":
		return field, "A valid number is required."
	case "printable":
		return field, "Control characters are not allowed."
	default:
		return field, "Invalid value."
	}
}

var jsonNames = map[string]string{
	"Label":    "label",
	"WalletID": "wallet",
	"TxID":     "txid",
	"Amount":   "amount",
}

func jsonName(structField string) string {
	if n, ok := jsonNames[structField]; ok {
		return n
	}
	return strings.ToLower(structField)
}
