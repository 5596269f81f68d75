package checkout

import (
	"fmt"
	"strings"
	"unicode"
)

// Field identifies a required checkout form field.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldAddress Field = "address"
	FieldCity    Field = "city"
	FieldZipCode Field = "zipCode"
)

// RequiredFields lists the form fields in validation order.
var RequiredFields = []Field{FieldName, FieldEmail, FieldAddress, FieldCity, FieldZipCode}

// Label turns the camelCase field name into lower-case words: "zipCode"
// becomes "zip code".
func (f Field) Label() string {
	var b strings.Builder
	for i, r := range string(f) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Form is the transient checkout form. It lives only as long as the flow
// that owns it.
type Form struct {
	Name    string
	Email   string
	Address string
	City    string
	ZipCode string
}

// Value returns the raw value entered for f.
func (f Form) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldAddress:
		return f.Address
	case FieldCity:
		return f.City
	case FieldZipCode:
		return f.ZipCode
	default:
		return ""
	}
}

// Validate reports the first empty required field in RequiredFields order.
// Values are not trimmed: whitespace counts as filled in.
func (f Form) Validate() error {
	for _, field := range RequiredFields {
		if f.Value(field) == "" {
			return &ValidationError{Field: field}
		}
	}
	return nil
}

// ValidationError names the first missing required field.
type ValidationError struct {
	Field Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please fill in your %s", e.Field.Label())
}
