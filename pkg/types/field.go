package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Field is a logical account field key used for sorting, display, and edits.
type Field string

// Logical account fields.
const (
	FieldName          Field = "name"
	FieldOwnerName     Field = "ownerName"
	FieldPhone         Field = "phone"
	FieldWebsite       Field = "website"
	FieldAnnualRevenue Field = "annualRevenue"
)

// Fields lists every logical field in display order.
var Fields = []Field{FieldName, FieldOwnerName, FieldPhone, FieldWebsite, FieldAnnualRevenue}

// fieldAliases maps lower-cased spellings, including the record API names
// and the nested owner path, to logical fields.
var fieldAliases = map[string]Field{
	"name":          FieldName,
	"ownername":     FieldOwnerName,
	"owner.name":    FieldOwnerName,
	"owner":         FieldOwnerName,
	"phone":         FieldPhone,
	"website":       FieldWebsite,
	"annualrevenue": FieldAnnualRevenue,
	"revenue":       FieldAnnualRevenue,
}

// editableFields is the set of fields a draft edit may change.
var editableFields = map[Field]bool{
	FieldPhone:         true,
	FieldWebsite:       true,
	FieldAnnualRevenue: true,
}

// maxPhoneLength matches the record schema limit for phone fields.
const maxPhoneLength = 40

var validate = validator.New()

// ParseField resolves a field name in any case, accepting aliases such as
// "OwnerName", "Owner.Name" and "AnnualRevenue".
// Returns ErrInvalidField for unknown names.
func ParseField(name string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return f, nil
}

// Editable reports whether draft edits may change the field.
func (f Field) Editable() bool {
	return editableFields[f]
}

// ParseValue converts raw user input for an editable field into its
// normalized value. Empty input clears the field (nil).
func (f Field) ParseValue(raw string) (any, error) {
	return NormalizeValue(f, strings.TrimSpace(raw))
}

// NormalizeValue validates a value for an editable field and converts it
// to the canonical type stored in a FieldDelta: nil, string (phone,
// website) or decimal.Decimal (annualRevenue). It accepts the shapes that
// arrive from user input and JSON decoding: nil, string, json.Number,
// float64, and decimal.Decimal. Empty strings normalize to nil.
func NormalizeValue(f Field, value any) (any, error) {
	if !f.Editable() {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotEditable, f)
	}
	if s, ok := value.(string); ok && s == "" {
		return nil, nil
	}
	if value == nil {
		return nil, nil
	}

	switch f {
	case FieldPhone, FieldWebsite:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text", ErrTypeMismatch, f)
		}
		tag := fmt.Sprintf("max=%d", maxPhoneLength)
		if f == FieldWebsite {
			tag = "url"
		}
		if err := validate.Var(s, tag); err != nil {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, f, s)
		}
		return s, nil
	default:
		switch v := value.(type) {
		case decimal.Decimal:
			return v, nil
		case json.Number:
			d, err := decimal.NewFromString(v.String())
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, f, v)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(v), nil
		case string:
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q", ErrInvalidValue, f, v)
			}
			return d, nil
		default:
			return nil, fmt.Errorf("%w: %s expects a number", ErrTypeMismatch, f)
		}
	}
}

// SortDirection orders a sorted listing.
type SortDirection string

// Sort directions.
const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ParseSortDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Opposite returns the reverse direction.
func (d SortDirection) Opposite() SortDirection {
	if d == SortDescending {
		return SortAscending
	}
	return SortDescending
}
