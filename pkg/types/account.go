package types

import "github.com/shopspring/decimal"

// Owner is the nested owner reference carried by an account.
type Owner struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Account is one listed account record. ID and Name are always present;
// every other field may be absent.
type Account struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Owner         *Owner              `json:"owner,omitempty"`
	Phone         *string             `json:"phone"`
	Website       *string             `json:"website"`
	AnnualRevenue decimal.NullDecimal `json:"annualRevenue"`
}

// OwnerName returns the owner's display name, or nil when the account has
// no owner reference.
func (a *Account) OwnerName() *string {
	if a.Owner == nil {
		return nil
	}
	name := a.Owner.Name
	return &name
}

// Clone returns a deep copy so callers can hand out records without
// sharing pointer fields.
func (a Account) Clone() Account {
	out := a
	if a.Owner != nil {
		owner := *a.Owner
		out.Owner = &owner
	}
	out.Phone = cloneString(a.Phone)
	out.Website = cloneString(a.Website)
	return out
}

// Apply writes the changed fields of a delta into the account. Only the
// fields present in changes are touched. Values must already be
// normalized (see NormalizeValue).
func (a *Account) Apply(changes map[Field]any) error {
	for field, value := range changes {
		switch field {
		case FieldPhone:
			s, err := stringValue(value)
			if err != nil {
				return err
			}
			a.Phone = s
		case FieldWebsite:
			s, err := stringValue(value)
			if err != nil {
				return err
			}
			a.Website = s
		case FieldAnnualRevenue:
			switch v := value.(type) {
			case nil:
				a.AnnualRevenue = decimal.NullDecimal{}
			case decimal.Decimal:
				a.AnnualRevenue = decimal.NewNullDecimal(v)
			default:
				return ErrTypeMismatch
			}
		default:
			return ErrFieldNotEditable
		}
	}
	return nil
}

func stringValue(value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	default:
		return nil, ErrTypeMismatch
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
