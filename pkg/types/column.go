package types

// ColumnKind tells a rendering surface how to present a column.
type ColumnKind string

// Column kinds exposed to rendering surfaces.
const (
	KindButton   ColumnKind = "button"
	KindText     ColumnKind = "text"
	KindPhone    ColumnKind = "phone"
	KindURL      ColumnKind = "url"
	KindCurrency ColumnKind = "currency"
)

// ActionViewDetails is the row action that opens a record's detail view.
const ActionViewDetails = "view_details"

// Column maps one display column to a logical field.
type Column struct {
	Label    string
	Field    Field
	Kind     ColumnKind
	Editable bool
	Sortable bool
	// Action is the row action fired when the cell is activated; empty for
	// plain cells.
	Action string
}

// DefaultColumns is the account listing's display contract.
var DefaultColumns = []Column{
	{Label: "Account Name", Field: FieldName, Kind: KindButton, Sortable: true, Action: ActionViewDetails},
	{Label: "Account Owner", Field: FieldOwnerName, Kind: KindText, Sortable: true},
	{Label: "Phone", Field: FieldPhone, Kind: KindPhone, Editable: true, Sortable: true},
	{Label: "Website", Field: FieldWebsite, Kind: KindURL, Editable: true, Sortable: true},
	{Label: "Annual Revenue", Field: FieldAnnualRevenue, Kind: KindCurrency, Editable: true, Sortable: true},
}

// FormatValue renders the column's value for an account as display text.
// Absent values render as the empty string.
func (c Column) FormatValue(a *Account) string {
	switch c.Field {
	case FieldName:
		return a.Name
	case FieldOwnerName:
		return deref(a.OwnerName())
	case FieldPhone:
		return deref(a.Phone)
	case FieldWebsite:
		return deref(a.Website)
	case FieldAnnualRevenue:
		if !a.AnnualRevenue.Valid {
			return ""
		}
		return a.AnnualRevenue.Decimal.StringFixed(2)
	default:
		return ""
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
