package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountApply(t *testing.T) {
	a := Account{
		ID:      "001",
		Name:    "Acme",
		Phone:   strPtr("555-0100"),
		Website: strPtr("https://acme.example"),
	}

	err := a.Apply(map[Field]any{
		FieldPhone:         nil,
		FieldAnnualRevenue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.Nil(t, a.Phone)
	assert.Equal(t, "https://acme.example", *a.Website, "untouched fields keep their value")
	assert.True(t, a.AnnualRevenue.Valid)
	assert.True(t, decimal.NewFromInt(100).Equal(a.AnnualRevenue.Decimal))

	assert.ErrorIs(t, a.Apply(map[Field]any{FieldName: "Other"}), ErrFieldNotEditable)
	assert.ErrorIs(t, a.Apply(map[Field]any{FieldAnnualRevenue: "100"}), ErrTypeMismatch)
}

func TestAccountCloneIsDeep(t *testing.T) {
	a := Account{ID: "001", Name: "Acme", Owner: &Owner{Name: "Jo"}, Phone: strPtr("1")}
	b := a.Clone()
	b.Owner.Name = "Al"
	*b.Phone = "2"

	assert.Equal(t, "Jo", a.Owner.Name)
	assert.Equal(t, "1", *a.Phone)
}

func TestOwnerName(t *testing.T) {
	a := Account{ID: "001", Name: "Acme"}
	assert.Nil(t, a.OwnerName())

	a.Owner = &Owner{ID: "005", Name: "Jo"}
	require.NotNil(t, a.OwnerName())
	assert.Equal(t, "Jo", *a.OwnerName())
}

func TestFieldDeltaMerge(t *testing.T) {
	d := NewFieldDelta("001")
	d.Changes[FieldPhone] = "1"

	require.NoError(t, d.Merge(FieldDelta{RecordID: "001", Changes: map[Field]any{
		FieldPhone:   "2",
		FieldWebsite: "https://acme.example",
	}}))
	assert.Equal(t, "2", d.Changes[FieldPhone])
	assert.Len(t, d.Changes, 2)

	assert.ErrorIs(t, d.Merge(NewFieldDelta("002")), ErrInvalidID)
}

func TestDefaultColumnsSortableAndEditable(t *testing.T) {
	require.Len(t, DefaultColumns, len(Fields))
	for i, c := range DefaultColumns {
		assert.Equal(t, Fields[i], c.Field)
		assert.True(t, c.Sortable, "%s sortable", c.Field)
		assert.Equal(t, c.Field.Editable(), c.Editable, "%s editable", c.Field)
	}
}

func TestColumnFormatValue(t *testing.T) {
	a := Account{
		ID:            "001",
		Name:          "Acme",
		Owner:         &Owner{Name: "Jo"},
		AnnualRevenue: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}
	var got []string
	for _, c := range DefaultColumns {
		got = append(got, c.FormatValue(&a))
	}
	assert.Equal(t, []string{"Acme", "Jo", "", "", "100.00"}, got)
}

func strPtr(s string) *string { return &s }
