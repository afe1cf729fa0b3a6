package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterResolver_AliasPriority(t *testing.T) {
	// Both "address" and "address line 1" present: the earlier alias wins.
	header := []string{"Address", "Address Line 1", "City", "State", "Zip Code", "License Number", "Licensee Name", "License Type", "License Status"}
	r := NewRosterResolver(header)

	row := []string{"fallback", "100 Main St", "Denver", "CO", "80202", "COS.123", "JANE DOE", "Cosmetologist", "Active"}
	assert.Equal(t, "100 Main St", r.Get(row, FieldAddress1))
	assert.Equal(t, "COS.123", r.Get(row, FieldLicenseID))
	assert.Equal(t, "JANE DOE", r.Get(row, FieldName))
}

func TestRosterResolver_HeaderVariants(t *testing.T) {
	header := []string{"ADDR1", "addr_city", "State-Code", "ZIPCODE", "Lic No", "Full Name", "Profession", "Credential Status"}
	r := NewRosterResolver(header)

	for _, f := range []Field{FieldAddress1, FieldCity, FieldState, FieldZip, FieldLicenseID, FieldName, FieldLicenseType, FieldStatus} {
		assert.True(t, r.Has(f), "field %s", f)
	}
}

func TestResolver_GetShortRow(t *testing.T) {
	r := NewRosterResolver([]string{"address1", "city", "state"})
	assert.Equal(t, "", r.Get([]string{"100 Main St"}, FieldState))
}

func TestResolver_RequireListsAliasesTried(t *testing.T) {
	r := NewRosterResolver([]string{"city", "state"})
	err := r.Require(FieldAddress1, FieldCity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address1")
	assert.Contains(t, err.Error(), "address line 1")
	assert.Contains(t, err.Error(), "street address")
	assert.NotContains(t, err.Error(), "city (tried")
}

func TestFacilityResolver(t *testing.T) {
	r := NewFacilityResolver([]string{"DBA Name", "Street Address", "City", "State", "Postal Code"})
	row := []string{"Shear Genius", "42 E Colfax Ave", "Denver", "CO", "80203"}
	assert.Equal(t, "Shear Genius", r.Get(row, FieldBusinessName))
	assert.Equal(t, "42 E Colfax Ave", r.Get(row, FieldAddress1))
	require.NoError(t, r.Require(FieldBusinessName, FieldAddress1, FieldCity))
}
