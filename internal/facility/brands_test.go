package facility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBrands_DefaultWhenNoPath(t *testing.T) {
	brands, err := LoadBrands("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBrands, brands)
}

func TestLoadBrands_YAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- match: ACME SUITES\n  id: acme_suites\n"), 0o644))

	brands, err := LoadBrands(path)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "acme_suites", BrandID(brands, "Acme Suites #12", ""))
}

func TestLoadBrands_EmptyFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	_, err := LoadBrands(path)
	require.Error(t, err)
}

func TestBrandID_FirstMatchWins(t *testing.T) {
	brands := []BrandEntry{
		{Match: "SALON", ID: "generic_salon"},
		{Match: "SOLA SALON", ID: "sola_salon_studios"},
	}
	// Dictionary order, not specificity, decides.
	assert.Equal(t, "generic_salon", BrandID(brands, "Sola Salon Studios", ""))
	assert.Equal(t, "", BrandID(brands, "", ""))
}
