package facility

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// BrandEntry maps a name substring to a brand id. Order matters: the first
// matching entry wins, so more specific substrings go first.
type BrandEntry struct {
	Match string `yaml:"match"`
	ID    string `yaml:"id"`
}

// DefaultBrands is the built-in suite/maildrop brand dictionary.
var DefaultBrands = []BrandEntry{
	{Match: "SOLA SALON", ID: "sola_salon_studios"},
	{Match: "SOLA", ID: "sola_salon_studios"},
	{Match: "PHENIX", ID: "phenix_salon_suites"},
	{Match: "MY SALON SUITE", ID: "my_salon_suite"},
	{Match: "SALONS BY JC", ID: "salons_by_jc"},
	{Match: "IMAGE STUDIOS", ID: "image_studios"},
	{Match: "SALON LOFTS", ID: "salon_lofts"},
	{Match: "GREAT CLIPS", ID: "great_clips"},
	{Match: "SUPERCUTS", ID: "supercuts"},
	{Match: "UPS STORE", ID: "ups_store"},
	{Match: "POSTNET", ID: "postnet"},
}

// LoadBrands reads a YAML brand dictionary override. An empty path returns
// the built-in dictionary.
func LoadBrands(path string) ([]BrandEntry, error) {
	if path == "" {
		return DefaultBrands, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "facility: read brand dictionary %s", path)
	}
	var brands []BrandEntry
	if err := yaml.Unmarshal(data, &brands); err != nil {
		return nil, eris.Wrapf(err, "facility: parse brand dictionary %s", path)
	}
	if len(brands) == 0 {
		return nil, eris.Errorf("facility: brand dictionary %s is empty", path)
	}
	return brands, nil
}

// BrandID infers a brand from the registered name or the candidate name.
// First matching entry wins; no match yields "".
func BrandID(brands []BrandEntry, registered, candidate string) string {
	reg := strings.ToUpper(registered)
	cand := strings.ToUpper(candidate)
	for _, b := range brands {
		m := strings.ToUpper(b.Match)
		if (reg != "" && strings.Contains(reg, m)) || (cand != "" && strings.Contains(cand, m)) {
			return b.ID
		}
	}
	return ""
}
