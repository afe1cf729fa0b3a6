// Package schema resolves logical fields against unstable export headers.
// Upstream exports rename columns between snapshots, so every ingest path
// resolves fields through one ordered alias list instead of re-deriving
// header positions per call site.
package schema

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field is a logical roster/facility field.
type Field string

// Logical fields the pipeline extracts.
const (
	FieldAddress1     Field = "address1"
	FieldAddress2     Field = "address2"
	FieldCity         Field = "city"
	FieldState        Field = "state"
	FieldZip          Field = "zip"
	FieldLicenseID    Field = "license_id"
	FieldName         Field = "name"
	FieldLicenseType  Field = "license_type"
	FieldStatus       Field = "status"
	FieldBusinessName Field = "business_name"
)

// rosterAliases lists known header names per logical field, in priority
// order. First non-empty match wins.
var rosterAliases = map[Field][]string{
	FieldAddress1:    {"address line 1", "address1", "addr1", "street address", "address", "mailing address 1"},
	FieldAddress2:    {"address line 2", "address2", "addr2", "mailing address 2", "suite"},
	FieldCity:        {"city", "addr city", "mailing city"},
	FieldState:       {"state", "addr state", "mailing state", "state code"},
	FieldZip:         {"zip", "zip code", "zipcode", "postal code", "addr zip"},
	FieldLicenseID:   {"license number", "license no", "license #", "license id", "credential number", "lic no"},
	FieldName:        {"formatted name", "licensee name", "full name", "name", "licensee"},
	FieldLicenseType: {"license type", "credential type", "profession", "license prefix", "type"},
	FieldStatus:      {"license status", "status", "credential status"},
}

// facilityAliases lists known header names for facility exports.
var facilityAliases = map[Field][]string{
	FieldBusinessName: {"business name", "dba", "dba name", "facility name", "name"},
	FieldAddress1:     {"address line 1", "address1", "street address", "address"},
	FieldAddress2:     {"address line 2", "address2", "suite"},
	FieldCity:         {"city"},
	FieldState:        {"state"},
	FieldZip:          {"zip", "zip code", "zipcode", "postal code"},
}

// Resolver maps logical fields to column positions for one header row.
type Resolver struct {
	cols    map[Field]int
	aliases map[Field][]string
}

// NewRosterResolver resolves the roster alias lists against a header row.
func NewRosterResolver(header []string) *Resolver {
	return newResolver(header, rosterAliases)
}

// NewFacilityResolver resolves the facility alias lists against a header row.
func NewFacilityResolver(header []string) *Resolver {
	return newResolver(header, facilityAliases)
}

func newResolver(header []string, aliases map[Field][]string) *Resolver {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := canonHeader(h)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	cols := make(map[Field]int)
	for field, names := range aliases {
		for _, name := range names {
			if i, ok := index[canonHeader(name)]; ok {
				cols[field] = i
				break
			}
		}
	}
	return &Resolver{cols: cols, aliases: aliases}
}

func canonHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	return strings.Join(strings.Fields(h), " ")
}

// Has reports whether the field resolved to a column.
func (r *Resolver) Has(f Field) bool {
	_, ok := r.cols[f]
	return ok
}

// Get extracts the field from a row, trimmed. Missing column or short row
// yields "".
func (r *Resolver) Get(row []string, f Field) string {
	i, ok := r.cols[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Require returns a SchemaDrift error naming every alias tried for each
// missing required field, so operators see exactly what was looked for.
func (r *Resolver) Require(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if !r.Has(f) {
			missing = append(missing, string(f)+" (tried: "+strings.Join(r.aliases[f], ", ")+")")
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("schema: header missing required fields: %s", strings.Join(missing, "; "))
	}
	return nil
}
