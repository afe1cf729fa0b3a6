// Package roster groups license roster rows by canonical address key.
package roster

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/addrkey"
	"github.com/sells-group/techindex-cli/internal/ingest"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/schema"
)

// IsActive reports whether a license status counts toward the active
// aggregate. Deliberately a case-insensitive substring test, not an exact
// match: exports carry values like "Active", "ACTIVE - IN GOOD STANDING",
// and downstream consumers depend on the loose rule.
func IsActive(status string) bool {
	return strings.Contains(strings.ToUpper(status), "ACTIVE")
}

// Index groups roster rows by address key. Rows without a usable address or
// license identifier are counted, not silently dropped.
func Index(t *ingest.Table) (*model.RosterIndex, error) {
	resolver := schema.NewRosterResolver(t.Header)
	if err := resolver.Require(schema.FieldAddress1, schema.FieldCity, schema.FieldLicenseID); err != nil {
		return nil, err
	}

	idx := &model.RosterIndex{
		ByAddressKey:     make(map[string][]model.LicenseRow),
		ByAddressKeyBase: make(map[string][]model.LicenseRow),
	}
	idx.Counts.Rows = len(t.Rows)

	var sampleNoAddr, sampleNoTech []string

	for _, row := range t.Rows {
		lr := model.LicenseRow{
			LicenseID:   resolver.Get(row, schema.FieldLicenseID),
			Name:        resolver.Get(row, schema.FieldName),
			LicenseType: resolver.Get(row, schema.FieldLicenseType),
			Status:      resolver.Get(row, schema.FieldStatus),
			Address1:    resolver.Get(row, schema.FieldAddress1),
			Address2:    resolver.Get(row, schema.FieldAddress2),
			City:        resolver.Get(row, schema.FieldCity),
			State:       resolver.Get(row, schema.FieldState),
			Zip:         resolver.Get(row, schema.FieldZip),
		}

		if lr.LicenseID == "" {
			idx.Counts.SkippedNoTech++
			if len(sampleNoTech) < 3 {
				sampleNoTech = append(sampleNoTech, lr.Name)
			}
			continue
		}

		keys := addrkey.Build(addrkey.Parts{
			Address1: lr.Address1,
			Address2: lr.Address2,
			City:     lr.City,
			State:    lr.State,
			Zip:      lr.Zip,
		})
		if keys.Exact == "" {
			idx.Counts.SkippedNoAddr++
			if len(sampleNoAddr) < 3 {
				sampleNoAddr = append(sampleNoAddr, lr.Address1+" / "+lr.City)
			}
			continue
		}

		lr.AddressKey = keys.Exact
		idx.ByAddressKey[keys.Exact] = append(idx.ByAddressKey[keys.Exact], lr)
		idx.ByAddressKeyBase[keys.Base] = append(idx.ByAddressKeyBase[keys.Base], lr)
		idx.Counts.Indexed++
	}
	idx.Counts.Addresses = len(idx.ByAddressKey)

	zap.L().Info("roster: indexed",
		zap.Int("rows", idx.Counts.Rows),
		zap.Int("indexed", idx.Counts.Indexed),
		zap.Int("addresses", idx.Counts.Addresses),
		zap.Int("skipped_no_addr", idx.Counts.SkippedNoAddr),
		zap.Int("skipped_no_tech", idx.Counts.SkippedNoTech),
		zap.Strings("sample_no_addr", sampleNoAddr),
		zap.Strings("sample_no_tech", sampleNoTech),
	)
	return idx, nil
}

// NormIndex derives a normalized-key view of an index for the fallback join
// cascade. Groups whose keys collapse under abbreviation are concatenated.
func NormIndex(idx *model.RosterIndex) map[string][]model.LicenseRow {
	out := make(map[string][]model.LicenseRow, len(idx.ByAddressKey))
	for key, rows := range idx.ByAddressKey {
		nk := addrkey.NormKey(key)
		out[nk] = append(out[nk], rows...)
	}
	return out
}
