// Package facility merges business-facility records with roster-derived
// organizational signals and assigns a category.
package facility

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/addrkey"
	"github.com/sells-group/techindex-cli/internal/ingest"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/roster"
	"github.com/sells-group/techindex-cli/internal/schema"
)

// Thresholds are contractual; downstream consumers match on them exactly.
const (
	// minOrgShare is the dominant-org share below which the org name is not
	// trusted as a business-name candidate.
	minOrgShare = 0.35

	// suiteClusterMin is the license count at which an address is a suite
	// cluster.
	suiteClusterMin = 10
)

// unknownName is the placeholder sentinel facility exports use for missing
// business names.
const unknownName = "Unknown"

// maildropMarkers flag mail-forwarding/virtual-office addresses.
var maildropMarkers = []string{
	"PMB", "PO BOX", "P O BOX", "POST OFFICE BOX",
	"UPS STORE", "POSTNET", "PAK MAIL", "MAIL BOXES",
}

// JoinKey normalizes an address key for the org-signal join: uppercase,
// smart quotes folded, every non-alphanumeric rune except '|' and '#'
// stripped.
func JoinKey(key string) string {
	key = strings.ToUpper(key)
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '|', r == '#':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isLikelyMaildrop checks the street component for maildrop markers.
func isLikelyMaildrop(street, topOrgName string) bool {
	s := strings.ToUpper(street + " " + topOrgName)
	for _, marker := range maildropMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// BuildOrgSignals derives one org signal per address from the roster index.
func BuildOrgSignals(idx *model.RosterIndex) map[string]model.OrgSignal {
	signals := make(map[string]model.OrgSignal, len(idx.ByAddressKey))

	for key, rows := range idx.ByAddressKey {
		sig := model.OrgSignal{
			AddressKey:         key,
			TechCountAtAddress: len(rows),
		}

		// A unit tail in the street marks suite-style addressing.
		hasUnit := addrkey.BaseKey(key) != addrkey.NormKey(key)

		active := 0
		names := make(map[string]int)
		for _, r := range rows {
			if roster.IsActive(r.Status) {
				active++
			}
			if r.Name != "" {
				names[r.Name]++
			}
		}
		if len(rows) > 0 {
			sig.ActiveShare = float64(active) / float64(len(rows))
		}

		topName, topCount := "", 0
		for name, count := range names {
			if count > topCount || (count == topCount && name < topName) {
				topName, topCount = name, count
			}
		}
		sig.TopOrgName = topName
		if len(rows) > 0 {
			sig.TopOrgShare = float64(topCount) / float64(len(rows))
		}

		street, _, _ := strings.Cut(key, addrkey.Sep)
		sig.IsLikelyMaildrop = isLikelyMaildrop(street, topName)
		if hasUnit && len(rows) >= suiteClusterMin {
			sig.Bucket = "suite"
		}

		signals[key] = sig
	}
	return signals
}

// Category classifies a merged facility. maildrop beats suite-cluster beats
// independent-tech; indie-salon is the 2-9 catch-all.
func Category(sig model.OrgSignal) string {
	switch {
	case sig.IsLikelyMaildrop:
		return model.CategoryMaildrop
	case sig.TechCountAtAddress >= suiteClusterMin:
		return model.CategorySuiteCluster
	case sig.TechCountAtAddress == 1:
		return model.CategoryIndependentTech
	default:
		return model.CategoryIndieSalon
	}
}

// hasRegisteredName reports whether the facility carries a real business
// name (not empty, not the export's "Unknown" placeholder).
func hasRegisteredName(f model.FacilityRecord) bool {
	return f.BusinessName != "" && f.BusinessName != unknownName
}

// Apply merges one org signal into one facility record. Pure function of
// (facility identity fields, signal): applying it to already-merged output
// is a no-op, which makes the merge stage re-runnable as new signals arrive.
func Apply(f model.FacilityRecord, sig model.OrgSignal, brands []BrandEntry) model.FacilityRecord {
	s := sig
	f.OrgSignal = &s
	f.Category = Category(sig)

	f.BusinessNameCandidate = ""
	if !hasRegisteredName(f) && sig.TopOrgShare >= minOrgShare {
		f.BusinessNameCandidate = sig.TopOrgName
	}

	registered := ""
	if hasRegisteredName(f) {
		registered = f.BusinessName
	}
	f.BrandID = BrandID(brands, registered, f.BusinessNameCandidate)

	suiteLike := sig.Bucket == "suite" || sig.TechCountAtAddress >= suiteClusterMin
	f.NeedsConfirm = suiteLike && !hasRegisteredName(f) &&
		(sig.TopOrgShare < minOrgShare || sig.IsLikelyMaildrop)

	return f
}

// Merge joins facilities to org signals via the normalized join key with
// fallback to the raw address key, applies org merge to joined rows, and
// counts the rest. Unjoined rows keep their prior fields untouched.
func Merge(facilities []model.FacilityRecord, signals map[string]model.OrgSignal, brands []BrandEntry) *model.FacilityArtifact {
	byJoinKey := make(map[string]model.OrgSignal, len(signals))
	for key, sig := range signals {
		byJoinKey[JoinKey(key)] = sig
	}

	art := &model.FacilityArtifact{
		Rows: make([]model.FacilityRecord, 0, len(facilities)),
		Counts: model.FacilityCounts{
			Rows:       len(facilities),
			ByCategory: make(map[string]int),
		},
	}

	var sampleUnjoined []string
	for _, f := range facilities {
		f.JoinKey = JoinKey(f.AddressKey)

		sig, ok := byJoinKey[f.JoinKey]
		if !ok {
			sig, ok = signals[f.AddressKey]
		}
		if ok {
			f = Apply(f, sig, brands)
			art.Counts.Joined++
			art.Counts.ByCategory[f.Category]++
			if f.NeedsConfirm {
				art.Counts.NeedsConfirm++
			}
		} else {
			art.Counts.Unjoined++
			if len(sampleUnjoined) < 3 {
				sampleUnjoined = append(sampleUnjoined, f.AddressKey)
			}
		}
		art.Rows = append(art.Rows, f)
	}

	zap.L().Info("facility: merged org signals",
		zap.Int("rows", art.Counts.Rows),
		zap.Int("joined", art.Counts.Joined),
		zap.Int("unjoined", art.Counts.Unjoined),
		zap.Int("needs_confirm", art.Counts.NeedsConfirm),
		zap.Any("by_category", art.Counts.ByCategory),
		zap.Strings("sample_unjoined", sampleUnjoined),
	)
	return art
}

// FromTable reads facility records from an export table. Records that cannot
// be keyed are dropped with a count (they can never join anything).
func FromTable(t *ingest.Table) ([]model.FacilityRecord, int, error) {
	resolver := schema.NewFacilityResolver(t.Header)
	if err := resolver.Require(schema.FieldAddress1, schema.FieldCity); err != nil {
		return nil, 0, err
	}

	var out []model.FacilityRecord
	skipped := 0
	for _, row := range t.Rows {
		f := model.FacilityRecord{
			BusinessName: resolver.Get(row, schema.FieldBusinessName),
			Address1:     resolver.Get(row, schema.FieldAddress1),
			City:         resolver.Get(row, schema.FieldCity),
			State:        resolver.Get(row, schema.FieldState),
			Zip:          resolver.Get(row, schema.FieldZip),
		}
		if f.BusinessName == "" {
			f.BusinessName = unknownName
		}

		key := addrkey.BuildKey(addrkey.Parts{
			Address1: f.Address1,
			Address2: resolver.Get(row, schema.FieldAddress2),
			City:     f.City,
			State:    f.State,
			Zip:      f.Zip,
		})
		if key == "" {
			skipped++
			continue
		}
		f.AddressKey = key
		out = append(out, f)
	}
	return out, skipped, nil
}
