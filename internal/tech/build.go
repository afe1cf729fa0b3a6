// Package tech builds the final one-entity-per-address tech index.
package tech

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/addrkey"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/roster"
)

// techLicenseTypes are the hands-on license types counted in
// techCountLicenses; everything else at the address (shop registrations,
// instructors) still counts toward doraLicenses.
var techLicenseTypes = map[string]bool{
	"COSMETOLOGIST":   true,
	"NAIL TECHNICIAN": true,
	"HAIRSTYLIST":     true,
	"BARBER":          true,
	"ESTHETICIAN":     true,
	"MANICURIST":      true,
}

// Slug derives the entity id from the address key: lowercase, runs of
// non-alphanumerics collapsed to single dashes.
func Slug(addressKey string) string {
	var b strings.Builder
	b.Grow(len(addressKey))
	dash := false
	for _, r := range strings.ToLower(addressKey) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// Builder accumulates tech entities keyed by address.
type Builder struct {
	byKey map[string]*model.TechEntity
	order []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{byKey: make(map[string]*model.TechEntity)}
}

// Absorb folds one place candidate into the index. The entity is created on
// first sight of its address key; afterwards it is only updated: first
// non-empty displayName wins, matchScore keeps its maximum, phone/website
// fill only when empty, types union.
func (b *Builder) Absorb(c model.PlaceCandidate) {
	e, ok := b.byKey[c.AddressKey]
	if !ok {
		parts := strings.Split(c.AddressKey, addrkey.Sep)
		e = &model.TechEntity{
			ID:             Slug(c.AddressKey),
			AddressKey:     c.AddressKey,
			AddressKeyNorm: addrkey.NormKey(c.AddressKey),
			AddressKeyBase: addrkey.BaseKey(c.AddressKey),
			RosterJoin:     model.RosterJoin{Mode: model.JoinNone},
		}
		if len(parts) == 4 {
			e.Address1, e.City, e.State, e.Zip = parts[0], parts[1], parts[2], parts[3]
		}
		b.byKey[c.AddressKey] = e
		b.order = append(b.order, c.AddressKey)
	}

	if e.DisplayName == "" {
		e.DisplayName = c.Name
	}
	if c.MatchScore > e.Premise.MatchScore {
		e.Premise.MatchScore = c.MatchScore
	}
	if e.Premise.Phone == "" {
		e.Premise.Phone = c.Phone
	}
	if e.Premise.Website == "" {
		e.Premise.Website = c.Website
	}
	e.Premise.Types = unionTypes(e.Premise.Types, c.Types)
}

func unionTypes(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RosterView is the three-tier lookup the builder joins against.
type RosterView struct {
	Exact map[string][]model.LicenseRow
	Norm  map[string][]model.LicenseRow
	Base  map[string][]model.LicenseRow
}

// NewRosterView derives the join tiers from a roster index.
func NewRosterView(idx *model.RosterIndex) *RosterView {
	return &RosterView{
		Exact: idx.ByAddressKey,
		Norm:  roster.NormIndex(idx),
		Base:  idx.ByAddressKeyBase,
	}
}

// lookup walks the fallback cascade, most specific tier first.
func (v *RosterView) lookup(e *model.TechEntity) ([]model.LicenseRow, string) {
	if rows, ok := v.Exact[e.AddressKey]; ok {
		return rows, model.JoinExact
	}
	if rows, ok := v.Norm[e.AddressKeyNorm]; ok {
		return rows, model.JoinNorm
	}
	if rows, ok := v.Base[e.AddressKeyBase]; ok {
		return rows, model.JoinBase
	}
	return nil, model.JoinNone
}

// attachRoster joins one entity to roster data and infers its segment.
func attachRoster(e *model.TechEntity, v *RosterView) {
	rows, mode := v.lookup(e)
	e.RosterJoin.Mode = mode

	names := make(map[string]bool)
	types := make(map[string]bool)
	techCount := 0
	techNames := make(map[string]bool)
	active := 0

	for _, r := range rows {
		if r.Name != "" {
			names[r.Name] = true
		}
		if r.LicenseType != "" {
			types[r.LicenseType] = true
		}
		if roster.IsActive(r.Status) {
			active++
		}
		if techLicenseTypes[strings.ToUpper(r.LicenseType)] {
			techCount++
			if r.Name != "" {
				techNames[r.Name] = true
			}
		}
	}

	e.TechSignals = model.TechSignals{
		DoraLicenses:      len(rows),
		TechCountLicenses: techCount,
		TechCountUnique:   len(techNames),
	}
	e.RosterNames = sortedKeys(names)
	e.RosterLicenseTypes = sortedKeys(types)
	if len(rows) > 0 {
		e.RosterSummary = fmt.Sprintf("%d licenses, %d active, %d names", len(rows), active, len(names))
	}

	e.Segment = InferSegment(e.TechSignals.DoraLicenses)
	if mode != model.JoinNone && mode != model.JoinExact {
		e.Segment.Signals = append(e.Segment.Signals, "roster joined via "+mode+" key")
	}

	// Display-name upgrade: only a sole license row with a sole name may
	// overwrite the placeholder; a multi-occupant address never gets renamed
	// to one occupant.
	if len(rows) == 1 && len(names) == 1 {
		e.DisplayName = e.RosterNames[0]
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build joins every accumulated entity to the roster and assembles the
// artifact. Entity order follows first-sight order of address keys during
// the candidate scan.
func (b *Builder) Build(view *RosterView) *model.TechArtifact {
	art := &model.TechArtifact{Tech: make([]model.TechEntity, 0, len(b.order))}

	var sampleMissing []string
	for _, key := range b.order {
		e := b.byKey[key]
		attachRoster(e, view)
		if e.RosterJoin.Mode == model.JoinNone {
			art.Counts.Missing++
			if len(sampleMissing) < 3 {
				sampleMissing = append(sampleMissing, e.AddressKey)
			}
		} else {
			art.Counts.Joined++
		}
		art.Tech = append(art.Tech, *e)
	}
	art.Counts.Tech = len(art.Tech)

	zap.L().Info("tech: built index",
		zap.Int("tech", art.Counts.Tech),
		zap.Int("joined", art.Counts.Joined),
		zap.Int("missing", art.Counts.Missing),
		zap.Strings("sample_missing", sampleMissing),
	)
	return art
}

// BuildArtifact is the one-shot form: scan candidates, then join and build.
func BuildArtifact(candidates []model.PlaceCandidate, idx *model.RosterIndex) *model.TechArtifact {
	b := NewBuilder()
	for _, c := range candidates {
		b.Absorb(c)
	}
	return b.Build(NewRosterView(idx))
}
