// Package places turns external place-lookup results into scored candidate
// records and manages the fetch fan-out.
package places

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/model"
)

// Match score weights. The score is presence/type-based, not a string
// similarity to the query: the lookup service already ranks by relevance,
// so this measures "plausible real business", not "the right business".
// Additive, no normalization; theoretical max 103.
const (
	scoreName        = 30
	scoreWebsite     = 15
	scorePhone       = 10
	scoreBeautySalon = 30
	scoreHairCare    = 10
	scoreSpa         = 8
)

// Score computes the deterministic match score for one place result.
func Score(p model.FetchResult) int {
	s := 0
	if p.Name != "" {
		s += scoreName
	}
	if p.Website != "" {
		s += scoreWebsite
	}
	if p.Phone != "" {
		s += scorePhone
	}
	for _, t := range p.Types {
		switch t {
		case "beauty_salon":
			s += scoreBeautySalon
		case "hair_care":
			s += scoreHairCare
		case "spa":
			s += scoreSpa
		}
	}
	return s
}

// candidateFromEvent folds one fetch event into a single candidate: the
// highest-scoring place wins the identity fields, type tags are unioned
// across all places at the address.
func candidateFromEvent(ev model.FetchEvent) *model.PlaceCandidate {
	if len(ev.Places) == 0 || ev.Error != "" {
		return nil
	}

	best := ev.Places[0]
	bestScore := Score(best)
	typeSet := make(map[string]bool)

	for _, p := range ev.Places {
		for _, t := range p.Types {
			typeSet[t] = true
		}
		if s := Score(p); s > bestScore {
			best, bestScore = p, s
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	return &model.PlaceCandidate{
		AddressKey:       ev.AddressKey,
		Name:             best.Name,
		FormattedAddress: best.FormattedAddress,
		Phone:            best.Phone,
		Website:          best.Website,
		Types:            types,
		MatchScore:       bestScore,
		Source:           "places",
	}
}

// Collect builds the base candidate list from fetch events. First-seen-wins
// per address key; output is ordered by address key for diffable artifacts.
func Collect(events []model.FetchEvent) []model.PlaceCandidate {
	byKey := make(map[string]*model.PlaceCandidate)
	var order []string

	for _, ev := range events {
		if _, ok := byKey[ev.AddressKey]; ok {
			continue
		}
		if c := candidateFromEvent(ev); c != nil {
			byKey[ev.AddressKey] = c
			order = append(order, ev.AddressKey)
		}
	}

	sort.Strings(order)
	out := make([]model.PlaceCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// SeedFacilities adds facility-backed candidates for address keys absent
// from the base list. Existing candidates are never overwritten. Returns the
// merged list and the number of seeded rows.
func SeedFacilities(base []model.PlaceCandidate, facilities []model.FacilityRecord) ([]model.PlaceCandidate, int) {
	have := make(map[string]bool, len(base))
	for _, c := range base {
		have[c.AddressKey] = true
	}

	seeded := 0
	for _, f := range facilities {
		if f.AddressKey == "" || have[f.AddressKey] {
			continue
		}
		have[f.AddressKey] = true
		name := f.BusinessName
		if name == "Unknown" {
			name = ""
		}
		c := model.PlaceCandidate{
			AddressKey: f.AddressKey,
			Name:       name,
			MatchScore: Score(model.FetchResult{Name: name}),
			Source:     "facility",
		}
		base = append(base, c)
		seeded++
	}

	if seeded > 0 {
		zap.L().Info("places: seeded facility candidates", zap.Int("seeded", seeded))
	}
	return base, seeded
}

// BuildArtifact assembles the candidate artifact from events and facilities.
func BuildArtifact(events []model.FetchEvent, facilities []model.FacilityRecord) *model.PlacesArtifact {
	rows := Collect(events)
	rows, seeded := SeedFacilities(rows, facilities)

	addresses := make(map[string]bool, len(rows))
	for _, r := range rows {
		addresses[r.AddressKey] = true
	}

	return &model.PlacesArtifact{
		Rows: rows,
		Counts: model.PlacesCounts{
			Rows:           len(rows),
			Addresses:      len(addresses),
			FacilitySeeded: seeded,
		},
	}
}
