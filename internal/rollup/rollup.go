// Package rollup re-aggregates the roster index into ranked per-address
// anchor records.
package rollup

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/roster"
)

// TopN is the length of the frequency-ranked top lists on each anchor.
const TopN = 5

// Bucket maps a total license count to its coarse size class. Boundaries are
// contractual; downstream consumers match on the exact labels.
func Bucket(total int) string {
	switch {
	case total <= 0:
		return "0"
	case total == 1:
		return "1"
	case total <= 3:
		return "2-3"
	case total <= 7:
		return "4-7"
	case total <= 24:
		return "8-24"
	default:
		return "25+"
	}
}

// Tier maps a total license count to the finer 7-way class used by the
// density scorer.
func Tier(total int) string {
	switch {
	case total <= 0:
		return "0"
	case total == 1:
		return "1"
	case total <= 3:
		return "2-3"
	case total <= 6:
		return "4-6"
	case total == 7:
		return "7"
	case total <= 12:
		return "8-12"
	case total <= 24:
		return "13-24"
	default:
		return "25+"
	}
}

// Build emits one anchor per address key, sorted by total descending with
// addressKey ascending as the tie-break. The ordering is part of the artifact
// contract (golden-test diffable).
func Build(idx *model.RosterIndex) *model.RollupArtifact {
	anchors := make([]model.RosterAnchor, 0, len(idx.ByAddressKey))
	dist := make(map[string]int)

	for key, rows := range idx.ByAddressKey {
		a := buildAnchor(key, rows)
		dist[a.Bucket]++
		anchors = append(anchors, a)
	}

	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].Counts.Total != anchors[j].Counts.Total {
			return anchors[i].Counts.Total > anchors[j].Counts.Total
		}
		return anchors[i].AddressKey < anchors[j].AddressKey
	})

	art := &model.RollupArtifact{
		Anchors: anchors,
		Counts: model.RollupCounts{
			Anchors: len(anchors),
			Dist:    dist,
			TopN:    TopN,
		},
	}

	zap.L().Info("rollup: built anchors",
		zap.Int("addresses", len(idx.ByAddressKey)),
		zap.Int("anchors", len(anchors)),
		zap.Any("dist", dist),
	)
	return art
}

func buildAnchor(key string, rows []model.LicenseRow) model.RosterAnchor {
	a := model.RosterAnchor{AddressKey: key}
	if len(rows) > 0 {
		a.Address1 = rows[0].Address1
		a.Address2 = rows[0].Address2
		a.City = rows[0].City
		a.State = rows[0].State
		a.Zip = rows[0].Zip
	}

	names := make(map[string]int)
	types := make(map[string]int)
	statuses := make(map[string]int)

	for _, r := range rows {
		a.Counts.Total++
		if roster.IsActive(r.Status) {
			a.Counts.Active++
		}
		if r.Name != "" {
			names[r.Name]++
		}
		if r.LicenseType != "" {
			types[r.LicenseType]++
		}
		if r.Status != "" {
			statuses[r.Status]++
		}
	}

	a.Counts.UniqueNames = len(names)
	a.Counts.UniqueTypes = len(types)
	a.TopNames = topK(names, TopN)
	a.LicenseTypes = topK(types, TopN)
	a.StatusTop = topK(statuses, TopN)
	a.Bucket = Bucket(a.Counts.Total)
	a.Tier = Tier(a.Counts.Total)
	return a
}

// topK ranks by count descending, breaking ties by name ascending.
func topK(freq map[string]int, k int) []model.NameCount {
	out := make([]model.NameCount, 0, len(freq))
	for name, count := range freq {
		out = append(out, model.NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
