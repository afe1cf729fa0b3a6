// Package density selects a bounded, ranked subset of roster anchors as
// active targets.
package density

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/model"
)

// Reference policy defaults. The weights and thresholds are hand-tuned and
// contractual: downstream consumers depend on the exact constants.
const (
	DefaultRangeMin     = 2
	DefaultRangeMax     = 7
	DefaultMinActive    = 2
	DefaultSoftMinRatio = 0.0
	DefaultMaxOut       = 800
)

// Knobs are the gate parameters.
type Knobs struct {
	RangeMin     int
	RangeMax     int
	MinActive    int
	SoftMinRatio float64
	MaxOut       int
}

// DefaultKnobs returns the reference policy.
func DefaultKnobs() Knobs {
	return Knobs{
		RangeMin:     DefaultRangeMin,
		RangeMax:     DefaultRangeMax,
		MinActive:    DefaultMinActive,
		SoftMinRatio: DefaultSoftMinRatio,
		MaxOut:       DefaultMaxOut,
	}
}

// ActiveRatio is active/total, 0 when total is 0.
func ActiveRatio(a model.RosterAnchor) float64 {
	if a.Counts.Total == 0 {
		return 0
	}
	return float64(a.Counts.Active) / float64(a.Counts.Total)
}

// Passes applies the hard gate with the tiny-total exception. The ratio
// condition applies to both arms.
func Passes(a model.RosterAnchor, k Knobs) bool {
	ratio := ActiveRatio(a)
	if ratio < k.SoftMinRatio {
		return false
	}
	if a.Counts.Active >= k.MinActive {
		return true
	}
	return a.Counts.Total <= 3 && a.Counts.Active >= 1 && a.Counts.UniqueNames >= 2
}

// Score is the interpretable linear ranking function, not a learned model:
// active*1000 + activeRatio*100 + uniqueNames*10 + total.
func Score(a model.RosterAnchor) float64 {
	return float64(a.Counts.Active)*1000 +
		ActiveRatio(a)*100 +
		float64(a.Counts.UniqueNames)*10 +
		float64(a.Counts.Total)
}

// round4 rounds to 4 decimal places. Applied at storage time only, never
// before comparison.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// Filter selects anchors whose total falls in the closed range, applies the
// gate, ranks by the five-key tie-break chain, and truncates to MaxOut after
// sorting.
func Filter(anchors []model.RosterAnchor, k Knobs) *model.DensityArtifact {
	var rows []model.DensityRow
	inRange := 0

	for _, a := range anchors {
		if a.Counts.Total < k.RangeMin || a.Counts.Total > k.RangeMax {
			continue
		}
		inRange++
		if !Passes(a, k) {
			continue
		}
		rows = append(rows, model.DensityRow{
			RosterAnchor: a,
			ActiveRatio:  ActiveRatio(a),
			Score:        Score(a),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Counts.Active != b.Counts.Active {
			return a.Counts.Active > b.Counts.Active
		}
		if a.ActiveRatio != b.ActiveRatio {
			return a.ActiveRatio > b.ActiveRatio
		}
		if a.Counts.UniqueNames != b.Counts.UniqueNames {
			return a.Counts.UniqueNames > b.Counts.UniqueNames
		}
		if a.Counts.Total != b.Counts.Total {
			return a.Counts.Total > b.Counts.Total
		}
		return a.Score > b.Score
	})

	if k.MaxOut > 0 && len(rows) > k.MaxOut {
		rows = rows[:k.MaxOut]
	}

	for i := range rows {
		rows[i].ActiveRatio = round4(rows[i].ActiveRatio)
		rows[i].Score = round4(rows[i].Score)
	}

	zap.L().Info("density: filtered anchors",
		zap.Int("anchors", len(anchors)),
		zap.Int("in_range", inRange),
		zap.Int("passed", len(rows)),
		zap.Int("range_min", k.RangeMin),
		zap.Int("range_max", k.RangeMax),
		zap.Int("min_active", k.MinActive),
	)

	return &model.DensityArtifact{
		Rows: rows,
		Knobs: model.DensityKnobs{
			RangeMin:     k.RangeMin,
			RangeMax:     k.RangeMax,
			MinActive:    k.MinActive,
			SoftMinRatio: k.SoftMinRatio,
			MaxOut:       k.MaxOut,
		},
	}
}
