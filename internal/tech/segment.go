package tech

import (
	"fmt"

	"github.com/sells-group/techindex-cli/internal/model"
)

// Segment boundaries. Contractual: the 25-license corp_suite threshold and
// the confidence curves are fixed heuristics, not tunable parameters.
const (
	corpSuiteMin  = 25
	seatAggregMin = 8
)

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// InferSegment classifies an address by its attached license density and
// explains the decision. The signals list is ordered audit output, not
// discardable telemetry.
func InferSegment(doraLicenses int) model.Segment {
	n := doraLicenses
	switch {
	case n <= 0:
		return model.Segment{
			Label:      model.SegmentUnknown,
			Confidence: 0.15,
			Signals:    []string{"no roster licenses attached"},
		}
	case n >= corpSuiteMin:
		return model.Segment{
			Label:      model.SegmentCorpSuite,
			Confidence: clamp01(0.75 + min(0.25, float64(n-corpSuiteMin)/75)),
			Signals: []string{
				fmt.Sprintf("%d licenses at address (>= %d)", n, corpSuiteMin),
				"density consistent with corporate suite operator",
			},
		}
	case n >= seatAggregMin:
		// Confidence peaks at the midpoint of 8..24 and tapers toward both
		// boundaries.
		edge := min(float64(n-seatAggregMin), float64(corpSuiteMin-1-n))
		return model.Segment{
			Label:      model.SegmentSeatAggreg,
			Confidence: clamp01(0.55 + edge/8*0.25),
			Signals: []string{
				fmt.Sprintf("%d licenses at address (in %d..%d)", n, seatAggregMin, corpSuiteMin-1),
				"density consistent with seat aggregator (booth rental)",
			},
		}
	default:
		return model.Segment{
			Label:      model.SegmentIndieTech,
			Confidence: clamp01(0.55 + min(0.25, float64(n-1)/6*0.25)),
			Signals: []string{
				fmt.Sprintf("%d licenses at address (1..%d)", n, seatAggregMin-1),
				"density consistent with independent tech or small salon",
			},
		}
	}
}
