package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/techindex-cli/internal/model"
)

func TestInferSegment_Boundaries(t *testing.T) {
	zero := InferSegment(0)
	assert.Equal(t, model.SegmentUnknown, zero.Label)
	assert.Equal(t, 0.15, zero.Confidence)

	corp := InferSegment(25)
	assert.Equal(t, model.SegmentCorpSuite, corp.Label)
	assert.Equal(t, 0.75, corp.Confidence)

	mid := InferSegment(16)
	assert.Equal(t, model.SegmentSeatAggreg, mid.Label)
	assert.InDelta(t, 0.80, mid.Confidence, 1e-9)
}

func TestInferSegment_CorpSuiteRamp(t *testing.T) {
	assert.InDelta(t, 0.75+15.0/75, InferSegment(40).Confidence, 1e-9)
	// The ramp caps at +0.25.
	assert.Equal(t, 1.0, InferSegment(44).Confidence)
	assert.Equal(t, 1.0, InferSegment(1000).Confidence)
}

func TestInferSegment_SeatAggregTapersAtEdges(t *testing.T) {
	lo := InferSegment(8)
	hi := InferSegment(24)
	assert.Equal(t, model.SegmentSeatAggreg, lo.Label)
	assert.Equal(t, model.SegmentSeatAggreg, hi.Label)
	assert.InDelta(t, 0.55, lo.Confidence, 1e-9)
	assert.InDelta(t, 0.55, hi.Confidence, 1e-9)
	// Midpoint is the peak.
	assert.Greater(t, InferSegment(16).Confidence, InferSegment(9).Confidence)
	assert.Greater(t, InferSegment(16).Confidence, InferSegment(23).Confidence)
}

func TestInferSegment_IndieTechRamp(t *testing.T) {
	one := InferSegment(1)
	assert.Equal(t, model.SegmentIndieTech, one.Label)
	assert.InDelta(t, 0.55, one.Confidence, 1e-9)

	seven := InferSegment(7)
	assert.Equal(t, model.SegmentIndieTech, seven.Label)
	assert.InDelta(t, 0.80, seven.Confidence, 1e-9)
}

func TestInferSegment_SignalsAlwaysEmitted(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 16, 24, 25, 100} {
		assert.NotEmpty(t, InferSegment(n).Signals, "n=%d", n)
	}
}
