package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techindex-cli/internal/model"
)

func TestScore_Weights(t *testing.T) {
	assert.Equal(t, 0, Score(model.FetchResult{}))
	assert.Equal(t, 30, Score(model.FetchResult{Name: "X"}))
	assert.Equal(t, 45, Score(model.FetchResult{Name: "X", Website: "https://x"}))
	assert.Equal(t, 55, Score(model.FetchResult{Name: "X", Website: "https://x", Phone: "555"}))
	assert.Equal(t, 85, Score(model.FetchResult{Name: "X", Website: "https://x", Phone: "555", Types: []string{"beauty_salon"}}))
	// Full house: 30+15+10+30+10+8 = 103.
	assert.Equal(t, 103, Score(model.FetchResult{
		Name: "X", Website: "https://x", Phone: "555",
		Types: []string{"beauty_salon", "hair_care", "spa"},
	}))
}

func TestCollect_BestPlaceWinsTypesUnioned(t *testing.T) {
	events := []model.FetchEvent{{
		AddressKey: "K1",
		Places: []model.FetchResult{
			{Name: "Weak Match", Types: []string{"spa"}},
			{Name: "Shear Genius", Website: "https://sg", Phone: "555", Types: []string{"beauty_salon"}},
		},
	}}

	rows := Collect(events)
	require.Len(t, rows, 1)
	assert.Equal(t, "Shear Genius", rows[0].Name)
	assert.Equal(t, 85, rows[0].MatchScore)
	assert.Equal(t, []string{"beauty_salon", "spa"}, rows[0].Types)
}

func TestCollect_FirstSeenWins(t *testing.T) {
	events := []model.FetchEvent{
		{AddressKey: "K1", Places: []model.FetchResult{{Name: "First"}}},
		{AddressKey: "K1", Places: []model.FetchResult{{Name: "Second", Website: "https://x"}}},
	}
	rows := Collect(events)
	require.Len(t, rows, 1)
	assert.Equal(t, "First", rows[0].Name)
}

func TestCollect_SkipsErrorAndEmptyEvents(t *testing.T) {
	events := []model.FetchEvent{
		{AddressKey: "K1", Error: "timeout", Places: []model.FetchResult{{Name: "X"}}},
		{AddressKey: "K2"},
		{AddressKey: "K3", Places: []model.FetchResult{{Name: "Y"}}},
	}
	rows := Collect(events)
	require.Len(t, rows, 1)
	assert.Equal(t, "K3", rows[0].AddressKey)
}

func TestSeedFacilities_OnlyAbsentKeys(t *testing.T) {
	base := []model.PlaceCandidate{{AddressKey: "K1", Name: "Existing", MatchScore: 30}}
	facilities := []model.FacilityRecord{
		{AddressKey: "K1", BusinessName: "Should Not Overwrite"},
		{AddressKey: "K2", BusinessName: "Salon Two"},
		{AddressKey: "K3", BusinessName: "Unknown"},
		{AddressKey: ""},
	}

	rows, seeded := SeedFacilities(base, facilities)
	assert.Equal(t, 2, seeded)
	require.Len(t, rows, 3)
	assert.Equal(t, "Existing", rows[0].Name)
	assert.Equal(t, "Salon Two", rows[1].Name)
	assert.Equal(t, 30, rows[1].MatchScore)
	assert.Equal(t, "facility", rows[1].Source)
	// "Unknown" business names seed an unnamed candidate.
	assert.Equal(t, "", rows[2].Name)
	assert.Equal(t, 0, rows[2].MatchScore)
}

func TestBuildArtifact_Counts(t *testing.T) {
	events := []model.FetchEvent{
		{AddressKey: "K1", Places: []model.FetchResult{{Name: "A"}}},
	}
	facilities := []model.FacilityRecord{{AddressKey: "K2", BusinessName: "B"}}

	art := BuildArtifact(events, facilities)
	assert.Equal(t, 2, art.Counts.Rows)
	assert.Equal(t, 2, art.Counts.Addresses)
	assert.Equal(t, 1, art.Counts.FacilitySeeded)
}
