package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techindex-cli/internal/addrkey"
	"github.com/sells-group/techindex-cli/internal/model"
)

func indexOf(rowsByKey map[string][]model.LicenseRow) *model.RosterIndex {
	idx := &model.RosterIndex{
		ByAddressKey:     rowsByKey,
		ByAddressKeyBase: make(map[string][]model.LicenseRow),
	}
	for key, rows := range rowsByKey {
		bk := addrkey.BaseKey(key)
		idx.ByAddressKeyBase[bk] = append(idx.ByAddressKeyBase[bk], rows...)
	}
	return idx
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "123-main-st-denver-co-80202", Slug("123 MAIN ST|DENVER|CO|80202"))
	assert.Equal(t, "4-s-broadway-2", Slug("4 S BROADWAY #2"))
	assert.Equal(t, "", Slug("|||"))
}

func TestAbsorb_CreateAndUpdate(t *testing.T) {
	b := NewBuilder()
	key := "123 MAIN ST|DENVER|CO|80202"

	b.Absorb(model.PlaceCandidate{
		AddressKey: key,
		Name:       "Shear Genius",
		MatchScore: 40,
		Types:      []string{"hair_care"},
	})
	b.Absorb(model.PlaceCandidate{
		AddressKey: key,
		Name:       "Other Name",
		MatchScore: 75,
		Phone:      "(303) 555-0100",
		Website:    "https://sheargenius.example",
		Types:      []string{"beauty_salon", "hair_care"},
	})

	require.Len(t, b.byKey, 1)
	e := b.byKey[key]
	assert.Equal(t, "123-main-st-denver-co-80202", e.ID)
	assert.Equal(t, "123 MAIN ST", e.Address1)
	assert.Equal(t, "DENVER", e.City)
	assert.Equal(t, "CO", e.State)
	assert.Equal(t, "80202", e.Zip)

	// First name wins, max score wins, phone/website fill once, types union.
	assert.Equal(t, "Shear Genius", e.DisplayName)
	assert.Equal(t, 75, e.Premise.MatchScore)
	assert.Equal(t, "(303) 555-0100", e.Premise.Phone)
	assert.Equal(t, "https://sheargenius.example", e.Premise.Website)
	assert.Equal(t, []string{"beauty_salon", "hair_care"}, e.Premise.Types)

	b.Absorb(model.PlaceCandidate{
		AddressKey: key,
		MatchScore: 10,
		Phone:      "(303) 555-9999",
	})
	assert.Equal(t, 75, e.Premise.MatchScore)
	assert.Equal(t, "(303) 555-0100", e.Premise.Phone)
}

func TestBuild_JoinCascade(t *testing.T) {
	idx := indexOf(map[string][]model.LicenseRow{
		"123 MAIN ST|DENVER|CO|80202": {
			{Name: "JANE DOE", LicenseType: "COSMETOLOGIST", Status: "ACTIVE"},
		},
		"456 OAK ST|BOULDER|CO|80301": {
			{Name: "ANA PEREZ", LicenseType: "NAIL TECHNICIAN", Status: "ACTIVE"},
		},
		"789 PINE ST|DENVER|CO|80210": {
			{Name: "KIM LEE", LicenseType: "HAIRSTYLIST", Status: "ACTIVE"},
		},
	})

	cases := []struct {
		key  string
		mode string
	}{
		{"123 MAIN ST|DENVER|CO|80202", model.JoinExact},
		// Unabbreviated street only matches after norm folding.
		{"456 OAK STREET|BOULDER|CO|80301", model.JoinNorm},
		// Suite designation only matches after unit stripping.
		{"789 PINE ST STE 4|DENVER|CO|80210", model.JoinBase},
		{"1 NOWHERE LN|PUEBLO|CO|81001", model.JoinNone},
	}

	b := NewBuilder()
	for _, c := range cases {
		b.Absorb(model.PlaceCandidate{AddressKey: c.key, Name: "X"})
	}
	art := b.Build(NewRosterView(idx))

	require.Len(t, art.Tech, 4)
	for i, c := range cases {
		assert.Equal(t, c.mode, art.Tech[i].RosterJoin.Mode, c.key)
	}
	assert.Equal(t, 4, art.Counts.Tech)
	assert.Equal(t, 3, art.Counts.Joined)
	assert.Equal(t, 1, art.Counts.Missing)

	// The base join still attaches the group's roster aggregates.
	base := art.Tech[2]
	assert.Equal(t, 1, base.TechSignals.DoraLicenses)
	assert.Equal(t, []string{"KIM LEE"}, base.RosterNames)
	assert.Contains(t, base.Segment.Signals, "roster joined via base key")
}

func TestAttachRoster_Signals(t *testing.T) {
	key := "55 TEJON ST|DENVER|CO|80223"
	idx := indexOf(map[string][]model.LicenseRow{
		key: {
			{Name: "JANE DOE", LicenseType: "COSMETOLOGIST", Status: "ACTIVE"},
			{Name: "JANE DOE", LicenseType: "NAIL TECHNICIAN", Status: "ACTIVE"},
			{Name: "MARY SUE", LicenseType: "SHOP", Status: "EXPIRED"},
		},
	})

	b := NewBuilder()
	b.Absorb(model.PlaceCandidate{AddressKey: key, Name: "Studio 55"})
	art := b.Build(NewRosterView(idx))

	require.Len(t, art.Tech, 1)
	e := art.Tech[0]
	assert.Equal(t, 3, e.TechSignals.DoraLicenses)
	assert.Equal(t, 2, e.TechSignals.TechCountLicenses)
	assert.Equal(t, 1, e.TechSignals.TechCountUnique)
	assert.Equal(t, []string{"JANE DOE", "MARY SUE"}, e.RosterNames)
	assert.Equal(t, []string{"COSMETOLOGIST", "NAIL TECHNICIAN", "SHOP"}, e.RosterLicenseTypes)
	assert.Equal(t, "3 licenses, 2 active, 2 names", e.RosterSummary)
	assert.Equal(t, model.SegmentIndieTech, e.Segment.Label)

	// Two occupants: the placeholder name stays.
	assert.Equal(t, "Studio 55", e.DisplayName)
}

func TestAttachRoster_DisplayNameUpgrade(t *testing.T) {
	key := "12 ELM ST|GOLDEN|CO|80401"
	idx := indexOf(map[string][]model.LicenseRow{
		key: {{Name: "SOLO STYLIST", LicenseType: "COSMETOLOGIST", Status: "ACTIVE"}},
	})

	b := NewBuilder()
	b.Absorb(model.PlaceCandidate{AddressKey: key, Name: "Unknown Spot"})
	art := b.Build(NewRosterView(idx))

	require.Len(t, art.Tech, 1)
	assert.Equal(t, "SOLO STYLIST", art.Tech[0].DisplayName)
}

func TestBuildArtifact_FirstSightOrder(t *testing.T) {
	idx := indexOf(map[string][]model.LicenseRow{})
	art := BuildArtifact([]model.PlaceCandidate{
		{AddressKey: "2 B ST|DENVER|CO|80202"},
		{AddressKey: "1 A ST|DENVER|CO|80202"},
		{AddressKey: "2 B ST|DENVER|CO|80202"},
	}, idx)

	require.Len(t, art.Tech, 2)
	assert.Equal(t, "2 B ST|DENVER|CO|80202", art.Tech[0].AddressKey)
	assert.Equal(t, "1 A ST|DENVER|CO|80202", art.Tech[1].AddressKey)
	assert.Equal(t, 2, art.Counts.Missing)
}
