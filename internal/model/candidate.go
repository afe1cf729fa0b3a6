package model

// PlaceCandidate is one external place-lookup result keyed by address.
// MatchScore measures "plausible real business", not string similarity to the
// query; the lookup service is assumed to rank by relevance already.
type PlaceCandidate struct {
	AddressKey       string   `json:"addressKey"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	Types            []string `json:"types,omitempty"`
	MatchScore       int      `json:"matchScore"`

	// Source is "places" for lookup results, "facility" for facility-seeded
	// fallback candidates.
	Source string `json:"source,omitempty"`
}

// PlacesArtifact is the candidate matcher output.
type PlacesArtifact struct {
	Rows   []PlaceCandidate `json:"rows"`
	Counts PlacesCounts     `json:"counts"`
}

// PlacesCounts summarizes a candidate matching run.
type PlacesCounts struct {
	Rows           int `json:"rows"`
	Addresses      int `json:"addresses"`
	FacilitySeeded int `json:"facilitySeeded"`
}

// FetchEvent is one line of the append-only place-lookup log. The log is the
// durable record of external fetches; replaying it yields the seen-set that
// prevents duplicate re-fetching across runs.
type FetchEvent struct {
	AddressKey string        `json:"addressKey"`
	Query      string        `json:"query"`
	FetchedAt  string        `json:"fetchedAt"`
	Places     []FetchResult `json:"places"`
	Error      string        `json:"error,omitempty"`
}

// FetchResult is one place returned by the lookup service.
type FetchResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	Types            []string `json:"types,omitempty"`
}
