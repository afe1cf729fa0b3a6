package model

// AnchorCounts holds per-address roster aggregates.
type AnchorCounts struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	UniqueNames int `json:"uniqueNames"`
	UniqueTypes int `json:"uniqueTypes"`
}

// NameCount is one entry in a frequency-ranked top list.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RosterAnchor is the address-level aggregate emitted by the rollup builder:
// one per address key, regenerated wholesale on each run.
type RosterAnchor struct {
	AddressKey string `json:"addressKey"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	Zip        string `json:"zip"`

	Counts       AnchorCounts `json:"counts"`
	TopNames     []NameCount  `json:"topNames"`
	LicenseTypes []NameCount  `json:"licenseTypes"`
	StatusTop    []NameCount  `json:"statusTop"`

	Bucket string `json:"bucket"`
	Tier   string `json:"tier"`
}

// RollupArtifact is the rollup stage output.
type RollupArtifact struct {
	Anchors []RosterAnchor `json:"anchors"`
	Counts  RollupCounts   `json:"counts"`
}

// RollupCounts summarizes a rollup run. Dist maps bucket label to the number
// of anchors in that bucket.
type RollupCounts struct {
	Anchors int            `json:"anchors"`
	Dist    map[string]int `json:"dist"`
	TopN    int            `json:"topN"`
}

// DensityRow is a roster anchor that passed the density gate, carrying the
// derived ratio and score used for ranking.
type DensityRow struct {
	RosterAnchor
	ActiveRatio float64 `json:"activeRatio"`
	Score       float64 `json:"score"`
}

// DensityKnobs records the gate parameters an artifact was produced with.
type DensityKnobs struct {
	RangeMin     int     `json:"rangeMin"`
	RangeMax     int     `json:"rangeMax"`
	MinActive    int     `json:"MIN_ACTIVE"`
	SoftMinRatio float64 `json:"SOFT_MIN_RATIO"`
	MaxOut       int     `json:"MAX_OUT"`
}

// DensityArtifact is the density filter output.
type DensityArtifact struct {
	Rows  []DensityRow `json:"rows"`
	Knobs DensityKnobs `json:"knobs"`
}
