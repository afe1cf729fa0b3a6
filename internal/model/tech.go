package model

// Segment labels for the density-based classification.
const (
	SegmentCorpSuite  = "corp_suite"
	SegmentSeatAggreg = "seat_aggreg"
	SegmentIndieTech  = "indie_tech"
	SegmentUnknown    = "unknown"
)

// Roster join modes, most specific first.
const (
	JoinExact = "exact"
	JoinNorm  = "norm"
	JoinBase  = "base"
	JoinNone  = "none"
)

// Premise holds place-lookup signals attached to a tech entity.
type Premise struct {
	Types      []string `json:"types,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Website    string   `json:"website,omitempty"`
	MatchScore int      `json:"matchScore"`
}

// TechSignals holds roster-derived license counts for a tech entity.
type TechSignals struct {
	DoraLicenses      int `json:"doraLicenses"`
	TechCountLicenses int `json:"techCountLicenses"`
	TechCountUnique   int `json:"techCountUnique"`
}

// RosterJoin records which key tier linked the entity to roster data.
// This is required output, not optional telemetry.
type RosterJoin struct {
	Mode string `json:"mode"`
}

// Segment is the density-based classification with its confidence and the
// human-readable signals that explain the decision.
type Segment struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

// TechEntity is the final per-address output record. Created once per address
// key on first sight, then only updated; never deleted within a run.
type TechEntity struct {
	ID             string `json:"id"`
	AddressKey     string `json:"addressKey"`
	AddressKeyNorm string `json:"addressKeyNorm"`
	AddressKeyBase string `json:"addressKeyBase"`
	Address1       string `json:"address1"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`

	DisplayName string      `json:"displayName"`
	Premise     Premise     `json:"premise"`
	TechSignals TechSignals `json:"techSignals"`

	RosterJoin         RosterJoin `json:"rosterJoin"`
	RosterNames        []string   `json:"rosterNames,omitempty"`
	RosterLicenseTypes []string   `json:"rosterLicenseTypes,omitempty"`
	RosterSummary      string     `json:"rosterSummary,omitempty"`

	Segment Segment `json:"segment"`
}

// TechArtifact is the tech index output.
type TechArtifact struct {
	Tech   []TechEntity `json:"tech"`
	Counts TechCounts   `json:"counts"`
}

// TechCounts summarizes a tech index build.
type TechCounts struct {
	Tech    int `json:"tech"`
	Joined  int `json:"joined"`
	Missing int `json:"missing"`
}
