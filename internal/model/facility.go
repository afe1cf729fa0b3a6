package model

// Facility categories, ordered from most to least specific.
const (
	CategoryMaildrop        = "maildrop"
	CategorySuiteCluster    = "suite-cluster"
	CategoryIndependentTech = "independent-tech"
	CategoryIndieSalon      = "indie-salon"
)

// OrgSignal carries roster-derived organizational signals for one address.
type OrgSignal struct {
	AddressKey         string  `json:"addressKey"`
	TechCountAtAddress int     `json:"techCountAtAddress"`
	ActiveShare        float64 `json:"activeShare"`
	TopOrgName         string  `json:"topOrgName,omitempty"`
	TopOrgShare        float64 `json:"topOrgShare"`
	IsLikelyMaildrop   bool    `json:"isLikelyMaildrop"`
	Bucket             string  `json:"bucket,omitempty"`
}

// FacilityRecord is a business/location record merged with org signals.
// Merge stages mutate it in place but must be idempotent: merging the same
// input twice yields the same output.
type FacilityRecord struct {
	AddressKey   string `json:"addressKey"`
	JoinKey      string `json:"joinKey,omitempty"`
	BusinessName string `json:"businessName"`
	Address1     string `json:"address1"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`

	OrgSignal *OrgSignal `json:"orgSignal,omitempty"`

	Category              string `json:"category,omitempty"`
	BusinessNameCandidate string `json:"businessNameCandidate,omitempty"`
	BrandID               string `json:"brandId,omitempty"`
	NeedsConfirm          bool   `json:"needsConfirm"`
}

// FacilityArtifact is the facility merge output.
type FacilityArtifact struct {
	Rows   []FacilityRecord `json:"rows"`
	Counts FacilityCounts   `json:"counts"`
}

// FacilityCounts summarizes a facility merge run.
type FacilityCounts struct {
	Rows         int            `json:"rows"`
	Joined       int            `json:"joined"`
	Unjoined     int            `json:"unjoined"`
	ByCategory   map[string]int `json:"byCategory"`
	NeedsConfirm int            `json:"needsConfirm"`
}
