// Package model defines the pipeline's shared data types and artifact contracts.
package model

// LicenseRow is one record from a licensing-board roster export. The export
// owns these fields; the pipeline treats them as read-only.
type LicenseRow struct {
	LicenseID   string `json:"licenseId"`
	Name        string `json:"name"`
	LicenseType string `json:"licenseType"`
	Status      string `json:"status"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`

	// AddressKey is stamped by the indexer so rows stay traceable to their
	// group after the artifact is written.
	AddressKey string `json:"addressKey,omitempty"`
}

// RosterIndex is the artifact produced by the roster indexer: license rows
// grouped by canonical address key, with a unit-stripped fallback index.
type RosterIndex struct {
	ByAddressKey     map[string][]LicenseRow `json:"byAddressKey"`
	ByAddressKeyBase map[string][]LicenseRow `json:"byAddressKeyBase"`
	Counts           RosterIndexCounts       `json:"counts"`
}

// RosterIndexCounts summarizes a roster indexing run.
type RosterIndexCounts struct {
	Rows          int `json:"rows"`
	Indexed       int `json:"indexed"`
	Addresses     int `json:"addresses"`
	SkippedNoAddr int `json:"skippedNoAddr"`
	SkippedNoTech int `json:"skippedNoTech"`
}
