// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CandidateEntry is one element of CandidateManifest.json.
type CandidateEntry struct {
	ID          int    `json:"Id"`
	ContestID   int    `json:"ContestId"`
	Description string `json:"Description"`

	// Type is "Regular", "WriteIn" or "QualifiedWriteIn" in Dominion exports.
	// Informational only; write-in resolution goes by name.
	Type string `json:"Type,omitempty"`
}

// CandidateManifest is the on-disk shape of CandidateManifest.json.
type CandidateManifest struct {
	List []CandidateEntry `json:"List"`
}

// ContestEntry is one element of ContestManifest.json. A zero ID means the
// entry carried no id.
type ContestEntry struct {
	ID          int    `json:"Id"`
	Description string `json:"Description"`
}

// ContestManifest is the on-disk shape of ContestManifest.json.
type ContestManifest struct {
	List []ContestEntry `json:"List"`
}
