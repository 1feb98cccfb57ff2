// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConvertConfig holds settings for a CSV-to-JSON conversion run.
type ConvertConfig struct {
	// InputDir contains CandidateManifest.json, ContestManifest.json and
	// the CVR_Export_*.csv files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// Output is the destination path. A ".gz" suffix enables gzip.
	Output string `json:"output" yaml:"output"`

	// AllContests includes every contest instead of RCV contests only.
	AllContests bool `json:"all_contests" yaml:"all_contests"`

	// Compress forces gzip output regardless of the output suffix.
	Compress bool `json:"compress" yaml:"compress"`

	// Version and ElectionID override the envelope constants when set.
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	ElectionID string `json:"election_id,omitempty" yaml:"election_id,omitempty"`

	// ReportPath, when set, receives a YAML summary of the run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// RCVOnly reports whether non-RCV contests are filtered out.
func (c ConvertConfig) RCVOnly() bool {
	return !c.AllContests
}

// EnvelopeVersion returns the configured version or the fixed default.
func (c ConvertConfig) EnvelopeVersion() string {
	if c.Version != "" {
		return c.Version
	}
	return DefaultVersion
}

// EnvelopeElectionID returns the configured election id or the fixed default.
func (c ConvertConfig) EnvelopeElectionID() string {
	if c.ElectionID != "" {
		return c.ElectionID
	}
	return DefaultElectionID
}

// IndexConfig holds settings for the SQLite ballot index.
type IndexConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path"`
}
