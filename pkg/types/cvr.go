// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Fixed envelope values expected by the downstream nist_sp_1500 parser.
const (
	DefaultVersion    = "5.10.50.85"
	DefaultElectionID = "November 8 2022 General Election"
)

// Fixed mark and session attributes. The CSV export carries no partial-mark
// fidelity, so every extracted mark is a full, unambiguous vote.
const (
	FullMarkDensity = 100
	CountingGroupID = 1
	DefaultBatchID  = 1
)

// Mark is a single rank assignment to a candidate within a contest.
type Mark struct {
	CandidateID int  `json:"CandidateId" yaml:"candidate_id"`
	Rank        int  `json:"Rank" yaml:"rank"`
	MarkDensity int  `json:"MarkDensity" yaml:"mark_density"`
	IsAmbiguous bool `json:"IsAmbiguous" yaml:"is_ambiguous"`
	IsVote      bool `json:"IsVote" yaml:"is_vote"`
}

// NewMark returns a full-density vote mark for candidateID at rank.
func NewMark(candidateID, rank int) Mark {
	return Mark{
		CandidateID: candidateID,
		Rank:        rank,
		MarkDensity: FullMarkDensity,
		IsVote:      true,
	}
}

// ContestMarks groups the marks a ballot made in one contest, sorted by rank.
type ContestMarks struct {
	ID    int    `json:"Id" yaml:"id"`
	Marks []Mark `json:"Marks" yaml:"marks"`
}

// Interpretation is the "Original" reading of a ballot. Precinct portion and
// ballot type are not present in the CSV export and stay zero.
type Interpretation struct {
	PrecinctPortionID int            `json:"PrecinctPortionId" yaml:"precinct_portion_id"`
	BallotTypeID      int            `json:"BallotTypeId" yaml:"ballot_type_id"`
	IsCurrent         bool           `json:"IsCurrent" yaml:"is_current"`
	Contests          []ContestMarks `json:"Contests" yaml:"contests"`
}

// Session is one ballot record.
type Session struct {
	TabulatorID     int            `json:"TabulatorId" yaml:"tabulator_id"`
	BatchID         int            `json:"BatchId" yaml:"batch_id"`
	RecordID        string         `json:"RecordId" yaml:"record_id"`
	CountingGroupID int            `json:"CountingGroupId" yaml:"counting_group_id"`
	Original        Interpretation `json:"Original" yaml:"original"`
}

// Envelope is the top-level converted document.
type Envelope struct {
	Version    string    `json:"Version" yaml:"version"`
	ElectionID string    `json:"ElectionId" yaml:"election_id"`
	Sessions   []Session `json:"Sessions" yaml:"sessions"`
}
