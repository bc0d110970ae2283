// Package judge fetches the problem catalog and submission history from the
// Codeforces public API.
package judge

import "github.com/verte-zerg/cfdrill/internal/model"

// VerdictOK is the accepted verdict code reported by the judge.
const VerdictOK = model.VerdictAccepted

// Problem is a raw catalog entry.
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ID returns the contestId-index key, or "" when either part is missing.
func (p Problem) ID() string {
	if p.ContestID == 0 || p.Index == "" {
		return ""
	}
	return model.ProblemID(p.ContestID, p.Index)
}

// ProblemKey identifies the problem a submission targets.
type ProblemKey struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
}

// ID returns the contestId-index key, or "" when either part is missing.
func (k ProblemKey) ID() string {
	if k.ContestID == 0 || k.Index == "" {
		return ""
	}
	return model.ProblemID(k.ContestID, k.Index)
}

// Submission is a raw submission record.
type Submission struct {
	ID                  int64      `json:"id"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Verdict             string     `json:"verdict,omitempty"`
	Problem             ProblemKey `json:"problem"`
}
