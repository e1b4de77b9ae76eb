package models

import "time"

// SourceSupervisor marks knowledge learned from a supervisor's answer to an
// escalated request. Entries loaded from a seed file carry SourceSeed.
const (
	SourceSupervisor = "supervisor"
	SourceSeed       = "seed"
)

// KnowledgeEntry is a learned normalized-question/answer pair. Entries are
// append-only: once written they are never updated or deleted, and the same
// normalized question may appear more than once.
type KnowledgeEntry struct {
	ID                 string    `json:"id"`
	NormalizedQuestion string    `json:"questionNormalized"`
	Answer             string    `json:"answer"`
	Source             string    `json:"source"`
	CreatedAt          time.Time `json:"createdAt"`
}
