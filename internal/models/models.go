package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is one entry of the closed analysis status reference set,
// seeded by migrations and never mutated at runtime.
type Status struct {
	ID   int
	Code string
}

const (
	StatusDraft         = 1
	StatusPendingReview = 2
	StatusCompleted     = 3
)

// DraftStatus is the status every analysis is created with.
var DraftStatus = Status{ID: StatusDraft, Code: "draft"}

// AIResponse is the generated review triple. The zero value is the
// "not yet generated" state; a successful generation always fills all
// three fields.
type AIResponse struct {
	Summary string `json:"summary"`
	Risks   string `json:"risks"`
	Tests   string `json:"tests"`
}

// Generated reports whether the triple has been produced. Partial
// triples are never persisted, so checking one field would suffice;
// all three are checked anyway so a corrupt row reads as not generated.
func (r AIResponse) Generated() bool {
	return r.Summary != "" && r.Risks != "" && r.Tests != ""
}

// Analysis is the persisted record of one PR's metadata, diff and
// AI-generated review.
type Analysis struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	PRName      string
	BranchName  string
	TicketID    *string
	DiffContent string
	AIResponse  AIResponse
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AnalysisSummary is the list projection: diff content and the AI
// response are deliberately excluded to keep list payloads small.
type AnalysisSummary struct {
	ID         uuid.UUID
	PRName     string
	BranchName string
	Status     Status
	CreatedAt  time.Time
}

// AIRequestLog is an append-only audit record of one generation
// attempt. AnalysisID is nullable so the audit trail survives analysis
// deletion.
type AIRequestLog struct {
	ID           int64
	AnalysisID   *uuid.UUID
	UserID       uuid.UUID
	Model        string
	TokenUsage   int
	StatusCode   int
	ErrorMessage *string
	CreatedAt    time.Time
}

// Sortable list fields; the validation layer guarantees the query
// carries one of these.
const (
	SortFieldCreatedAt  = "created_at"
	SortFieldPRName     = "pr_name"
	SortFieldBranchName = "branch_name"
)

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// ListQuery is the normalized, validated history query.
type ListQuery struct {
	Page      int
	Limit     int
	StatusID  *int
	Search    string
	SortField string
	SortOrder string
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() uint64 {
	return uint64((q.Page - 1) * q.Limit)
}
