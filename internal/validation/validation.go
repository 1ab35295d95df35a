// Package validation holds the pure payload rules evaluated before any
// service call. Every function is stateless and reports problems as a
// field-keyed message map matching the API's field_errors shape.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"pr-analysis-service/internal/api"
	"pr-analysis-service/internal/models"

	"github.com/google/uuid"
)

const (
	MaxDiffLines        = 1000
	MaxBranchNameLength = 255
	MaxTicketIDLength   = 255
	MaxSearchLength     = 255
	MaxDeleteIDs        = 100

	DefaultPage  = 1
	DefaultLimit = 10
)

// AllowedLimits are the page sizes the UI offers. The schema tolerates
// anything up to 100, but out-of-set values are rejected here.
var AllowedLimits = []int{10, 20, 50}

// Git diff shape patterns. This is a structural sniff, not a parser:
// well-formed and malformed-but-shaped diffs both pass.
var (
	diffGitHeaderRe   = regexp.MustCompile(`(?m)^diff --git `)
	unifiedSourceRe   = regexp.MustCompile(`(?m)^--- `)
	hunkHeaderRe      = regexp.MustCompile(`(?m)^@@ .* @@`)
	allowedSortFields = map[string]bool{
		models.SortFieldCreatedAt:  true,
		models.SortFieldPRName:     true,
		models.SortFieldBranchName: true,
	}
)

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

// IsGitDiff reports whether text passes the diff shape test: a
// "diff --git " or "--- " header AND an "@@ ... @@" hunk marker.
// Either alone is insufficient.
func IsGitDiff(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	hasHeader := diffGitHeaderRe.MatchString(text) || unifiedSourceRe.MatchString(text)
	hasHunk := hunkHeaderRe.MatchString(text)

	return hasHeader && hasHunk
}

// ValidateCreateAnalysis checks the create payload: non-empty name and
// branch, length limits, and a diff that passes the shape test.
func ValidateCreateAnalysis(req *api.CreateAnalysisRequest) FieldErrors {
	fe := FieldErrors{}

	if strings.TrimSpace(req.PrName) == "" {
		fe.add("pr_name", "PR name cannot be empty")
	}

	validateBranchName(fe, req.BranchName)
	validateTicketID(fe, req.TicketId)

	switch {
	case req.DiffContent == "":
		fe.add("diff_content", "Diff content cannot be empty")
	case countLines(req.DiffContent) > MaxDiffLines:
		fe.add("diff_content", fmt.Sprintf("Diff content exceeds %d lines limit", MaxDiffLines))
	case !IsGitDiff(req.DiffContent):
		fe.add("diff_content", "Invalid git diff format. Content must be a valid unified diff with diff headers and hunk markers (@@...@@)")
	}

	return fe
}

// ValidateUpdateAnalysis checks the update payload. The AI response
// triple is validated as a whole: all three fields must be non-empty.
func ValidateUpdateAnalysis(req *api.UpdateAnalysisRequest) FieldErrors {
	fe := FieldErrors{}

	if strings.TrimSpace(req.PrName) == "" {
		fe.add("pr_name", "PR name cannot be empty")
	}

	validateBranchName(fe, req.BranchName)
	validateTicketID(fe, req.TicketId)

	if strings.TrimSpace(req.AiResponse.Summary) == "" {
		fe.add("ai_response.summary", "Summary cannot be empty")
	}
	if strings.TrimSpace(req.AiResponse.Risks) == "" {
		fe.add("ai_response.risks", "Risks cannot be empty")
	}
	if strings.TrimSpace(req.AiResponse.Tests) == "" {
		fe.add("ai_response.tests", "Tests cannot be empty")
	}

	if req.StatusId < 1 {
		fe.add("status_id", "Status id must be a positive integer")
	}

	return fe
}

// ValidateDeleteIDs checks the batch delete payload and parses the ids.
// 1 to 100 unique, well-formed UUIDs are required.
func ValidateDeleteIDs(raw []string) ([]uuid.UUID, FieldErrors) {
	fe := FieldErrors{}

	if len(raw) == 0 {
		fe.add("ids", "At least one id is required")
		return nil, fe
	}
	if len(raw) > MaxDeleteIDs {
		fe.add("ids", fmt.Sprintf("At most %d ids can be deleted at once", MaxDeleteIDs))
		return nil, fe
	}

	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			fe.add("ids", fmt.Sprintf("Invalid id format: %s", s))
			continue
		}
		if seen[id] {
			fe.add("ids", fmt.Sprintf("Duplicate id: %s", s))
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if !fe.Empty() {
		return nil, fe
	}
	return ids, fe
}

// ValidateListQuery normalizes the history query, applying defaults for
// absent parameters and rejecting out-of-set values.
func ValidateListQuery(params api.ListAnalysesParams) (models.ListQuery, FieldErrors) {
	fe := FieldErrors{}

	q := models.ListQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortField: models.SortFieldCreatedAt,
		SortOrder: models.SortOrderDesc,
	}

	if params.Page != nil {
		if *params.Page < 1 {
			fe.add("page", "Page must be 1 or greater")
		} else {
			q.Page = *params.Page
		}
	}

	if params.Limit != nil {
		if !allowedLimit(*params.Limit) {
			fe.add("limit", "Limit must be one of 10, 20, 50")
		} else {
			q.Limit = *params.Limit
		}
	}

	if params.StatusId != nil {
		if *params.StatusId < 1 {
			fe.add("status_id", "Status id must be a positive integer")
		} else {
			q.StatusID = params.StatusId
		}
	}

	if params.Search != nil {
		if len(*params.Search) > MaxSearchLength {
			fe.add("search", fmt.Sprintf("Search must be %d characters or less", MaxSearchLength))
		} else {
			q.Search = strings.TrimSpace(*params.Search)
		}
	}

	if params.SortField != nil {
		field := string(*params.SortField)
		if !allowedSortFields[field] {
			fe.add("sort_field", "Sort field must be one of created_at, pr_name, branch_name")
		} else {
			q.SortField = field
		}
	}

	if params.SortOrder != nil {
		order := string(*params.SortOrder)
		if order != models.SortOrderAsc && order != models.SortOrderDesc {
			fe.add("sort_order", "Sort order must be asc or desc")
		} else {
			q.SortOrder = order
		}
	}

	return q, fe
}

func validateBranchName(fe FieldErrors, branchName string) {
	trimmed := strings.TrimSpace(branchName)
	if trimmed == "" {
		fe.add("branch_name", "Branch name cannot be empty")
		return
	}
	if len(trimmed) > MaxBranchNameLength {
		fe.add("branch_name", fmt.Sprintf("Branch name must be %d characters or less", MaxBranchNameLength))
	}
}

func validateTicketID(fe FieldErrors, ticketID *string) {
	if ticketID != nil && len(strings.TrimSpace(*ticketID)) > MaxTicketIDLength {
		fe.add("ticket_id", fmt.Sprintf("Ticket ID must be %d characters or less", MaxTicketIDLength))
	}
}

func allowedLimit(limit int) bool {
	for _, l := range AllowedLimits {
		if limit == l {
			return true
		}
	}
	return false
}
