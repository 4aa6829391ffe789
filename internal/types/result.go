package types

// PipelineErrorCode classifies a recorded pipeline error.
type PipelineErrorCode string

const (
	// ErrCodeInsufficientGroups means a date (or color deficit) could not be
	// covered because some color had no unused approved group.
	ErrCodeInsufficientGroups PipelineErrorCode = "insufficient_groups"
	// ErrCodeDuplicatePuzzle means the assembled four-group multiset already
	// exists for the genre and the retry budget was exhausted.
	ErrCodeDuplicatePuzzle PipelineErrorCode = "duplicate_puzzle"
	// ErrCodeGenerationFailed means the LLM call or response parse failed for
	// a color.
	ErrCodeGenerationFailed PipelineErrorCode = "generation_failed"
	// ErrCodeUnverified means one or more items in a candidate group failed
	// external verification; the candidate was dropped.
	ErrCodeUnverified PipelineErrorCode = "unverified"
	// ErrCodeStorage means a database-layer failure during a single date.
	ErrCodeStorage PipelineErrorCode = "storage_error"
	// ErrCodeCancelled means the ambient context was cancelled; the result is
	// partial.
	ErrCodeCancelled PipelineErrorCode = "cancelled"
	// ErrCodeMisconfigured means missing credentials or connection settings;
	// raised before any work.
	ErrCodeMisconfigured PipelineErrorCode = "misconfigured"
)

// PipelineError is one recorded, non-fatal pipeline failure. Date is the ISO
// date the error is attached to, or empty for run-level errors (e.g. a color
// deficit noticed before assembly).
type PipelineError struct {
	Date    string            `json:"date"`
	Message string            `json:"message"`
	Code    PipelineErrorCode `json:"code"`
}

// ColorOutcome counts generated vs. saved groups for one color in one run.
type ColorOutcome struct {
	Generated int `json:"generated"`
	Saved     int `json:"saved"`
}

// FillResult is the outcome of one FillWindow invocation.
type FillResult struct {
	PuzzlesCreated        int                    `json:"puzzlesCreated"`
	EmptyDaysRemaining    int                    `json:"emptyDaysRemaining"`
	AIGenerationTriggered bool                   `json:"aiGenerationTriggered"`
	GroupsGenerated       int                    `json:"groupsGenerated"`
	GroupsSaved           int                    `json:"groupsSaved"`
	GroupsByColor         map[Color]ColorOutcome `json:"groupsByColor"`
	Errors                []PipelineError        `json:"errors"`
}

// NewFillResult returns an empty result with the by-color map initialized.
func NewFillResult() *FillResult {
	return &FillResult{
		GroupsByColor: make(map[Color]ColorOutcome),
		Errors:        []PipelineError{},
	}
}

// AddError appends a recorded error to the result.
func (r *FillResult) AddError(date, message string, code PipelineErrorCode) {
	r.Errors = append(r.Errors, PipelineError{Date: date, Message: message, Code: code})
}

// GenerationResult is the outcome of one PipelineGenerator run.
type GenerationResult struct {
	GroupsGenerated int                    `json:"groupsGenerated"`
	GroupsSaved     int                    `json:"groupsSaved"`
	ByColor         map[Color]ColorOutcome `json:"byColor"`
	Errors          []PipelineError        `json:"errors"`
}

// PoolHealth summarizes per-color approved group supply for a genre.
type PoolHealth struct {
	Counts     map[Color]int `json:"counts"`
	Total      int           `json:"total"`
	Sufficient bool          `json:"sufficient"`
}
