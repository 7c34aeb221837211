package models

// DefaultConfidence is assigned to extracted entities whose confidence is
// missing or not a number.
const DefaultConfidence = 0.85

// CandidateEntity is a single entity produced by the writer, before review.
type CandidateEntity struct {
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Content    string  `json:"content,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// ReviewVerdict is the reviewer's decision on a whole batch of entities.
type ReviewVerdict struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// WorkflowResult is the outcome of one writer/reviewer workflow run.
// It is not mutated after it is returned.
type WorkflowResult struct {
	Entities        []CandidateEntity `json:"entities"`
	TotalRetries    int               `json:"total_retries"`
	FinalApproval   bool              `json:"final_approval"`
	FeedbackHistory []string          `json:"feedback_history"`
}
