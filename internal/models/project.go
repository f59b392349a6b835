package models

// Project is a student submission under peer review.
type Project struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	Description          string    `json:"description"`
	Status               string    `json:"status"`
	SubmittedAt          string    `json:"submittedAt"`
	Rating               *float64  `json:"rating"`
	FinalScore           *float64  `json:"finalScore"`
	CompletionPercentage *float64  `json:"completionPercentage"`
	Files                []FileRef `json:"files"`
}

const (
	// ProjectStatusPendingReview indicates the project awaits peer reviews.
	ProjectStatusPendingReview = "pending_review"
	// ProjectStatusReviewed indicates peers have reviewed the project.
	ProjectStatusReviewed = "reviewed"
	// ProjectStatusApproved indicates the teacher approved the project.
	ProjectStatusApproved = "approved"
	// ProjectStatusRejected indicates the teacher rejected the project.
	ProjectStatusRejected = "rejected"
	// ProjectStatusImprovementRequested indicates the teacher asked for changes.
	ProjectStatusImprovementRequested = "improvement_requested"
)

// IsGraded reports whether a teacher has recorded a final score.
func (p Project) IsGraded() bool {
	return p.FinalScore != nil
}
