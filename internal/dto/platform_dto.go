package dto

import "github.com/noah-isme/peer-review-dashboard/internal/models"

// UploadProjectRequest describes a new project submission. Only file metadata is sent upstream.
type UploadProjectRequest struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description" validate:"max=5000"`
	Author      string              `json:"author" validate:"required,max=255"`
	Files       []UploadFileRequest `json:"files" validate:"dive"`
}

// UploadFileRequest is the metadata of one attached file.
type UploadFileRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Size int64  `json:"size" validate:"gte=0"`
}

// SubmitReviewRequest is a peer review for a project.
type SubmitReviewRequest struct {
	Reviewer string `json:"reviewer" validate:"required,max=255"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"required"`
}

// AssignmentRequest replaces the reviewers assigned to a project.
type AssignmentRequest struct {
	Reviewers []string `json:"reviewers" validate:"required,min=1,dive,required"`
}

// TeacherDecisionRequest records the teacher's final verdict on a project.
type TeacherDecisionRequest struct {
	Action               string   `json:"action" validate:"required,oneof=approve improve reject"`
	Comment              string   `json:"comment" validate:"required"`
	FinalScore           *float64 `json:"finalScore" validate:"required,gte=0,lte=100"`
	CompletionPercentage *float64 `json:"completionPercentage" validate:"required,gte=0,lte=100"`
	SubmittedAt          string   `json:"submittedAt"`
	TeacherName          string   `json:"teacherName"`
}

// ReviewReplyRequest is a reply posted under a review.
type ReviewReplyRequest struct {
	Text   string `json:"text" validate:"required"`
	Author string `json:"author" validate:"required,max=255"`
}

// ProjectFilter narrows and orders project listings.
type ProjectFilter struct {
	Search string `query:"search"`
	Status string `query:"status" validate:"omitempty,oneof=pending_review reviewed approved rejected improvement_requested"`
	Sort   string `query:"sort" validate:"omitempty,oneof=submittedAt title author status rating"`
	Dir    string `query:"dir" validate:"omitempty,oneof=asc desc"`
}

// UploadProjectResult is returned after a project has been created upstream.
type UploadProjectResult struct {
	Project models.Project `json:"project"`
	Warning string         `json:"warning,omitempty"`
}

// ReviewResult is returned after a review has been created upstream.
type ReviewResult struct {
	Review  models.Review `json:"review"`
	Warning string        `json:"warning,omitempty"`
}

// MutationResult acknowledges a confirmed mutation.
type MutationResult struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}

// StudentSummary aggregates a student's peer review activity.
type StudentSummary struct {
	Student              string  `json:"student"`
	ProjectsUploaded     int     `json:"projects_uploaded"`
	ReviewsGiven         int     `json:"reviews_given"`
	ExpectedReviews      int     `json:"expected_reviews"`
	ReviewsPending       int     `json:"reviews_pending"`
	AverageRating        float64 `json:"average_rating"`
	CollaborationScore   int     `json:"collaboration_score"`
	CompletionPercentage int     `json:"completion_percentage"`
}
