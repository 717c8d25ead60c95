package dto

import (
	"time"

	"github.com/trainops/tmc-api/internal/models"
)

// CreateDemoRequest is the payload for submitting a new work sample. The
// content_ref handle comes from the external media upload service.
type CreateDemoRequest struct {
	Title          string                `json:"title" validate:"required,max=200"`
	Description    string                `json:"description" validate:"required,max=2000"`
	CourseTag      string                `json:"course_tag" validate:"required,max=100"`
	SubmissionType models.SubmissionType `json:"submission_type" validate:"required,oneof=online offline"`
	ContentRef     string                `json:"content_ref" validate:"required"`
}

// ReviewRequest captures a reviewer verdict. Rating is required when the
// decision is approve, feedback when it is reject; the guards enforce both.
type ReviewRequest struct {
	Decision models.ReviewDecision `json:"decision"`
	Rating   *int                  `json:"rating,omitempty"`
	Feedback string                `json:"feedback,omitempty"`
}

// DemoQuery mirrors supported listing filters.
type DemoQuery struct {
	States    []models.LifecycleState
	TraineeID string
	Page      int
	PageSize  int
}

// ContentLinkResponse carries a signed, time-limited media view token.
type ContentLinkResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
