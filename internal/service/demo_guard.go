package service

import (
	"strings"

	"github.com/trainops/tmc-api/internal/dto"
	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

// Transition guards are pure functions over (record, payload). They are
// evaluated strictly before any mutation; a guard failure leaves the record
// untouched. Each returns nil or one typed error from pkg/errors.

// GuardTrainerReview admits a trainer verdict on a record awaiting its first
// review.
func GuardTrainerReview(record *models.DemoRecord, req dto.ReviewRequest) error {
	if record.LifecycleState != models.StateUnderTrainerReview {
		return appErrors.ErrInvalidStateTransition
	}
	if record.TrainerReview != nil {
		// State and review group disagree; refuse rather than overwrite.
		return appErrors.ErrInvalidStateTransition
	}
	return guardReviewPayload(req)
}

// GuardMasterReview admits a master trainer verdict on a trainer-approved
// record. Records the trainer rejected, or that already carry a final review,
// fail here instead of silently no-opping so a stale client retry cannot
// double-apply.
func GuardMasterReview(record *models.DemoRecord, req dto.ReviewRequest) error {
	if record.LifecycleState != models.StateTrainerApproved {
		return appErrors.ErrInvalidStateTransition
	}
	if record.MasterReview != nil {
		return appErrors.ErrInvalidStateTransition
	}
	return guardReviewPayload(req)
}

// GuardWithdraw admits a trainee pulling back their own submission before a
// trainer has reviewed it. Ownership is checked before state so a non-owner
// always sees FORBIDDEN regardless of where the record is.
func GuardWithdraw(record *models.DemoRecord, requesterID string) error {
	if requesterID == "" || requesterID != record.TraineeID {
		return appErrors.ErrForbidden
	}
	if record.LifecycleState != models.StateUnderTrainerReview {
		return appErrors.ErrInvalidStateTransition
	}
	return nil
}

// guardReviewPayload validates the tagged verdict variant: approvals carry a
// whole-number rating 1-5, rejections carry non-empty feedback. A zero or
// absent rating on approval is MISSING_RATING, never a silently stored zero.
func guardReviewPayload(req dto.ReviewRequest) error {
	switch req.Decision {
	case models.DecisionApprove:
		if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
			return appErrors.ErrMissingRating
		}
	case models.DecisionReject:
		if strings.TrimSpace(req.Feedback) == "" {
			return appErrors.ErrMissingFeedback
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "decision must be approve or reject")
	}
	return nil
}
