package models

import "time"

// SubmissionType distinguishes how the demo session was delivered.
type SubmissionType string

const (
	SubmissionOnline  SubmissionType = "online"
	SubmissionOffline SubmissionType = "offline"
)

// LifecycleState is the canonical status of a demo submission. It is stored
// denormalized for indexed worklist scans but always derived from the two
// review groups via DeriveLifecycleState before persisting.
type LifecycleState string

const (
	StateUnderTrainerReview LifecycleState = "UNDER_TRAINER_REVIEW"
	StateTrainerApproved    LifecycleState = "TRAINER_APPROVED"
	StateTrainerRejected    LifecycleState = "TRAINER_REJECTED"
	StateApproved           LifecycleState = "APPROVED"
	StateMasterRejected     LifecycleState = "MASTER_REJECTED"

	// StateWithdrawn only ever appears on audit events and notifications:
	// withdrawal deletes the record, so no stored row carries it.
	StateWithdrawn LifecycleState = "WITHDRAWN"
)

// Terminal reports whether no further review transition is possible.
func (s LifecycleState) Terminal() bool {
	switch s {
	case StateTrainerRejected, StateMasterRejected, StateApproved, StateWithdrawn:
		return true
	default:
		return false
	}
}

// ReviewDecision is a reviewer verdict.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// Review captures one reviewer's verdict. Rating is required for approvals
// (whole number 1-5), feedback is required for rejections. A review is
// write-once; corrections require a new submission.
type Review struct {
	ReviewerID string         `json:"reviewer_id"`
	Decision   ReviewDecision `json:"decision"`
	Rating     *int           `json:"rating,omitempty"`
	Feedback   string         `json:"feedback,omitempty"`
	ReviewedAt time.Time      `json:"reviewed_at"`
}

// DemoRecord is one submitted work sample together with its reviews and
// append-only audit trail. Metadata fields are immutable after creation.
type DemoRecord struct {
	ID             string         `json:"id"`
	TraineeID      string         `json:"trainee_id"`
	TraineeName    string         `json:"trainee_name"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	CourseTag      string         `json:"course_tag"`
	SubmissionType SubmissionType `json:"submission_type"`
	ContentRef     string         `json:"content_ref"`
	LifecycleState LifecycleState `json:"lifecycle_state"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	TrainerReview  *Review        `json:"trainer_review,omitempty"`
	MasterReview   *Review        `json:"master_trainer_review,omitempty"`
	AuditTrail     []ReviewEvent  `json:"audit_trail,omitempty"`
}

// ReviewAction names the transitions recorded on the audit trail.
type ReviewAction string

const (
	ActionSubmit        ReviewAction = "SUBMIT"
	ActionTrainerReview ReviewAction = "TRAINER_REVIEW"
	ActionMasterReview  ReviewAction = "MASTER_REVIEW"
	ActionWithdraw      ReviewAction = "WITHDRAW"
)

// ReviewEvent is one audit trail entry. Exactly one is appended per accepted
// transition; rejected attempts append nothing.
type ReviewEvent struct {
	ID        string         `db:"id" json:"id"`
	DemoID    string         `db:"demo_id" json:"demo_id"`
	Actor     string         `db:"actor" json:"actor"`
	Action    ReviewAction   `db:"action" json:"action"`
	FromState LifecycleState `db:"from_state" json:"from_state"`
	ToState   LifecycleState `db:"to_state" json:"to_state"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// DemoFilter constrains listing queries. A zero Limit means unbounded; the
// worklist projections rely on that to cover the full store.
type DemoFilter struct {
	States            []LifecycleState
	TraineeID         string
	TraineeIDs        []string
	TrainerReviewerID string
	Limit             int
	Offset            int
}

// DeriveLifecycleState is the single canonical mapping from the review groups
// to the lifecycle state. No other code path may compute a state.
func DeriveLifecycleState(trainer, master *Review) LifecycleState {
	if trainer == nil {
		return StateUnderTrainerReview
	}
	if trainer.Decision == DecisionReject {
		return StateTrainerRejected
	}
	if master == nil {
		return StateTrainerApproved
	}
	if master.Decision == DecisionReject {
		return StateMasterRejected
	}
	return StateApproved
}
