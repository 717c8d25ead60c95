package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trainops/tmc-api/internal/models"
)

// ReviewStage selects which review column group a transition writes.
type ReviewStage string

const (
	StageTrainer ReviewStage = "trainer"
	StageMaster  ReviewStage = "master"
)

// DemoRepository persists demo submissions and their review events.
type DemoRepository struct {
	db *sqlx.DB
}

// NewDemoRepository constructs the repository.
func NewDemoRepository(db *sqlx.DB) *DemoRepository {
	return &DemoRepository{db: db}
}

// demoRow is the flat persisted shape of a DemoRecord.
type demoRow struct {
	ID             string    `db:"id"`
	TraineeID      string    `db:"trainee_id"`
	TraineeName    string    `db:"trainee_name"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	CourseTag      string    `db:"course_tag"`
	SubmissionType string    `db:"submission_type"`
	ContentRef     string    `db:"content_ref"`
	LifecycleState string    `db:"lifecycle_state"`
	SubmittedAt    time.Time `db:"submitted_at"`

	TrainerReviewerID sql.NullString `db:"trainer_reviewer_id"`
	TrainerDecision   sql.NullString `db:"trainer_decision"`
	TrainerRating     sql.NullInt64  `db:"trainer_rating"`
	TrainerFeedback   sql.NullString `db:"trainer_feedback"`
	TrainerReviewedAt sql.NullTime   `db:"trainer_reviewed_at"`

	MasterReviewerID sql.NullString `db:"master_reviewer_id"`
	MasterDecision   sql.NullString `db:"master_decision"`
	MasterRating     sql.NullInt64  `db:"master_rating"`
	MasterFeedback   sql.NullString `db:"master_feedback"`
	MasterReviewedAt sql.NullTime   `db:"master_reviewed_at"`
}

const demoColumns = `id, trainee_id, trainee_name, title, description, course_tag, submission_type, content_ref,
       lifecycle_state, submitted_at,
       trainer_reviewer_id, trainer_decision, trainer_rating, trainer_feedback, trainer_reviewed_at,
       master_reviewer_id, master_decision, master_rating, master_feedback, master_reviewed_at`

func (row demoRow) toModel() *models.DemoRecord {
	record := &models.DemoRecord{
		ID:             row.ID,
		TraineeID:      row.TraineeID,
		TraineeName:    row.TraineeName,
		Title:          row.Title,
		Description:    row.Description,
		CourseTag:      row.CourseTag,
		SubmissionType: models.SubmissionType(row.SubmissionType),
		ContentRef:     row.ContentRef,
		LifecycleState: models.LifecycleState(row.LifecycleState),
		SubmittedAt:    row.SubmittedAt,
	}
	record.TrainerReview = reviewFromColumns(row.TrainerReviewerID, row.TrainerDecision, row.TrainerRating, row.TrainerFeedback, row.TrainerReviewedAt)
	record.MasterReview = reviewFromColumns(row.MasterReviewerID, row.MasterDecision, row.MasterRating, row.MasterFeedback, row.MasterReviewedAt)
	return record
}

func reviewFromColumns(reviewer, decision sql.NullString, rating sql.NullInt64, feedback sql.NullString, reviewedAt sql.NullTime) *models.Review {
	if !reviewer.Valid || !decision.Valid {
		return nil
	}
	review := &models.Review{
		ReviewerID: reviewer.String,
		Decision:   models.ReviewDecision(decision.String),
		ReviewedAt: reviewedAt.Time,
	}
	if rating.Valid {
		v := int(rating.Int64)
		review.Rating = &v
	}
	if feedback.Valid {
		review.Feedback = feedback.String
	}
	return review
}

// Create inserts a new submission together with its SUBMIT audit event.
func (r *DemoRepository) Create(ctx context.Context, demo *models.DemoRecord) error {
	if demo.ID == "" {
		demo.ID = uuid.NewString()
	}
	if demo.SubmittedAt.IsZero() {
		demo.SubmittedAt = time.Now().UTC()
	}
	demo.LifecycleState = models.DeriveLifecycleState(nil, nil)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create demo: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertDemo = `INSERT INTO demos
	(id, trainee_id, trainee_name, title, description, course_tag, submission_type, content_ref, lifecycle_state, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.ExecContext(ctx, insertDemo,
		demo.ID, demo.TraineeID, demo.TraineeName, demo.Title, demo.Description,
		demo.CourseTag, string(demo.SubmissionType), demo.ContentRef,
		string(demo.LifecycleState), demo.SubmittedAt,
	); err != nil {
		return fmt.Errorf("create demo: %w", err)
	}

	event := models.ReviewEvent{
		ID:        uuid.NewString(),
		DemoID:    demo.ID,
		Actor:     demo.TraineeID,
		Action:    models.ActionSubmit,
		FromState: demo.LifecycleState,
		ToState:   demo.LifecycleState,
		CreatedAt: demo.SubmittedAt,
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	demo.AuditTrail = []models.ReviewEvent{event}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create demo: %w", err)
	}
	return nil
}

// GetByID fetches a demo with its full audit trail.
func (r *DemoRepository) GetByID(ctx context.Context, id string) (*models.DemoRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM demos WHERE id = $1`, demoColumns)
	var row demoRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	record := row.toModel()

	events, err := r.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	record.AuditTrail = events
	return record, nil
}

// List returns demos matching the filter (latest submissions first). Audit
// trails are not loaded for listings. A zero Limit means no limit: worklist
// projections must cover the full store, so only callers that paginate or cap
// explicitly get a LIMIT clause.
func (r *DemoRepository) List(ctx context.Context, filter models.DemoFilter) ([]models.DemoRecord, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM demos`, demoColumns))

	conditions := make([]string, 0, 4)
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, string(state))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("lifecycle_state IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TraineeID != "" {
		args = append(args, filter.TraineeID)
		conditions = append(conditions, fmt.Sprintf("trainee_id = $%d", len(args)))
	}
	if len(filter.TraineeIDs) > 0 {
		placeholders := make([]string, len(filter.TraineeIDs))
		for i, traineeID := range filter.TraineeIDs {
			args = append(args, traineeID)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("trainee_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TrainerReviewerID != "" {
		args = append(args, filter.TrainerReviewerID)
		conditions = append(conditions, fmt.Sprintf("trainer_reviewer_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset))
	}

	var rows []demoRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list demos: %w", err)
	}
	records := make([]models.DemoRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row.toModel())
	}
	return records, nil
}

// ApplyTransitionParams groups the columns written by one review transition.
type ApplyTransitionParams struct {
	DemoID    string
	Stage     ReviewStage
	FromState models.LifecycleState
	ToState   models.LifecycleState
	Review    models.Review
	Actor     string
	Action    models.ReviewAction
}

// ApplyTransition writes one review group, moves the lifecycle state and
// appends the audit event as a single atomic unit. The UPDATE is conditional
// on the expected from-state so that two near-simultaneous reviews of the same
// record result in exactly one applied transition; the loser observes
// sql.ErrNoRows and the record is left untouched.
func (r *DemoRepository) ApplyTransition(ctx context.Context, params ApplyTransitionParams) (*models.ReviewEvent, error) {
	if params.Stage != StageTrainer && params.Stage != StageMaster {
		return nil, fmt.Errorf("unknown review stage: %s", params.Stage)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	prefix := string(params.Stage)
	query := fmt.Sprintf(`UPDATE demos SET
		lifecycle_state = $1,
		%[1]s_reviewer_id = $2,
		%[1]s_decision = $3,
		%[1]s_rating = $4,
		%[1]s_feedback = $5,
		%[1]s_reviewed_at = $6
	WHERE id = $7 AND lifecycle_state = $8 AND %[1]s_decision IS NULL`, prefix)

	var rating interface{}
	if params.Review.Rating != nil {
		rating = *params.Review.Rating
	}
	var feedback interface{}
	if params.Review.Feedback != "" {
		feedback = params.Review.Feedback
	}

	result, err := tx.ExecContext(ctx, query,
		string(params.ToState),
		params.Review.ReviewerID,
		string(params.Review.Decision),
		rating,
		feedback,
		params.Review.ReviewedAt,
		params.DemoID,
		string(params.FromState),
	)
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check transition rows: %w", err)
	}
	if rows == 0 {
		return nil, sql.ErrNoRows
	}

	event := models.ReviewEvent{
		ID:        uuid.NewString(),
		DemoID:    params.DemoID,
		Actor:     params.Actor,
		Action:    params.Action,
		FromState: params.FromState,
		ToState:   params.ToState,
		CreatedAt: params.Review.ReviewedAt,
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &event, nil
}

// Withdraw removes a submission that is still awaiting its first review. The
// record and its events go together; a withdrawn demo leaves no worklist
// residue. Returns sql.ErrNoRows when the record already moved on.
func (r *DemoRepository) Withdraw(ctx context.Context, demoID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM demo_review_events WHERE demo_id = $1`, demoID); err != nil {
		return fmt.Errorf("withdraw demo events: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM demos WHERE id = $1 AND lifecycle_state = $2`,
		demoID, string(models.StateUnderTrainerReview),
	)
	if err != nil {
		return fmt.Errorf("withdraw demo: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check withdraw rows: %w", err)
	}
	if rows == 0 {
		// Rolled back: the record moved on (or never existed) and its
		// events must stay intact.
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw: %w", err)
	}
	return nil
}

// ListEvents returns the append-only audit trail for a demo in append order.
func (r *DemoRepository) ListEvents(ctx context.Context, demoID string) ([]models.ReviewEvent, error) {
	const query = `SELECT id, demo_id, actor, action, from_state, to_state, created_at
	FROM demo_review_events WHERE demo_id = $1 ORDER BY created_at ASC, id ASC`
	var events []models.ReviewEvent
	if err := r.db.SelectContext(ctx, &events, query, demoID); err != nil {
		return nil, fmt.Errorf("list demo events: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, event models.ReviewEvent) error {
	const query = `INSERT INTO demo_review_events (id, demo_id, actor, action, from_state, to_state, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query,
		event.ID, event.DemoID, event.Actor, string(event.Action),
		string(event.FromState), string(event.ToState), event.CreatedAt,
	); err != nil {
		return fmt.Errorf("append review event: %w", err)
	}
	return nil
}
