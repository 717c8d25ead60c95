package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AssignmentRepository resolves which trainees are assigned to a trainer. The
// assignment matching itself happens in the back-office; this side only reads
// the resolved pairs.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListTraineeIDs returns the ids of all trainees currently assigned to the
// trainer.
func (r *AssignmentRepository) ListTraineeIDs(ctx context.Context, trainerID string) ([]string, error) {
	const query = `SELECT trainee_id FROM trainer_assignments WHERE trainer_id = $1 ORDER BY trainee_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, trainerID); err != nil {
		return nil, fmt.Errorf("list assigned trainees: %w", err)
	}
	return ids, nil
}
