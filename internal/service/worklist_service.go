package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

const masterQueueCacheKey = "worklist:master:pending"

type demoLister interface {
	List(ctx context.Context, filter models.DemoFilter) ([]models.DemoRecord, error)
}

// AssignmentResolver yields the trainee ids currently assigned to a trainer.
// The matching itself is the back-office's concern.
type AssignmentResolver interface {
	ListTraineeIDs(ctx context.Context, trainerID string) ([]string, error)
}

type worklistCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// WorklistService computes the role-specific projections over the submission
// store. All reads key off the canonical lifecycle state, never off raw review
// fields, so the three screens can never disagree about a record's status.
// Every query is read-only and safe to repeat.
type WorklistService struct {
	repo        demoLister
	assignments AssignmentResolver
	cache       worklistCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewWorklistService constructs the service. Cache may be nil.
func NewWorklistService(repo demoLister, assignments AssignmentResolver, cache worklistCache, cacheTTL time.Duration, logger *zap.Logger) *WorklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &WorklistService{
		repo:        repo,
		assignments: assignments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// PendingForTrainer returns unreviewed submissions from the trainer's assigned
// trainees. A trainer with no assignments gets an empty list, not an error.
func (s *WorklistService) PendingForTrainer(ctx context.Context, trainerID string) ([]models.DemoRecord, error) {
	traineeIDs, err := s.assignments.ListTraineeIDs(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignments")
	}
	if len(traineeIDs) == 0 {
		return []models.DemoRecord{}, nil
	}

	demos, err := s.repo.List(ctx, models.DemoFilter{
		States:     []models.LifecycleState{models.StateUnderTrainerReview},
		TraineeIDs: traineeIDs,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending demos")
	}
	return demos, nil
}

// ReviewedByTrainer returns the trainer's own review history. The records
// carry their current combined status, so a later master-trainer verdict is
// visible here without any extra join.
func (s *WorklistService) ReviewedByTrainer(ctx context.Context, trainerID string) ([]models.DemoRecord, error) {
	demos, err := s.repo.List(ctx, models.DemoFilter{TrainerReviewerID: trainerID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviewed demos")
	}
	return demos, nil
}

// PendingForMasterTrainer returns exactly the trainer-approved, not yet
// finally reviewed set. Keying off the lifecycle state (instead of the
// trainer decision alone) is what keeps already-finalized records out of the
// queue. The result is cached briefly; every accepted transition invalidates.
func (s *WorklistService) PendingForMasterTrainer(ctx context.Context) ([]models.DemoRecord, error) {
	if s.cache != nil {
		var cached []models.DemoRecord
		if err := s.cache.Get(ctx, masterQueueCacheKey, &cached); err == nil {
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("master queue cache read failed", zap.Error(err))
		}
	}

	demos, err := s.repo.List(ctx, models.DemoFilter{
		States: []models.LifecycleState{models.StateTrainerApproved},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list master queue")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, masterQueueCacheKey, demos, s.cacheTTL); err != nil {
			s.logger.Warn("master queue cache write failed", zap.Error(err))
		}
	}
	return demos, nil
}

// InvalidateMasterQueue drops the cached master queue after a transition.
func (s *WorklistService) InvalidateMasterQueue(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, masterQueueCacheKey)
	}
}
