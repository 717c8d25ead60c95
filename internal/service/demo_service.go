package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/dto"
	"github.com/trainops/tmc-api/internal/models"
	"github.com/trainops/tmc-api/internal/repository"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

type demoStore interface {
	Create(ctx context.Context, demo *models.DemoRecord) error
	GetByID(ctx context.Context, id string) (*models.DemoRecord, error)
	List(ctx context.Context, filter models.DemoFilter) ([]models.DemoRecord, error)
	ApplyTransition(ctx context.Context, params repository.ApplyTransitionParams) (*models.ReviewEvent, error)
	Withdraw(ctx context.Context, demoID string) error
}

type worklistInvalidator interface {
	InvalidateMasterQueue(ctx context.Context)
}

type transitionObserver interface {
	ObserveTransition(action models.ReviewAction, toState models.LifecycleState)
	ObserveGuardRejection(reason string)
}

// DemoService drives the submission review lifecycle: load, guard, apply the
// transition atomically, then fan out the domain event. Guards run strictly
// before any write; an inadmissible request leaves the record unchanged.
type DemoService struct {
	repo      demoStore
	validator *validator.Validate
	notifier  Notifier
	worklists worklistInvalidator
	observer  transitionObserver
	logger    *zap.Logger
}

// DemoServiceOption configures the service.
type DemoServiceOption func(*DemoService)

// WithNotifier sets the transition event sink.
func WithNotifier(notifier Notifier) DemoServiceOption {
	return func(s *DemoService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithWorklistInvalidator wires cache invalidation for accepted transitions.
func WithWorklistInvalidator(inv worklistInvalidator) DemoServiceOption {
	return func(s *DemoService) {
		s.worklists = inv
	}
}

// WithTransitionObserver wires metrics for accepted transitions.
func WithTransitionObserver(obs transitionObserver) DemoServiceOption {
	return func(s *DemoService) {
		s.observer = obs
	}
}

// NewDemoService constructs the service with defaults.
func NewDemoService(repo demoStore, validate *validator.Validate, logger *zap.Logger, opts ...DemoServiceOption) *DemoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DemoService{
		repo:      repo,
		validator: validate,
		notifier:  NotifierFunc(func(context.Context, TransitionEvent) {}),
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit stores a new work sample on behalf of the trainee. The record enters
// review immediately; there is no draft stage.
func (s *DemoService) Submit(ctx context.Context, req dto.CreateDemoRequest, actor *models.JWTClaims) (*models.DemoRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	demo := &models.DemoRecord{
		TraineeID:      actor.UserID,
		TraineeName:    actor.FullName,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		CourseTag:      strings.TrimSpace(req.CourseTag),
		SubmissionType: req.SubmissionType,
		ContentRef:     req.ContentRef,
	}
	if err := s.repo.Create(ctx, demo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.logger.Info("demo submitted",
		zap.String("demo_id", demo.ID), zap.String("trainee_id", demo.TraineeID))
	return demo, nil
}

// Get returns a demo enforcing scope constraints: trainees only see their own
// submissions, reviewer roles see everything.
func (s *DemoService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	demo, err := s.loadDemo(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTrainee && demo.TraineeID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return demo, nil
}

// ListForTrainee returns the trainee's own submissions, newest first.
func (s *DemoService) ListForTrainee(ctx context.Context, traineeID string, query dto.DemoQuery) ([]models.DemoRecord, error) {
	filter := models.DemoFilter{
		TraineeID: traineeID,
		States:    query.States,
		Limit:     query.PageSize,
	}
	if query.Page > 1 && query.PageSize > 0 {
		filter.Offset = (query.Page - 1) * query.PageSize
	}
	demos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return demos, nil
}

// SubmitTrainerReview records the first-stage verdict.
func (s *DemoService) SubmitTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
	demo, err := s.loadDemo(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := GuardTrainerReview(demo, req); err != nil {
		return nil, s.rejectByGuard(err)
	}

	review := buildReview(reviewerID, req)
	toState := models.DeriveLifecycleState(&review, nil)

	return s.applyReview(ctx, demo, repository.ApplyTransitionParams{
		DemoID:    demo.ID,
		Stage:     repository.StageTrainer,
		FromState: models.StateUnderTrainerReview,
		ToState:   toState,
		Review:    review,
		Actor:     reviewerID,
		Action:    models.ActionTrainerReview,
	})
}

// SubmitMasterTrainerReview records the final-stage verdict on a
// trainer-approved record. The rating is independent of the trainer's; no
// aggregation happens here.
func (s *DemoService) SubmitMasterTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
	demo, err := s.loadDemo(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := GuardMasterReview(demo, req); err != nil {
		return nil, s.rejectByGuard(err)
	}

	review := buildReview(reviewerID, req)
	toState := models.DeriveLifecycleState(demo.TrainerReview, &review)

	return s.applyReview(ctx, demo, repository.ApplyTransitionParams{
		DemoID:    demo.ID,
		Stage:     repository.StageMaster,
		FromState: models.StateTrainerApproved,
		ToState:   toState,
		Review:    review,
		Actor:     reviewerID,
		Action:    models.ActionMasterReview,
	})
}

// Withdraw removes a submission that has not yet been reviewed. Only the
// owning trainee may withdraw, and only before the trainer's verdict.
func (s *DemoService) Withdraw(ctx context.Context, id, requesterID string) error {
	demo, err := s.loadDemo(ctx, id)
	if err != nil {
		return err
	}
	if err := GuardWithdraw(demo, requesterID); err != nil {
		return s.rejectByGuard(err)
	}

	if err := s.repo.Withdraw(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A review landed between our read and the delete.
			return appErrors.ErrInvalidStateTransition
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw submission")
	}

	s.afterTransition(ctx, TransitionEvent{
		RecordID:  demo.ID,
		FromState: models.StateUnderTrainerReview,
		ToState:   models.StateWithdrawn,
		Actor:     requesterID,
	}, models.ActionWithdraw, models.StateWithdrawn)
	s.logger.Info("demo withdrawn",
		zap.String("demo_id", demo.ID), zap.String("trainee_id", requesterID))
	return nil
}

func (s *DemoService) loadDemo(ctx context.Context, id string) (*models.DemoRecord, error) {
	demo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return demo, nil
}

func (s *DemoService) applyReview(ctx context.Context, demo *models.DemoRecord, params repository.ApplyTransitionParams) (*models.DemoRecord, error) {
	event, err := s.repo.ApplyTransition(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: a concurrent transition moved the record first.
			// The caller's view is stale and must be re-fetched, not retried.
			return nil, appErrors.ErrInvalidStateTransition
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply review")
	}

	review := params.Review
	switch params.Stage {
	case repository.StageTrainer:
		demo.TrainerReview = &review
	case repository.StageMaster:
		demo.MasterReview = &review
	}
	demo.LifecycleState = params.ToState
	demo.AuditTrail = append(demo.AuditTrail, *event)

	s.afterTransition(ctx, TransitionEvent{
		RecordID:  demo.ID,
		FromState: params.FromState,
		ToState:   params.ToState,
		Actor:     params.Actor,
	}, params.Action, params.ToState)
	return demo, nil
}

func (s *DemoService) rejectByGuard(err error) error {
	if s.observer != nil {
		s.observer.ObserveGuardRejection(appErrors.FromError(err).Code)
	}
	return err
}

func (s *DemoService) afterTransition(ctx context.Context, event TransitionEvent, action models.ReviewAction, toState models.LifecycleState) {
	if s.worklists != nil {
		s.worklists.InvalidateMasterQueue(ctx)
	}
	if s.observer != nil {
		s.observer.ObserveTransition(action, toState)
	}
	s.notifier.NotifyTransition(ctx, event)
}

func buildReview(reviewerID string, req dto.ReviewRequest) models.Review {
	review := models.Review{
		ReviewerID: reviewerID,
		Decision:   req.Decision,
		ReviewedAt: time.Now().UTC(),
	}
	if req.Decision == models.DecisionApprove && req.Rating != nil {
		v := *req.Rating
		review.Rating = &v
	}
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		review.Feedback = feedback
	}
	return review
}
