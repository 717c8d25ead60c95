package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trainops/tmc-api/internal/dto"
	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
	"github.com/trainops/tmc-api/pkg/response"
)

type demoService interface {
	Submit(ctx context.Context, req dto.CreateDemoRequest, actor *models.JWTClaims) (*models.DemoRecord, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoRecord, error)
	ListForTrainee(ctx context.Context, traineeID string, query dto.DemoQuery) ([]models.DemoRecord, error)
	SubmitTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error)
	SubmitMasterTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error)
	Withdraw(ctx context.Context, id, requesterID string) error
}

type mediaTokenIssuer interface {
	Generate(demoID, contentRef string) (string, time.Time, error)
}

// DemoHandler exposes REST endpoints for the demo review lifecycle.
type DemoHandler struct {
	service demoService
	signer  mediaTokenIssuer
}

// NewDemoHandler constructs the handler. Signer may be nil; the content-link
// endpoint then reports an internal error.
func NewDemoHandler(service demoService, signer mediaTokenIssuer) *DemoHandler {
	return &DemoHandler{service: service, signer: signer}
}

// Create godoc
// @Summary Submit a demo work sample
// @Tags Demos
// @Accept json
// @Produce json
// @Param payload body dto.CreateDemoRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /demos [post]
func (h *DemoHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "demo service not configured"))
		return
	}
	var req dto.CreateDemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demo, err := h.service.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, demo, nil)
}

// Get godoc
// @Summary Fetch one demo with its reviews and audit trail
// @Tags Demos
// @Produce json
// @Param id path string true "Demo ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demos/{id} [get]
func (h *DemoHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "demo service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demo, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demo, nil)
}

// List godoc
// @Summary List the caller's own submissions
// @Tags Demos
// @Produce json
// @Param status query string false "Comma separated lifecycle states"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /demos [get]
func (h *DemoHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "demo service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.DemoQuery{
		States:   parseStates(c.Query("status")),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
	}

	demos, err := h.service.ListForTrainee(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demos, &models.Pagination{
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalCount: len(demos),
	})
}

// TrainerReview godoc
// @Summary Record the trainer verdict on a pending demo
// @Tags Demos
// @Accept json
// @Produce json
// @Param id path string true "Demo ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /demos/{id}/trainer-review [post]
func (h *DemoHandler) TrainerReview(c *gin.Context) {
	h.review(c, func(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
		return h.service.SubmitTrainerReview(ctx, id, req, reviewerID)
	})
}

// MasterReview godoc
// @Summary Record the master trainer verdict on a trainer-approved demo
// @Tags Demos
// @Accept json
// @Produce json
// @Param id path string true "Demo ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /demos/{id}/master-review [post]
func (h *DemoHandler) MasterReview(c *gin.Context) {
	h.review(c, func(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
		return h.service.SubmitMasterTrainerReview(ctx, id, req, reviewerID)
	})
}

func (h *DemoHandler) review(c *gin.Context, apply func(context.Context, string, dto.ReviewRequest, string) (*models.DemoRecord, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "demo service not configured"))
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demo, err := apply(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demo, nil)
}

// Withdraw godoc
// @Summary Withdraw an unreviewed submission
// @Tags Demos
// @Param id path string true "Demo ID"
// @Success 204 "No Content"
// @Failure 409 {object} response.Envelope
// @Router /demos/{id} [delete]
func (h *DemoHandler) Withdraw(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "demo service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Withdraw(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ContentLink godoc
// @Summary Issue a signed, time-limited media view token
// @Tags Demos
// @Produce json
// @Param id path string true "Demo ID"
// @Success 200 {object} response.Envelope
// @Router /demos/{id}/content-link [get]
func (h *DemoHandler) ContentLink(c *gin.Context) {
	if h.service == nil || h.signer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "content links not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demo, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expiresAt, err := h.signer.Generate(demo.ID, demo.ContentRef)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign content link"))
		return
	}
	response.JSON(c, http.StatusOK, dto.ContentLinkResponse{Token: token, ExpiresAt: expiresAt}, nil)
}

func parseStates(raw string) []models.LifecycleState {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	states := make([]models.LifecycleState, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			states = append(states, models.LifecycleState(strings.ToUpper(value)))
		}
	}
	return states
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
