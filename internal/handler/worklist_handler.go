package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
	"github.com/trainops/tmc-api/pkg/response"
)

type worklistService interface {
	PendingForTrainer(ctx context.Context, trainerID string) ([]models.DemoRecord, error)
	ReviewedByTrainer(ctx context.Context, trainerID string) ([]models.DemoRecord, error)
	PendingForMasterTrainer(ctx context.Context) ([]models.DemoRecord, error)
}

// WorklistHandler serves the three role-specific review screens.
type WorklistHandler struct {
	service worklistService
}

// NewWorklistHandler constructs the handler.
func NewWorklistHandler(service worklistService) *WorklistHandler {
	return &WorklistHandler{service: service}
}

// TrainerPending godoc
// @Summary Pending submissions from the trainer's assigned trainees
// @Tags Worklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /worklists/trainer [get]
func (h *WorklistHandler) TrainerPending(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "worklist service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demos, err := h.service.PendingForTrainer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demos, nil)
}

// TrainerHistory godoc
// @Summary Submissions the trainer has already reviewed
// @Tags Worklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /worklists/trainer/history [get]
func (h *WorklistHandler) TrainerHistory(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "worklist service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demos, err := h.service.ReviewedByTrainer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demos, nil)
}

// MasterQueue godoc
// @Summary Trainer-approved submissions awaiting the final verdict
// @Tags Worklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /worklists/master [get]
func (h *WorklistHandler) MasterQueue(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "worklist service not configured"))
		return
	}
	demos, err := h.service.PendingForMasterTrainer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demos, nil)
}
