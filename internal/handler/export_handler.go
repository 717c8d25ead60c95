package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainops/tmc-api/internal/models"
	"github.com/trainops/tmc-api/internal/service"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
	"github.com/trainops/tmc-api/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, format service.ExportFormat, filter models.DemoFilter) (*service.ExportResult, error)
}

// ExportHandler streams rendered review-history exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export the demo review history
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param status query string false "Comma separated lifecycle states"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /demos/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	filter := models.DemoFilter{States: parseStates(c.Query("status"))}

	result, err := h.service.Generate(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
