package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
	"github.com/trainops/tmc-api/pkg/export"
)

// ExportFormat names a supported rendering of the review history.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	MaxRows int
}

// ExportResult is a rendered export ready to stream to the client.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
	RowCount    int
}

// ExportService renders the demo review history for offline analysis.
type ExportService struct {
	repo   demoLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(repo demoLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

var exportHeaders = []string{
	"Demo ID", "Trainee", "Title", "Course", "Type", "Status", "Submitted At",
	"Trainer Decision", "Trainer Rating", "Trainer Feedback",
	"Final Decision", "Final Rating", "Final Feedback",
}

// Generate renders the current review history in the requested format.
func (s *ExportService) Generate(ctx context.Context, format ExportFormat, filter models.DemoFilter) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if filter.Limit <= 0 || filter.Limit > s.cfg.MaxRows {
		filter.Limit = s.cfg.MaxRows
	}

	demos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export rows")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(demos))}
	for _, demo := range demos {
		dataset.Rows = append(dataset.Rows, exportRow(demo))
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	result := &ExportResult{RowCount: len(dataset.Rows)}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		result.Payload = payload
		result.ContentType = "text/csv"
		result.Filename = fmt.Sprintf("demo-reviews-%s.csv", stamp)
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Demo Review History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		result.Payload = payload
		result.ContentType = "application/pdf"
		result.Filename = fmt.Sprintf("demo-reviews-%s.pdf", stamp)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	s.logger.Info("export generated",
		zap.String("format", string(format)), zap.Int("rows", result.RowCount))
	return result, nil
}

func exportRow(demo models.DemoRecord) map[string]string {
	row := map[string]string{
		"Demo ID":      demo.ID,
		"Trainee":      demo.TraineeName,
		"Title":        demo.Title,
		"Course":       demo.CourseTag,
		"Type":         string(demo.SubmissionType),
		"Status":       string(demo.LifecycleState),
		"Submitted At": demo.SubmittedAt.UTC().Format(time.RFC3339),
	}
	fillReviewColumns(row, "Trainer", demo.TrainerReview)
	fillReviewColumns(row, "Final", demo.MasterReview)
	return row
}

func fillReviewColumns(row map[string]string, prefix string, review *models.Review) {
	if review == nil {
		return
	}
	row[prefix+" Decision"] = string(review.Decision)
	if review.Rating != nil {
		row[prefix+" Rating"] = strconv.Itoa(*review.Rating)
	}
	row[prefix+" Feedback"] = review.Feedback
}
