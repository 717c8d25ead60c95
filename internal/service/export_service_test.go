package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

func reviewedDemo() models.DemoRecord {
	rating := 4
	return models.DemoRecord{
		ID:             "d1",
		TraineeID:      "trainee-1",
		TraineeName:    "Ana Trainee",
		Title:          "Grammar lesson demo",
		CourseTag:      "teaching-basics",
		SubmissionType: models.SubmissionOnline,
		LifecycleState: models.StateTrainerApproved,
		SubmittedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TrainerReview: &models.Review{
			ReviewerID: "trainer-1",
			Decision:   models.DecisionApprove,
			Rating:     &rating,
			ReviewedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportServiceGenerateCSV(t *testing.T) {
	lister := &filterRecordingLister{demos: []models.DemoRecord{reviewedDemo()}}
	svc := NewExportService(lister, ExportConfig{Enabled: true, MaxRows: 100}, zap.NewNop(), nil, nil)

	result, err := svc.Generate(context.Background(), ExportFormatCSV, models.DemoFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, 1, result.RowCount)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Demo ID")
	assert.Contains(t, body, "Ana Trainee")
	assert.Contains(t, body, "TRAINER_APPROVED")
	assert.Contains(t, body, "4")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	lister := &filterRecordingLister{demos: []models.DemoRecord{reviewedDemo()}}
	svc := NewExportService(lister, ExportConfig{Enabled: true, MaxRows: 100}, zap.NewNop(), nil, nil)

	result, err := svc.Generate(context.Background(), ExportFormatPDF, models.DemoFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestExportServiceCapsRowLimit(t *testing.T) {
	lister := &filterRecordingLister{}
	svc := NewExportService(lister, ExportConfig{Enabled: true, MaxRows: 25}, zap.NewNop(), nil, nil)

	_, err := svc.Generate(context.Background(), ExportFormatCSV, models.DemoFilter{Limit: 9999})
	require.NoError(t, err)
	require.Len(t, lister.filters, 1)
	assert.Equal(t, 25, lister.filters[0].Limit)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&filterRecordingLister{}, ExportConfig{Enabled: false}, zap.NewNop(), nil, nil)

	_, err := svc.Generate(context.Background(), ExportFormatCSV, models.DemoFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(&filterRecordingLister{}, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil)

	_, err := svc.Generate(context.Background(), ExportFormat("xlsx"), models.DemoFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
