package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainops/tmc-api/internal/dto"
	"github.com/trainops/tmc-api/internal/middleware"
	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
	"github.com/trainops/tmc-api/pkg/response"
)

type demoServiceMock struct {
	submitResp   *models.DemoRecord
	submitErr    error
	getResp      *models.DemoRecord
	getErr       error
	listResp     []models.DemoRecord
	listErr      error
	reviewResp   *models.DemoRecord
	reviewErr    error
	withdrawErr  error
	lastQuery    dto.DemoQuery
	lastReview   dto.ReviewRequest
	lastReviewer string
	trainerCalls int
	masterCalls  int
}

func (m *demoServiceMock) Submit(ctx context.Context, req dto.CreateDemoRequest, actor *models.JWTClaims) (*models.DemoRecord, error) {
	return m.submitResp, m.submitErr
}

func (m *demoServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoRecord, error) {
	return m.getResp, m.getErr
}

func (m *demoServiceMock) ListForTrainee(ctx context.Context, traineeID string, query dto.DemoQuery) ([]models.DemoRecord, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *demoServiceMock) SubmitTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
	m.trainerCalls++
	m.lastReview = req
	m.lastReviewer = reviewerID
	return m.reviewResp, m.reviewErr
}

func (m *demoServiceMock) SubmitMasterTrainerReview(ctx context.Context, id string, req dto.ReviewRequest, reviewerID string) (*models.DemoRecord, error) {
	m.masterCalls++
	m.lastReview = req
	m.lastReviewer = reviewerID
	return m.reviewResp, m.reviewErr
}

func (m *demoServiceMock) Withdraw(ctx context.Context, id, requesterID string) error {
	return m.withdrawErr
}

type signerMock struct{}

func (signerMock) Generate(demoID, contentRef string) (string, time.Time, error) {
	return "signed-token", time.Now().Add(time.Hour), nil
}

func testContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestDemoHandlerCreate(t *testing.T) {
	mockSvc := &demoServiceMock{submitResp: &models.DemoRecord{ID: "d1", LifecycleState: models.StateUnderTrainerReview}}
	h := NewDemoHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.CreateDemoRequest{
		Title:          "Grammar lesson demo",
		Description:    "A 30 minute session",
		CourseTag:      "teaching-basics",
		SubmissionType: models.SubmissionOnline,
		ContentRef:     "media/abc",
	})
	c, w := testContext(t, http.MethodPost, "/demos", payload, &models.JWTClaims{UserID: "trainee-1", Role: models.RoleTrainee})

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestDemoHandlerCreateInvalidBody(t *testing.T) {
	h := NewDemoHandler(&demoServiceMock{}, nil)
	c, w := testContext(t, http.MethodPost, "/demos", []byte(`{"title":`), &models.JWTClaims{UserID: "trainee-1"})

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDemoHandlerCreateUnauthenticated(t *testing.T) {
	h := NewDemoHandler(&demoServiceMock{}, nil)
	c, w := testContext(t, http.MethodPost, "/demos", []byte(`{}`), nil)

	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDemoHandlerListParsesQuery(t *testing.T) {
	mockSvc := &demoServiceMock{listResp: []models.DemoRecord{}}
	h := NewDemoHandler(mockSvc, nil)
	c, w := testContext(t, http.MethodGet, "/demos?status=under_trainer_review,trainer_approved&page=2&page_size=10", nil, &models.JWTClaims{UserID: "trainee-1", Role: models.RoleTrainee})

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.LifecycleState{models.StateUnderTrainerReview, models.StateTrainerApproved}, mockSvc.lastQuery.States)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)
	assert.Equal(t, 10, mockSvc.lastQuery.PageSize)
}

func TestDemoHandlerTrainerReview(t *testing.T) {
	rating := 4
	mockSvc := &demoServiceMock{reviewResp: &models.DemoRecord{ID: "d1", LifecycleState: models.StateTrainerApproved}}
	h := NewDemoHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ReviewRequest{Decision: models.DecisionApprove, Rating: &rating})
	c, w := testContext(t, http.MethodPost, "/demos/d1/trainer-review", payload, &models.JWTClaims{UserID: "trainer-1", Role: models.RoleTrainer})
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.TrainerReview(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mockSvc.trainerCalls)
	assert.Equal(t, "trainer-1", mockSvc.lastReviewer)
	require.NotNil(t, mockSvc.lastReview.Rating)
	assert.Equal(t, 4, *mockSvc.lastReview.Rating)
}

func TestDemoHandlerMasterReviewConflict(t *testing.T) {
	mockSvc := &demoServiceMock{reviewErr: appErrors.ErrInvalidStateTransition}
	h := NewDemoHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ReviewRequest{Decision: models.DecisionReject, Feedback: "pacing"})
	c, w := testContext(t, http.MethodPost, "/demos/d1/master-review", payload, &models.JWTClaims{UserID: "master-1", Role: models.RoleMasterTrainer})
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.MasterReview(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, mockSvc.masterCalls)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidStateTransition.Code, envelope.Error.Code)
}

func TestDemoHandlerWithdraw(t *testing.T) {
	h := NewDemoHandler(&demoServiceMock{}, nil)
	c, w := testContext(t, http.MethodDelete, "/demos/d1", nil, &models.JWTClaims{UserID: "trainee-1", Role: models.RoleTrainee})
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.Withdraw(c)
	// gin.CreateTestContext does not flush a status-only response to the
	// recorder until the header is written explicitly.
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDemoHandlerContentLink(t *testing.T) {
	mockSvc := &demoServiceMock{getResp: &models.DemoRecord{ID: "d1", ContentRef: "media/abc"}}
	h := NewDemoHandler(mockSvc, signerMock{})
	c, w := testContext(t, http.MethodGet, "/demos/d1/content-link", nil, &models.JWTClaims{UserID: "trainer-1", Role: models.RoleTrainer})
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.ContentLink(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signed-token")
}
