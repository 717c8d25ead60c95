package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

type authServiceMock struct {
	loginResp *models.LoginResponse
	loginErr  error
	meResp    *models.UserInfo
	meErr     error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest, ip, userAgent string) (*models.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return m.meResp, m.meErr
}

func TestAuthHandlerLogin(t *testing.T) {
	mockSvc := &authServiceMock{loginResp: &models.LoginResponse{AccessToken: "token-123"}}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(models.LoginRequest{Email: "trainer@example.com", Password: "password"})
	c, w := testContext(t, http.MethodPost, "/auth/login", payload, nil)

	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token-123")
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	mockSvc := &authServiceMock{loginErr: appErrors.ErrInvalidCredentials}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(models.LoginRequest{Email: "trainer@example.com", Password: "wrong"})
	c, w := testContext(t, http.MethodPost, "/auth/login", payload, nil)

	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	mockSvc := &authServiceMock{meResp: &models.UserInfo{ID: "u1", Role: models.RoleTrainer}}
	h := NewAuthHandler(mockSvc)
	c, w := testContext(t, http.MethodGet, "/auth/me", nil, &models.JWTClaims{UserID: "u1", Role: models.RoleTrainer})

	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TRAINER")
}
