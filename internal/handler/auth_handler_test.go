package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scriptsure-ai/grading-api/internal/dto"
	"github.com/scriptsure-ai/grading-api/internal/handler"
	"github.com/scriptsure-ai/grading-api/internal/service"
)

type stubAuthService struct {
	response dto.LoginResponse
	err      error
	payload  dto.LoginRequest
}

func (s *stubAuthService) Login(_ context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	s.payload = payload
	return s.response, s.err
}

func newAuthApp(svc service.AuthService) *fiber.App {
	app := fiber.New()
	h := handler.NewAuthHandler(svc, zerolog.Nop())
	h.Register(app.Group("/api/v1/auth"))
	return app
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	svc := &stubAuthService{
		response: dto.LoginResponse{
			Token:     "token-123",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      dto.UserResponse{ID: "u-1", Email: "user@scriptsure.ai", Role: "USER"},
		},
	}
	app := newAuthApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"user@scriptsure.ai","password":"user123"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decoded := decodeResponse(t, resp)
	require.True(t, decoded.Success)
	require.Equal(t, "login successful", decoded.Message)
	require.Equal(t, "user@scriptsure.ai", svc.payload.Email)
}

func TestAuthHandlerLoginRejectsBadCredentials(t *testing.T) {
	app := newAuthApp(&stubAuthService{err: service.ErrInvalidCredentials})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"user@scriptsure.ai","password":"wrong"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	decoded := decodeResponse(t, resp)
	require.False(t, decoded.Success)
	require.Equal(t, "invalid credentials", decoded.Message)
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	app := newAuthApp(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
