package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/services"
)

type fakeSolveService struct {
	solveFn func(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error)
}

func (f *fakeSolveService) Solve(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
	return f.solveFn(ctx, eventID, challengeID, currentUserID, submittedFlag)
}

func solveRequest(t *testing.T, target, body string, userID int) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	claims := jwt.MapClaims{"user_id": float64(userID), "role": "USER"}
	return req.WithContext(middleware.ContextWithClaims(req.Context(), claims))
}

func solveRouter(svc services.SolveService) *chi.Mux {
	handler := NewChallengeHandler(nil, svc)
	router := chi.NewRouter()
	router.Post("/events/{eventID}/challenges/{challengeID}/solve", handler.Solve)
	return router
}

func TestSolveHandler_Solved(t *testing.T) {
	svc := &fakeSolveService{
		solveFn: func(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
			assert.Equal(t, 3, eventID)
			assert.Equal(t, 7, challengeID)
			assert.Equal(t, 11, currentUserID)
			assert.Equal(t, "flag{x}", submittedFlag)
			return &models.SolveResult{Solved: true, Points: 500}, nil
		},
	}

	rec := httptest.NewRecorder()
	solveRouter(svc).ServeHTTP(rec, solveRequest(t, "/events/3/challenges/7/solve", `{"flag":"flag{x}"}`, 11))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "challenge solved", env.Message)
}

func TestSolveHandler_WrongFlag(t *testing.T) {
	svc := &fakeSolveService{
		solveFn: func(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
			return &models.SolveResult{Solved: false}, nil
		},
	}

	rec := httptest.NewRecorder()
	solveRouter(svc).ServeHTTP(rec, solveRequest(t, "/events/3/challenges/7/solve", `{"flag":"nope"}`, 11))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "flag rejected", env.Message)
}

func TestSolveHandler_AlreadySolvedConflicts(t *testing.T) {
	svc := &fakeSolveService{
		solveFn: func(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
			return nil, services.ErrChallengeAlreadySolved
		},
	}

	rec := httptest.NewRecorder()
	solveRouter(svc).ServeHTTP(rec, solveRequest(t, "/events/3/challenges/7/solve", `{"flag":"flag{x}"}`, 11))

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeConflict, env.Error.Code)
}

func TestSolveHandler_NonMemberForbidden(t *testing.T) {
	svc := &fakeSolveService{
		solveFn: func(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
			return nil, services.ErrNotTeamMember
		},
	}

	rec := httptest.NewRecorder()
	solveRouter(svc).ServeHTTP(rec, solveRequest(t, "/events/3/challenges/7/solve", `{"flag":"flag{x}"}`, 11))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSolveHandler_BadEventIDRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	solveRouter(&fakeSolveService{}).ServeHTTP(rec, solveRequest(t, "/events/abc/challenges/7/solve", `{"flag":"x"}`, 11))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolveHandler_MissingClaimsUnauthorized(t *testing.T) {
	router := solveRouter(&fakeSolveService{})
	req := httptest.NewRequest(http.MethodPost, "/events/3/challenges/7/solve", strings.NewReader(`{"flag":"x"}`))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
