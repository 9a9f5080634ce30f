package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
	solveService     services.SolveService
}

func NewChallengeHandler(challengeService services.ChallengeService, solveService services.SolveService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		solveService:     solveService,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.CreateChallengeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, errors.New("team_id is required"))
		return
	}

	challenge, err := h.challengeService.CreateChallenge(r.Context(), eventID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "challenge created", challenge)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	challengeID, err := idParam(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	challenge, err := h.challengeService.GetChallenge(r.Context(), eventID, challengeID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "challenge found", challenge)
}

// ListChallenges requires a team_id query parameter because
// challenges are private to the owning team.
func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	teamID, err := strconv.Atoi(r.URL.Query().Get("team_id"))
	if err != nil || teamID <= 0 {
		badRequestResponse(w, errors.New("team_id query parameter is required"))
		return
	}

	challenges, err := h.challengeService.ListChallenges(r.Context(), eventID, teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "challenges", challenges)
}

func (h *ChallengeHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	challengeID, err := idParam(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.UpdateChallengeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	challenge, err := h.challengeService.UpdateChallenge(r.Context(), eventID, challengeID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "challenge updated", challenge)
}

func (h *ChallengeHandler) Solve(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	challengeID, err := idParam(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Flag string `json:"flag"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	result, err := h.solveService.Solve(r.Context(), eventID, challengeID, currentUserID, input.Flag)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	message := "flag rejected"
	if result.Solved {
		message = "challenge solved"
	}
	writeSuccess(w, http.StatusOK, message, result)
}

func (h *ChallengeHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	challengeID, err := idParam(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		UserID int `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.UserID <= 0 {
		badRequestResponse(w, errors.New("user_id is required"))
		return
	}

	assignment, err := h.challengeService.AssignUser(r.Context(), eventID, challengeID, input.UserID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "user assigned", assignment)
}

func (h *ChallengeHandler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	challengeID, err := idParam(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	assignments, err := h.challengeService.ListAssignees(r.Context(), eventID, challengeID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "challenge assignees", assignments)
}
