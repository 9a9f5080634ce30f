package handlers

import (
	"net/http"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/services"
)

type AttemptHandler struct {
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

func (h *AttemptHandler) challengePath(r *http.Request) (eventID, challengeID, currentUserID int, err error) {
	currentUserID, err = middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return
	}
	eventID, err = idParam(r, "eventID")
	if err != nil {
		return
	}
	challengeID, err = idParam(r, "challengeID")
	return
}

func (h *AttemptHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	attempts, err := h.attemptService.ListAttempts(r.Context(), eventID, challengeID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "flag attempts", attempts)
}

func (h *AttemptHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	attemptID, err := idParam(r, "attemptID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	attempt, err := h.attemptService.GetAttempt(r.Context(), eventID, challengeID, attemptID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "flag attempt", attempt)
}

func (h *AttemptHandler) AnnotateAttempt(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	attemptID, err := idParam(r, "attemptID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Comment string `json:"comment"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	attempt, err := h.attemptService.AnnotateAttempt(r.Context(), eventID, challengeID, attemptID, currentUserID, input.Comment)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "attempt annotated", attempt)
}
