package handlers

import (
	"net/http"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/services"
)

type NoteHandler struct {
	noteService services.NoteService
}

func NewNoteHandler(noteService services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) challengePath(r *http.Request) (eventID, challengeID, currentUserID int, err error) {
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

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.NoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	note, err := h.noteService.CreateNote(r.Context(), eventID, challengeID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "note created", note)
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	notes, err := h.noteService.ListNotes(r.Context(), eventID, challengeID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "notes", notes)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	noteID, err := idParam(r, "noteID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.NoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	note, err := h.noteService.UpdateNote(r.Context(), eventID, challengeID, noteID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "note updated", note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	noteID, err := idParam(r, "noteID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), eventID, challengeID, noteID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "note deleted", nil)
}
