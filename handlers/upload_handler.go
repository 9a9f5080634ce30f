package handlers

import (
	"errors"
	"net/http"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/services"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) challengePath(r *http.Request) (eventID, challengeID, currentUserID int, err error) {
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

func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		badRequestResponse(w, errors.New("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, errors.New("file is required"))
		return
	}
	defer file.Close()

	upload, err := h.uploadService.UploadFile(
		r.Context(),
		eventID,
		challengeID,
		currentUserID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "file uploaded", upload)
}

func (h *UploadHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	uploads, err := h.uploadService.ListUploads(r.Context(), eventID, challengeID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "uploads", uploads)
}

func (h *UploadHandler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	eventID, challengeID, currentUserID, err := h.challengePath(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	uploadID, err := idParam(r, "uploadID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.uploadService.DeleteUpload(r.Context(), eventID, challengeID, uploadID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "upload deleted", nil)
}
