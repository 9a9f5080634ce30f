package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Glebradost/ctfhub/services"
)

// envelope is the uniform response shape of the API.
type envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *errorPayload `json:"error,omitempty"`
	Meta    meta          `json:"meta"`
}

type errorPayload struct {
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	Timestamp time.Time `json:"timestamp"`
}

const (
	codeNotFound     = "NOT_FOUND"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeConflict     = "CONFLICT"
	codeValidation   = "VALIDATION_ERROR"
	codeInternal     = "INTERNAL"
)

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	env.Meta = meta{Timestamp: time.Now().UTC()}

	js, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal response envelope", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeEnvelope(w, status, envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeEnvelope(w, status, envelope{
		Success: false,
		Message: message,
		Error:   &errorPayload{Code: code, Details: details},
	})
}

func badRequestResponse(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
}

func notFoundResponse(w http.ResponseWriter, err error) {
	writeError(w, http.StatusNotFound, codeNotFound, err.Error(), nil)
}

func conflictResponse(w http.ResponseWriter, err error) {
	writeError(w, http.StatusConflict, codeConflict, err.Error(), nil)
}

func unauthorizedResponse(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error(), nil)
}

func forbiddenResponse(w http.ResponseWriter, err error) {
	writeError(w, http.StatusForbidden, codeForbidden, err.Error(), nil)
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, codeInternal,
		"the server encountered a problem and could not process your request", nil)
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// mapServiceErrorToHTTP translates service sentinel errors into the
// envelope's error taxonomy.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrAttemptNotFound),
		errors.Is(err, services.ErrNoteNotFound),
		errors.Is(err, services.ErrUploadNotFound),
		errors.Is(err, services.ErrTeamNotInEvent):
		notFoundResponse(w, err)

	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrUserUsernameConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrAlreadyTeamMember),
		errors.Is(err, services.ErrTeamAlreadyInEvent),
		errors.Is(err, services.ErrChallengeNameConflict),
		errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrChallengeAlreadySolved):
		conflictResponse(w, err)

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrEventNameRequired),
		errors.Is(err, services.ErrEventInvalidDates),
		errors.Is(err, services.ErrChallengeNameRequired),
		errors.Is(err, services.ErrChallengeInvalidPoints),
		errors.Is(err, services.ErrCommentRequired),
		errors.Is(err, services.ErrNoteTitleRequired),
		errors.Is(err, services.ErrFilenameRequired),
		errors.Is(err, services.ErrFileTooLarge):
		badRequestResponse(w, err)

	case errors.Is(err, services.ErrAuthInvalidCredentials):
		unauthorizedResponse(w, err)

	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrTeamRoleInsufficient),
		errors.Is(err, services.ErrOwnerCannotBeRemoved),
		errors.Is(err, services.ErrAdminRoleRequired):
		forbiddenResponse(w, err)

	default:
		serverErrorResponse(w, err)
	}
}
