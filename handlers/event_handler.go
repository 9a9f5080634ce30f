package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Glebradost/ctfhub/middleware"
	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/services"
)

type EventHandler struct {
	eventService services.EventService
	statsService services.StatsService
}

func NewEventHandler(eventService services.EventService, statsService services.StatsService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		statsService: statsService,
	}
}

type eventPayload struct {
	Name        string     `json:"name"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	PlatformURL *string    `json:"platform_url"`
	PlatformKey *string    `json:"platform_key"`
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}

	var input eventPayload
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.StartsAt == nil || input.EndsAt == nil {
		badRequestResponse(w, errors.New("starts_at and ends_at are required"))
		return
	}

	event := &models.Event{
		Name:        input.Name,
		StartsAt:    *input.StartsAt,
		EndsAt:      *input.EndsAt,
		PlatformURL: input.PlatformURL,
		PlatformKey: input.PlatformKey,
	}
	if err := h.eventService.CreateEvent(r.Context(), event, role); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "event created", event)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "events", events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	event, err := h.eventService.GetEventByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "event found", event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	event, err := h.eventService.GetEventByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	var input eventPayload
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.Name != "" {
		event.Name = input.Name
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if input.PlatformURL != nil {
		event.PlatformURL = input.PlatformURL
	}
	if input.PlatformKey != nil {
		event.PlatformKey = input.PlatformKey
	}

	if err := h.eventService.UpdateEvent(r.Context(), event, role); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "event updated", event)
}

func (h *EventHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		TeamID int `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, errors.New("team_id is required"))
		return
	}

	registration, err := h.eventService.RegisterTeam(r.Context(), eventID, input.TeamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "team registered", registration)
}

func (h *EventHandler) ListEventTeams(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	registrations, err := h.eventService.ListEventTeams(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "event teams", registrations)
}

func (h *EventHandler) ListTeamEvents(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, err)
		return
	}
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	events, err := h.eventService.ListTeamEvents(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "team events", events)
}

func (h *EventHandler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	stats, err := h.statsService.GetEventStats(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "event stats", stats)
}
