// Package handler is the thin HTTP layer over the roster engine. It maps
// requests onto engine operations and domain errors onto status codes without
// embedding business logic.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterhub/internal/platform/middleware"
	"rosterhub/internal/roster"
	dErrors "rosterhub/pkg/domain-errors"
)

// Service defines the engine operations the HTTP layer consumes.
type Service interface {
	List(ctx context.Context) ([]*roster.Activity, error)
	Signup(ctx context.Context, activity, email string) (int, error)
	Unregister(ctx context.Context, activity, email string) (int, error)
	CreateActivity(ctx context.Context, name, description, schedule string, maxParticipants int) (*roster.Activity, error)
	UpdateActivity(ctx context.Context, name string, patch roster.ActivityPatch) (*roster.Activity, error)
}

// Handler handles roster endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the roster routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activities", h.handleList)
	r.Post("/activities", h.handleCreate)
	r.Patch("/activities/{name}", h.handleUpdate)
	r.Post("/activities/{name}/signup", h.handleSignup)
	r.Delete("/activities/{name}/unregister", h.handleUnregister)
}

// activityView matches the original wire shape: a map keyed by activity name.
type activityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make(map[string]activityView, len(activities))
	for _, a := range activities {
		emails := make([]string, 0, len(a.Participants))
		for _, p := range a.Participants {
			emails = append(emails, p.Email)
		}
		out[a.Name] = activityView{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    emails,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	email := r.URL.Query().Get("email")

	if _, err := h.service.Signup(r.Context(), name, email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

func (h *Handler) handleUnregister(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	email := r.URL.Query().Get("email")

	if _, err := h.service.Unregister(r.Context(), name, email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Unregistered %s from %s", email, name),
	})
}

type createActivityRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Schedule        string `json:"schedule"`
	MaxParticipants int    `json:"max_participants"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), req.Name, req.Description, req.Schedule, req.MaxParticipants)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":             activity.Name,
		"description":      activity.Description,
		"schedule":         activity.Schedule,
		"max_participants": activity.MaxParticipants,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var patch roster.ActivityPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	activity, err := h.service.UpdateActivity(r.Context(), name, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":             activity.Name,
		"description":      activity.Description,
		"schedule":         activity.Schedule,
		"max_participants": activity.MaxParticipants,
	})
}

// writeError centralizes domain error translation to HTTP responses so every
// endpoint returns the same JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
