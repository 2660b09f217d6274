package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/adamsbarry18/innov-stocker/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxSubmitBody caps the JSON body of one submission; the row-count limit
// is enforced separately by the service.
const maxSubmitBody = 32 << 20 // 32MB

type submitRequest struct {
	OriginalFileName string            `json:"originalFileName"`
	Data             []json.RawMessage `json:"data"`
}

type submitResponse struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	Status     string `json:"status"`
}

// handleSubmit accepts a batch of raw rows for one entity type, persists it
// as PENDING and returns 202 immediately. All business outcomes are
// observed afterwards via the status endpoint.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "entityType")
	def, ok := imports.BySlug(slug)
	if !ok {
		s.respondError(w, r, imports.ErrUnknownEntityType, http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errors.New("invalid payload: body is not valid JSON"), http.StatusBadRequest)
		return
	}

	// Auth runs upstream; the gateway forwards the caller's identity.
	createdBy := r.Header.Get("X-User-ID")

	batch, err := s.service.ScheduleImport(r.Context(), def.Type, req.OriginalFileName, req.Data, createdBy)
	if err != nil {
		s.respondError(w, r, err, submitStatusCode(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, submitResponse{
		ID:         batch.ID.String(),
		EntityType: string(batch.EntityType),
		Status:     string(batch.Status),
	})
}

func submitStatusCode(err error) int {
	switch {
	case errors.Is(err, imports.ErrEmptyPayload),
		errors.Is(err, imports.ErrInvalidPayload),
		errors.Is(err, imports.ErrPayloadTooLarge),
		errors.Is(err, imports.ErrUnknownEntityType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleStatus serves the most recently persisted snapshot of a batch.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		s.respondError(w, r, errors.New("invalid payload: malformed import id"), http.StatusBadRequest)
		return
	}

	batch, err := s.service.ImportStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, imports.ErrBatchNotFound) {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, batch)
}

type entityTypeView struct {
	EntityType string `json:"entityType"`
	Slug       string `json:"slug"`
	Label      string `json:"label"`
	Protocol   string `json:"protocol"`
}

// handleListTypes lists the registered entity types and their commit
// protocol.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	defs := imports.All()
	views := make([]entityTypeView, len(defs))
	for i, def := range defs {
		views[i] = entityTypeView{
			EntityType: string(def.Type),
			Slug:       def.Slug,
			Label:      def.Label,
			Protocol:   string(def.Protocol),
		}
	}
	writeJSON(w, views)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]string{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// ErrorResponse is the JSON structure for API error responses, carrying
// both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error with request context and returns
// the mapped user-friendly message to the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := imports.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError writes a plain JSON error without mapping; used where no
// request context is available (rate limiter).
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
