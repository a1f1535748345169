package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/types"
)

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 100
)

// SessionSummary is one entry of the session listing
type SessionSummary struct {
	SessionID       string         `json:"session_id"`
	Title           string         `json:"title"`
	UserInput       map[string]any `json:"user_input"`
	Status          string         `json:"status"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	DurationSeconds *float64       `json:"duration_seconds"`
}

// SessionDetail is the metadata of one session
type SessionDetail struct {
	SessionSummary
	ExecutionLog []string `json:"execution_log"`
	ErrorMessage *string  `json:"error_message"`
}

// CreateSessionResponse represents the response for POST /api/sessions
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// sessionTitle derives the display title of a session from its input.
func sessionTitle(s *db.Session) string {
	if subject, ok := s.UserInput["course_subject"].(string); ok && subject != "" {
		return "Session " + subject
	}
	id := s.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return "Session " + id + "..."
}

func summarize(s *db.Session) SessionSummary {
	input := s.UserInput
	if input == nil {
		input = map[string]any{}
	}
	return SessionSummary{
		SessionID:       s.SessionID,
		Title:           sessionTitle(s),
		UserInput:       input,
		Status:          s.Status,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
	}
}

// handleRoot describes the API
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		dbStatus = "unavailable"
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"message":         "Course Designer API",
		"version":         "1.0.0",
		"database":        "PostgreSQL",
		"database_status": dbStatus,
		"endpoints": map[string]string{
			"sessions":       "/api/sessions",
			"session":        "/api/sessions/{session_id}",
			"content":        "/api/sessions/{session_id}/content",
			"content_simple": "/api/sessions/{session_id}/content/simple",
			"statistics":     "/api/statistics",
			"health":         "/health",
		},
	})
}

// handleHealth reports store reachability and the session count
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := map[string]any{"type": "PostgreSQL"}
	resp := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", "error", err)
		resp["status"] = "unhealthy"
		database["status"] = "inaccessible"
		database["error"] = err.Error()
		s.jsonResponse(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp["status"] = "healthy"
	database["status"] = "accessible"
	if count, err := s.store.CountSessions(r.Context()); err != nil {
		database["error"] = err.Error()
	} else {
		database["sessions_count"] = count
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListSessions returns the most recent sessions, newest first
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSessionLimit {
			s.errorFromErr(w, r, &ErrValidation{
				Field:   "limit",
				Message: fmt.Sprintf("must be an integer between 1 and %d", maxSessionLimit),
			})
			return
		}
		limit = n
	}

	sessions, err := s.store.ListRecentSessions(r.Context(), limit)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	out := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		out = append(out, summarize(&sessions[i]))
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// handleGetSession returns one session's metadata
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if session == nil {
		s.errorFromErr(w, r, &ErrSessionNotFound{SessionID: id})
		return
	}

	log := session.ExecutionLog
	if log == nil {
		log = []string{}
	}
	s.jsonResponse(w, http.StatusOK, SessionDetail{
		SessionSummary: summarize(session),
		ExecutionLog:   log,
		ErrorMessage:   session.ErrorMessage,
	})
}

// handleGetContent returns the session content document
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.projector.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, content)
}

// handleGetContentSimple returns the content document without its envelope
func (s *Server) handleGetContentSimple(w http.ResponseWriter, r *http.Request) {
	content, err := s.projector.ProjectFlat(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, content)
}

// handleStatistics returns global statistics
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.statistics.Summary(r.Context())
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleCreateSession validates the course input and starts a pipeline run
// in the background. The response carries the id the run is recorded under.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "session creation is disabled")
		return
	}

	var input types.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := input.Validate(); err != nil {
		s.errorFromErr(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	sessionID := uuid.NewString()
	s.log.Info("starting pipeline run", "session_id", sessionID, "subject", input.CourseSubject)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		res := s.runner.Run(s.runCtx, input, sessionID)
		s.log.Info("pipeline run finished", "session_id", sessionID, "status", res.Status)
	}()

	s.jsonResponse(w, http.StatusAccepted, CreateSessionResponse{
		SessionID: sessionID,
		Status:    "started",
	})
}
