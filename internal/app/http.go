package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ideaboard/api/internal/export"
	"ideaboard/api/internal/search"
	"ideaboard/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	export     *export.Service
	search     *search.Service
	corsOrigin string
}

func NewHTTPServer(service *Service, exportService *export.Service, searchService *search.Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, export: exportService, search: searchService, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/votes/status" {
		viewer, ok := s.requireViewer(w, r)
		if !ok {
			return
		}
		ideaIDs := splitCSV(r.URL.Query().Get("ideaIds"))
		statuses := s.service.GetUserVoteStatus(r.Context(), ideaIDs, viewer.UserID)
		writeJSON(w, http.StatusOK, map[string]any{"votes": statuses})
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) == 0 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	// /api/teams/{teamId}/hackathons/{hackathonId}/ideas[...]
	if len(parts) >= 6 && parts[1] == "teams" && parts[3] == "hackathons" && parts[5] == "ideas" {
		teamID := parts[2]
		hackathonID := parts[4]

		if len(parts) == 6 && r.Method == http.MethodPost {
			viewer, ok := s.requireViewer(w, r)
			if !ok {
				return
			}
			var body CreateIdeaInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			idea, err := s.service.CreateIdea(r.Context(), teamID, hackathonID, viewer, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"idea": ideaPayload(idea)})
			return
		}

		if len(parts) == 6 && r.Method == http.MethodGet {
			s.handleListIdeas(w, r, teamID, hackathonID)
			return
		}

		if len(parts) == 7 && parts[6] == "export" && r.Method == http.MethodGet {
			s.handleExport(w, r, teamID, hackathonID)
			return
		}
	}

	// /api/ideas/{ideaId}/{votes|status|convert}
	if len(parts) == 4 && parts[1] == "ideas" {
		ideaID := parts[2]
		viewer, ok := s.requireViewer(w, r)
		if !ok {
			return
		}

		switch {
		case parts[3] == "votes" && r.Method == http.MethodPost:
			result, err := s.service.VoteOnIdea(r.Context(), ideaID, viewer)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"vote": votePayload(result.Vote),
				"idea": ideaPayload(result.Idea),
			})
			return

		case parts[3] == "votes" && r.Method == http.MethodDelete:
			idea, err := s.service.RemoveVote(r.Context(), ideaID, viewer)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"idea": ideaPayload(idea)})
			return

		case parts[3] == "status" && r.Method == http.MethodPut:
			var body struct {
				Status string `json:"status"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			idea, err := s.service.UpdateIdeaStatus(r.Context(), ideaID, body.Status, viewer)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"idea": ideaPayload(idea)})
			return

		case parts[3] == "convert" && r.Method == http.MethodPost:
			result, err := s.service.ConvertIdeaToTask(r.Context(), ideaID, viewer)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"task": result.Task,
				"idea": ideaPayload(result.Idea),
			})
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	if err := s.service.NotifierPing(ctx); err != nil {
		checks["notifier"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["notifier"] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleListIdeas(w http.ResponseWriter, r *http.Request, teamID, hackathonID string) {
	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	ideas, err := s.service.GetTeamIdeas(r.Context(), teamID, hackathonID, ListIdeasInput{
		Status: query.Get("status"),
		Tags:   splitCSV(query.Get("tags")),
		SortBy: query.Get("sortBy"),
		Limit:  limit,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	items := make([]map[string]any, 0, len(ideas))
	for _, idea := range ideas {
		items = append(items, ideaPayload(idea))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": items})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, teamID, hackathonID string) {
	if s.export == nil {
		writeError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not available", nil)
		return
	}
	result, err := s.export.Export(r.Context(), export.Request{
		TeamID:      teamID,
		HackathonID: hackathonID,
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
	})
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			writeError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF rendering is not available on this host", nil)
			return
		}
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}})
		return
	}
	query := r.URL.Query()
	limit := 20
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}
	response := s.search.Search(search.Query{
		Text:        strings.TrimSpace(query.Get("q")),
		TeamID:      strings.TrimSpace(query.Get("teamId")),
		HackathonID: strings.TrimSpace(query.Get("hackathonId")),
		Status:      strings.TrimSpace(query.Get("status")),
		Limit:       limit,
		Offset:      offset,
	})
	writeJSON(w, http.StatusOK, response)
}

// requireViewer resolves the caller's identity from the gateway headers.
func (s *HTTPServer) requireViewer(w http.ResponseWriter, r *http.Request) (Viewer, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Viewer{}, false
	}
	userName := strings.TrimSpace(r.Header.Get("X-User-Name"))
	if userName == "" {
		userName = "Someone"
	}
	return Viewer{UserID: userID, UserName: userName}, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-User-Id, X-User-Name")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func ideaPayload(idea store.Idea) map[string]any {
	tags := idea.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":          idea.ID,
		"teamId":      idea.TeamID,
		"hackathonId": idea.HackathonID,
		"title":       idea.Title,
		"description": idea.Description,
		"tags":        tags,
		"status":      idea.Status,
		"voteCount":   idea.VoteCount,
		"createdBy":   idea.CreatedBy,
		"createdAt":   idea.CreatedAt.Format(time.RFC3339),
		"updatedAt":   idea.UpdatedAt.Format(time.RFC3339),
	}
}

func votePayload(vote store.Vote) map[string]any {
	return map[string]any{
		"id":        vote.ID,
		"ideaId":    vote.IdeaID,
		"userId":    vote.UserID,
		"createdAt": vote.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func splitCSV(raw string) []string {
	values := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
