package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/game/session"
	"github.com/wricardo/mcp-training/klondike/transport/websocket"
)

// maxImportSize bounds an uploaded game blob
const maxImportSize = 1 << 20

// maxTickSeconds bounds a single tick request
const maxTickSeconds = 3600

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	log     logrus.FieldLogger
}

// NewServer creates a new API server. hub may be nil to disable live updates.
func NewServer(gameService service.GameService, hub *websocket.Hub, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     log,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game commands
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/new-game", s.handleNewGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/draw", s.handleDraw).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/sessions/{id}/auto-complete", s.handleAutoComplete).Methods("POST")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/hint", s.handleHint).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("GET")
	api.HandleFunc("/sessions/{id}/import", s.handleImport).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// Statistics
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw writer's Hijacker
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrMalformedLoad),
		errors.Is(err, service.ErrInvalidDifficulty),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStatsUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
	}
	respondError(w, status, err.Error())
}

// decodeBody decodes an optional JSON body. An empty body leaves target untouched.
func decodeBody(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Command Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// respondResult writes a command result and broadcasts it to the session's
// WebSocket clients. A rejected move is reported as 422 with the full result.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, sessionID, op string, result *service.ActionResult) {
	if s.hub != nil {
		s.hub.BroadcastResult(sessionID, result)
	}

	fields := logrus.Fields{"session_id": sessionID, "op": op, "success": result.Success}
	if result.GameState != nil {
		fields["score"] = result.GameState.Score
		fields["moves"] = result.GameState.MoveCount
	}
	s.log.WithFields(fields).Info(result.Message)

	status := http.StatusOK
	if op == "move" && !result.Success {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Difficulty string `json:"difficulty,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.NewGame(r.Context(), sessionID, req.Difficulty)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "new_game", result)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Draw(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "draw", result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var move engine.Move
	if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if move.SourceKind == "" || move.TargetKind == "" {
		respondError(w, http.StatusBadRequest, "source_kind and target_kind are required")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, move)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "move", result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Undo(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "undo", result)
}

func (s *Server) handleAutoComplete(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.AutoComplete(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "auto_complete", result)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	req := struct {
		Seconds int `json:"seconds"`
	}{Seconds: 1}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Seconds < 0 || req.Seconds > maxTickSeconds {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("seconds must be between 0 and %d", maxTickSeconds))
		return
	}

	state, err := s.service.Tick(r.Context(), sessionID, req.Seconds)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Hint(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	blob, err := s.service.Export(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "klondike-"+sessionID+".json"))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	blob, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Import(r.Context(), sessionID, blob)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondResult(w, r, sessionID, "import", result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	gameConfig, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, gameConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		engine.GameConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.Name), " ", "-"))
	}

	gameConfig := req.GameConfig
	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Statistics

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.GetStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates are disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
