package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	NewGameFunc        func(ctx context.Context, sessionID, difficulty string) (*service.ActionResult, error)
	DrawFunc           func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	MoveFunc           func(ctx context.Context, sessionID string, move engine.Move) (*service.ActionResult, error)
	TickFunc           func(ctx context.Context, sessionID string, seconds int) (*engine.GameState, error)
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	ImportFunc         func(ctx context.Context, sessionID string, blob []byte) (*service.ActionResult, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	LoadConfigFunc     func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc     func(ctx context.Context, configName string, config *engine.GameConfig) error
	GetStatsFunc       func(ctx context.Context) (*service.StatsSummary, error)
}

func okResult(msg string) *service.ActionResult {
	return &service.ActionResult{Success: true, GameState: &engine.GameState{Difficulty: engine.Medium}, Message: msg}
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) NewGame(ctx context.Context, sessionID, difficulty string) (*service.ActionResult, error) {
	if m.NewGameFunc != nil {
		return m.NewGameFunc(ctx, sessionID, difficulty)
	}
	return okResult("New deal"), nil
}

func (m *MockGameService) Draw(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.DrawFunc != nil {
		return m.DrawFunc(ctx, sessionID)
	}
	return okResult("Drew 3 card(s)"), nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID string, move engine.Move) (*service.ActionResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, move)
	}
	return okResult("Moved"), nil
}

func (m *MockGameService) Undo(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	return okResult("Last move undone"), nil
}

func (m *MockGameService) AutoComplete(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	return okResult("Auto-complete placed 0 card(s)"), nil
}

func (m *MockGameService) Hint(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	move := engine.Move{SourceKind: engine.PileWaste, CardCount: 1, TargetKind: engine.PileFoundation}
	r := okResult("Hint: Move AH from waste to foundation 1")
	r.Hint = &engine.Hint{Found: true, Move: &move, Text: "Move AH from waste to foundation 1"}
	return r, nil
}

func (m *MockGameService) Tick(ctx context.Context, sessionID string, seconds int) (*engine.GameState, error) {
	if m.TickFunc != nil {
		return m.TickFunc(ctx, sessionID, seconds)
	}
	return &engine.GameState{ElapsedSeconds: seconds}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{Difficulty: engine.Medium}, nil
}

func (m *MockGameService) Export(ctx context.Context, sessionID string) ([]byte, error) {
	return []byte(`{"version":1,"state":{}}`), nil
}

func (m *MockGameService) Import(ctx context.Context, sessionID string, blob []byte) (*service.ActionResult, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, sessionID, blob)
	}
	return okResult("Game imported"), nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Entries: []service.CommandEntry{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Difficulty: "medium", DrawCount: 3}}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config", Difficulty: engine.Medium}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) GetStats(ctx context.Context) (*service.StatsSummary, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	return &service.StatsSummary{GamesPlayed: 4, GamesWon: 1, WinRate: 0.25}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Test helpers
func setupTestServer(t *testing.T, mockService service.GameService) *Server {
	t.Helper()
	hub := websocket.NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub, quietLogger())
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedConfig string
	}{
		{
			name:           "with config_id",
			body:           map[string]string{"config_id": "easy"},
			expectedStatus: http.StatusCreated,
			expectedConfig: "easy",
		},
		{
			name:           "legacy config_name",
			body:           map[string]string{"config_name": "hard"},
			expectedStatus: http.StatusCreated,
			expectedConfig: "hard",
		},
		{
			name:           "empty body uses default",
			expectedStatus: http.StatusCreated,
			expectedConfig: "",
		},
		{
			name: "unknown config",
			body: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'nope' could not be loaded: %w", config.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			server := setupTestServer(t, mock)

			var req *http.Request
			if tt.body == nil {
				req = httptest.NewRequest("POST", "/api/sessions", nil)
			} else {
				req = makeRequest("POST", "/api/sessions", tt.body)
			}
			w := do(server, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusCreated {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				if info.ConfigName != tt.expectedConfig {
					t.Errorf("Expected config %q, got %q", tt.expectedConfig, info.ConfigName)
				}
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
				{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		query    string
		expected []string
		total    int
	}{
		{"", []string{"mid", "old", "new"}, 3},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"?sort=created&limit=2", []string{"new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(server, httptest.NewRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Total != tt.total || resp.Count != len(tt.expected) {
				t.Errorf("Expected count %d total %d, got %d %d", len(tt.expected), tt.total, resp.Count, resp.Total)
			}
			for i, id := range tt.expected {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(t, mock)

	if w := do(server, httptest.NewRequest("GET", "/api/sessions/ab12", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := do(server, httptest.NewRequest("GET", "/api/sessions/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if w := do(server, httptest.NewRequest("DELETE", "/api/sessions/ab12", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	w := do(server, httptest.NewRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	var errResp map[string]interface{}
	parseResponse(t, w, &errResp)
	if errResp["code"] != float64(http.StatusNotFound) {
		t.Errorf("Expected error code in body, got %v", errResp)
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*testing.T, *MockGameService)
		expectedStatus int
	}{
		{
			name: "legal move",
			body: `{"source_kind":"tableau","source_index":2,"card_count":3,"target_kind":"tableau","target_index":0}`,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move engine.Move) (*service.ActionResult, error) {
					want := engine.Move{SourceKind: engine.PileTableau, SourceIndex: 2, CardCount: 3, TargetKind: engine.PileTableau}
					if move != want {
						t.Errorf("Expected move %+v, got %+v", want, move)
					}
					return okResult("Moved"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "illegal move",
			body: `{"source_kind":"waste","target_kind":"foundation","target_index":1}`,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move engine.Move) (*service.ActionResult, error) {
					return &service.ActionResult{
						Success:   false,
						GameState: &engine.GameState{},
						Message:   "Illegal move: waste is empty",
						Reason:    "waste is empty",
					}, nil
				}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "malformed body",
			body:           `{"source_kind":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing pile kinds",
			body:           `{"source_index":1}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown session",
			body: `{"source_kind":"waste","target_kind":"foundation"}`,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, move engine.Move) (*service.ActionResult, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(t, mock)
			}
			server := setupTestServer(t, mock)

			req := httptest.NewRequest("POST", "/api/sessions/ab12/move", strings.NewReader(tt.body))
			w := do(server, req)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusUnprocessableEntity {
				var result service.ActionResult
				parseResponse(t, w, &result)
				if result.Success || result.Reason != "waste is empty" {
					t.Errorf("Expected rejection reason in body, got %+v", result)
				}
			}
		})
	}
}

func TestCommands(t *testing.T) {
	var gotDifficulty string
	var gotSeconds int
	mock := &MockGameService{
		NewGameFunc: func(ctx context.Context, sessionID, difficulty string) (*service.ActionResult, error) {
			gotDifficulty = difficulty
			if difficulty == "insane" {
				return nil, service.ErrInvalidDifficulty
			}
			return okResult("New deal"), nil
		},
		TickFunc: func(ctx context.Context, sessionID string, seconds int) (*engine.GameState, error) {
			gotSeconds = seconds
			return &engine.GameState{ElapsedSeconds: seconds}, nil
		},
	}
	server := setupTestServer(t, mock)

	for _, path := range []string{"draw", "undo", "auto-complete"} {
		w := do(server, httptest.NewRequest("POST", "/api/sessions/ab12/"+path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("POST %s: expected 200, got %d", path, w.Code)
		}
		var result service.ActionResult
		parseResponse(t, w, &result)
		if !result.Success || result.GameState == nil {
			t.Errorf("POST %s: unexpected result %+v", path, result)
		}
	}

	if w := do(server, makeRequest("POST", "/api/sessions/ab12/new-game", map[string]string{"difficulty": "easy"})); w.Code != http.StatusOK {
		t.Errorf("new-game: expected 200, got %d", w.Code)
	}
	if gotDifficulty != "easy" {
		t.Errorf("Expected difficulty easy, got %q", gotDifficulty)
	}
	if w := do(server, makeRequest("POST", "/api/sessions/ab12/new-game", map[string]string{"difficulty": "insane"})); w.Code != http.StatusBadRequest {
		t.Errorf("new-game insane: expected 400, got %d", w.Code)
	}

	if w := do(server, httptest.NewRequest("POST", "/api/sessions/ab12/tick", nil)); w.Code != http.StatusOK || gotSeconds != 1 {
		t.Errorf("tick without body: expected 200 and 1s, got %d and %d", w.Code, gotSeconds)
	}
	do(server, makeRequest("POST", "/api/sessions/ab12/tick", map[string]int{"seconds": 15}))
	if gotSeconds != 15 {
		t.Errorf("Expected 15 seconds, got %d", gotSeconds)
	}
	for _, seconds := range []int{-1, maxTickSeconds + 1, math.MaxInt} {
		w := do(server, makeRequest("POST", "/api/sessions/ab12/tick", map[string]int{"seconds": seconds}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("tick %d: expected 400, got %d", seconds, w.Code)
		}
	}
	if gotSeconds != 15 {
		t.Errorf("Out of range ticks should not reach the service, got %d", gotSeconds)
	}

	w := do(server, httptest.NewRequest("GET", "/api/sessions/ab12/hint", nil))
	var hint service.ActionResult
	parseResponse(t, w, &hint)
	if hint.Hint == nil || hint.Hint.Move == nil || hint.Hint.Move.SourceKind != engine.PileWaste {
		t.Errorf("Expected hint move in response, got %+v", hint)
	}
}

func TestGetHistory(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Entries: []service.CommandEntry{{Number: 1, Action: service.EventDraw}}, Total: 1}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(server, httptest.NewRequest("GET", "/api/sessions/ab12/history?page=2&limit=5&order=asc", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got.Page != 2 || got.Limit != 5 || got.Order != "asc" {
		t.Errorf("Unexpected options %+v", got)
	}

	do(server, httptest.NewRequest("GET", "/api/sessions/ab12/history?page=-1&order=sideways", nil))
	if got.Page != 1 || got.Limit != 20 || got.Order != "desc" {
		t.Errorf("Expected defaults, got %+v", got)
	}
}

func TestExportImport(t *testing.T) {
	var imported []byte
	mock := &MockGameService{
		ImportFunc: func(ctx context.Context, sessionID string, blob []byte) (*service.ActionResult, error) {
			imported = blob
			if !json.Valid(blob) {
				return nil, fmt.Errorf("%w: bad json", engine.ErrMalformedLoad)
			}
			return okResult("Game imported"), nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(server, httptest.NewRequest("GET", "/api/sessions/ab12/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "klondike-ab12.json") {
		t.Errorf("Expected attachment filename, got %q", w.Header().Get("Content-Disposition"))
	}

	blob := w.Body.Bytes()
	if w := do(server, httptest.NewRequest("POST", "/api/sessions/ab12/import", bytes.NewReader(blob))); w.Code != http.StatusOK {
		t.Errorf("Expected 200 on import, got %d", w.Code)
	}
	if !bytes.Equal(imported, blob) {
		t.Error("Import should receive the raw body")
	}

	if w := do(server, httptest.NewRequest("POST", "/api/sessions/ab12/import", strings.NewReader("{garbage"))); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed blob, got %d", w.Code)
	}
}

func TestConfigs(t *testing.T) {
	var savedID string
	mock := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, config.ErrConfigNotFound
			}
			return engine.DefaultConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			savedID = configName
			return engine.ValidateGameConfig(cfg)
		},
	}
	server := setupTestServer(t, mock)

	w := do(server, httptest.NewRequest("GET", "/api/configs", nil))
	var configs []service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 1 || configs[0].DrawCount != 3 {
		t.Errorf("Unexpected configs %+v", configs)
	}

	if w := do(server, httptest.NewRequest("GET", "/api/configs/classic.json", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := do(server, httptest.NewRequest("GET", "/api/configs/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	valid := engine.DefaultConfig()
	valid.Name = "My Table"
	if w := do(server, makeRequest("POST", "/api/configs", valid)); w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "my-table" {
		t.Errorf("Expected derived config id my-table, got %q", savedID)
	}

	if w := do(server, makeRequest("POST", "/api/configs", map[string]string{"description": "no name"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a name, got %d", w.Code)
	}
}

func TestStatsAndHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := do(server, httptest.NewRequest("GET", "/api/stats", nil))
	var summary service.StatsSummary
	parseResponse(t, w, &summary)
	if summary.GamesPlayed != 4 || summary.WinRate != 0.25 {
		t.Errorf("Unexpected stats %+v", summary)
	}

	disabled := setupTestServer(t, &MockGameService{
		GetStatsFunc: func(ctx context.Context) (*service.StatsSummary, error) {
			return nil, service.ErrStatsUnavailable
		},
	})
	if w := do(disabled, httptest.NewRequest("GET", "/api/stats", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}

	if w := do(server, httptest.NewRequest("GET", "/health", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	mock := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mock)

	if w := do(server, httptest.NewRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", w.Code)
	}
	if w := do(server, httptest.NewRequest("GET", "/ws?session=nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}
