package service

import (
	"time"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	GameID         string             `json:"game_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	CanUndo        bool               `json:"can_undo"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ActionResult contains the outcome of a single command. An illegal move is a
// normal result with Success false, not an error.
type ActionResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"` // why a move was rejected
	CanUndo   bool              `json:"can_undo"`
	Events    []GameEvent       `json:"events,omitempty"`
	Hint      *engine.Hint      `json:"hint,omitempty"`
	Applied   []engine.Move     `json:"applied,omitempty"` // auto-complete moves in order
}

// Event types
const (
	EventNewGame      = "new_game"
	EventDraw         = "draw"
	EventRecycle      = "recycle"
	EventMove         = "move"
	EventFoundation   = "foundation"
	EventFlip         = "flip"
	EventUndo         = "undo"
	EventAutoComplete = "auto_complete"
	EventImport       = "import"
	EventVictory      = "victory"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Move      *engine.Move `json:"move,omitempty"`
}

// CommandEntry is one line of a session's command log
type CommandEntry struct {
	Number    int          `json:"number"`
	Action    string       `json:"action"`
	Move      *engine.Move `json:"move,omitempty"`
	Success   bool         `json:"success"`
	Score     int          `json:"score"`
	MoveCount int          `json:"move_count"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// HistoryOptions configures command log retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains a page of the command log
type HistoryResponse struct {
	Entries     []CommandEntry `json:"entries"`
	Total       int            `json:"total"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	DrawCount   int    `json:"draw_count"`
	Seeded      bool   `json:"seeded"`
}

// StatsSummary holds cross-session aggregates
type StatsSummary struct {
	GamesPlayed     int       `json:"games_played"`
	GamesWon        int       `json:"games_won"`
	WinRate         float64   `json:"win_rate"`
	BestScore       int       `json:"best_score"`
	BestTimeSeconds int       `json:"best_time_seconds"` // fastest win, 0 when no game was won
	UpdatedAt       time.Time `json:"updated_at"`
}
