package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrStatsUnavailable  = errors.New("statistics are not enabled")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// MaxLogEntries bounds the per-session command log
const MaxLogEntries = 1000

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Commands
	NewGame(ctx context.Context, sessionID, difficulty string) (*ActionResult, error)
	Draw(ctx context.Context, sessionID string) (*ActionResult, error)
	Move(ctx context.Context, sessionID string, move engine.Move) (*ActionResult, error)
	Undo(ctx context.Context, sessionID string) (*ActionResult, error)
	AutoComplete(ctx context.Context, sessionID string) (*ActionResult, error)
	Hint(ctx context.Context, sessionID string) (*ActionResult, error)
	Tick(ctx context.Context, sessionID string, seconds int) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	Export(ctx context.Context, sessionID string) ([]byte, error)
	Import(ctx context.Context, sessionID string, blob []byte) (*ActionResult, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Statistics
	GetStats(ctx context.Context) (*StatsSummary, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// StatsRecorder maintains aggregates across sessions
type StatsRecorder interface {
	GameStarted(ctx context.Context, gameID string) error
	GameWon(ctx context.Context, gameID string, score, elapsedSeconds int) error
	Summary(ctx context.Context) (*StatsSummary, error)
}

// Session represents an active game session. Commands against a session are
// serialized with Lock; persistence reads it under the same lock.
type Session struct {
	ID             string
	ConfigID       string
	GameID         string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Log            []CommandEntry

	mu sync.Mutex
}

// Lock acquires the session's command lock
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session's command lock
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Record appends entry to the command log, numbering it and dropping the
// oldest entries beyond MaxLogEntries
func (s *Session) Record(entry CommandEntry) {
	entry.Number = 1
	if n := len(s.Log); n > 0 {
		entry.Number = s.Log[n-1].Number + 1
	}
	s.Log = append(s.Log, entry)
	if over := len(s.Log) - MaxLogEntries; over > 0 {
		s.Log = append(s.Log[:0:0], s.Log[over:]...)
	}
}
