package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
)

// SessionPersistence defines the interface for persisting sessions.
// Save is called with the session lock held.
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// GameState holds the versioned engine blob; undo history is not persisted.
type PersistedSessionData struct {
	ID             string                 `json:"id"`
	ConfigName     string                 `json:"config_name"`
	GameID         string                 `json:"game_id"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	Log            []service.CommandEntry `json:"log,omitempty"`
	GameState      json.RawMessage        `json:"game_state"`
}

// recordCodec converts sessions to and from PersistedSessionData. It is shared
// by every storage backend.
type recordCodec struct {
	configs service.ConfigManager
	log     logrus.FieldLogger
}

func (c recordCodec) encode(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	blob, err := session.Engine.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize game: %w", err)
	}

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     c.configID(session),
		GameID:         session.GameID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Log:            session.Log,
		GameState:      blob,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

// decode rebuilds a session. A game blob that fails to load is replaced by a
// fresh deal from the session's config so the session stays usable.
func (c recordCodec) decode(jsonData []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.ID == "" {
		return nil, fmt.Errorf("session record has no id")
	}

	gameConfig, err := c.configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	gameID := data.GameID
	if err := gameEngine.Load(data.GameState); err != nil {
		c.log.WithFields(logrus.Fields{"session_id": data.ID, "config": data.ConfigName}).
			WithError(err).Warn("discarding unreadable saved game, dealing a new one")
		gameID = ""
	}
	if gameID == "" {
		gameID = uuid.NewString()
	}

	return &service.Session{
		ID:             data.ID,
		ConfigID:       data.ConfigName,
		GameID:         gameID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		Log:            data.Log,
	}, nil
}

// configID returns the config identifier to store, resolving a display name
// when the session was created without one
func (c recordCodec) configID(session *service.Session) string {
	if session.ConfigID != "" && session.ConfigID != "default" {
		return session.ConfigID
	}

	displayName := session.Config.Name
	configs, err := c.configs.ListConfigs()
	if err == nil {
		for _, config := range configs {
			if config.Name == displayName {
				return config.ConfigID
			}
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName
}
