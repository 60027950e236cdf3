package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	stats    StatsRecorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *gameServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStats enables the statistics collaborator
func WithStats(r StatsRecorder) Option {
	return func(s *gameServiceImpl) {
		s.stats = r
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session and deals its first game
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configLoadError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	s.recordStart(ctx, sess)
	state := sess.Engine.GetState()
	sess.Record(CommandEntry{
		Action:    EventNewGame,
		Success:   true,
		Score:     state.Score,
		MoveCount: state.MoveCount,
		Message:   config.Messages.Welcome,
		Timestamp: s.now(),
	})
	s.save(sess)

	s.log.WithFields(logrus.Fields{"session_id": sess.ID, "config": configID, "game_id": sess.GameID}).Info("session created")

	return s.sessionInfo(sess), nil
}

// configLoadError lists the available configs when the requested one is missing
func (s *gameServiceImpl) configLoadError(configName string, err error) error {
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' could not be loaded (available configs: %v): %w", configName, configIDs, err)
	}
	return fmt.Errorf("config '%s' could not be loaded: %w", configName, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return err
	}
	s.log.WithField("session_id", sessionID).Info("session deleted")
	return nil
}

// NewGame deals a fresh game in an existing session
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID, difficulty string) (*ActionResult, error) {
	var d engine.Difficulty
	if difficulty != "" {
		parsed, err := engine.ParseDifficulty(difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDifficulty, err)
		}
		d = parsed
	}

	return s.runCommand(ctx, sessionID, EventNewGame, nil, func(sess *Session) *ActionResult {
		sess.Engine.NewGame(d)
		sess.GameID = uuid.NewString()
		s.recordStart(ctx, sess)
		msg := sess.Config.Messages.Welcome
		return &ActionResult{
			Success: true,
			Message: msg,
			Events:  []GameEvent{s.event(EventNewGame, msg, nil)},
		}
	})
}

// Draw turns cards from the stock or recycles the waste
func (s *gameServiceImpl) Draw(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.runCommand(ctx, sessionID, EventDraw, nil, func(sess *Session) *ActionResult {
		msgs := sess.Config.Messages
		before := sess.Engine.GetState()
		recycle := engine.IsRecycle(before)

		if !sess.Engine.Draw() {
			return &ActionResult{Success: false, Message: msgs.NothingToDraw}
		}

		if recycle {
			return &ActionResult{
				Success: true,
				Message: msgs.Recycled,
				Events:  []GameEvent{s.event(EventRecycle, msgs.Recycled, nil)},
			}
		}

		drawn := sess.Engine.GetState().Waste
		msg := fmt.Sprintf(msgs.Drew, len(drawn)-len(before.Waste))
		return &ActionResult{
			Success: true,
			Message: msg,
			Events:  []GameEvent{s.event(EventDraw, msg, nil)},
		}
	})
}

// Move validates and applies a card move. Illegal moves are reported in the result.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, move engine.Move) (*ActionResult, error) {
	return s.runCommand(ctx, sessionID, EventMove, &move, func(sess *Session) *ActionResult {
		msgs := sess.Config.Messages
		before := sess.Engine.GetState()

		if err := sess.Engine.ProposeMove(move); err != nil {
			reason := err.Error()
			var merr *engine.MoveError
			if errors.As(err, &merr) {
				reason = merr.Reason
			}
			return &ActionResult{
				Success: false,
				Message: fmt.Sprintf(msgs.IllegalMove, reason),
				Reason:  reason,
			}
		}

		msg := fmt.Sprintf(msgs.Moved, move.String())
		events := []GameEvent{s.event(EventMove, msg, &move)}
		if move.TargetKind == engine.PileFoundation {
			events = append(events, s.event(EventFoundation, fmt.Sprintf("Foundation %d now holds %d card(s)",
				move.TargetIndex+1, len(sess.Engine.GetState().Foundations[move.TargetIndex])), &move))
		}
		if flipped(before, sess.Engine.GetState(), move) {
			events = append(events, s.event(EventFlip, fmt.Sprintf("Turned up a card in tableau %d", move.SourceIndex+1), nil))
		}

		return &ActionResult{Success: true, Message: msg, Events: events}
	})
}

// flipped reports whether applying m turned up a face-down tableau card
func flipped(before, after *engine.GameState, m engine.Move) bool {
	if m.SourceKind != engine.PileTableau {
		return false
	}
	pile := after.Tableau[m.SourceIndex]
	if len(pile) == 0 {
		return false
	}
	last := len(pile) - 1
	return pile[last].FaceUp && !before.Tableau[m.SourceIndex][last].FaceUp
}

// Undo restores the previous state
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.runCommand(ctx, sessionID, EventUndo, nil, func(sess *Session) *ActionResult {
		msgs := sess.Config.Messages
		if !sess.Engine.Undo() {
			return &ActionResult{Success: false, Message: msgs.NothingToUndo}
		}
		return &ActionResult{
			Success: true,
			Message: msgs.Undone,
			Events:  []GameEvent{s.event(EventUndo, msgs.Undone, nil)},
		}
	})
}

// AutoComplete sends every eligible card to the foundations
func (s *gameServiceImpl) AutoComplete(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.runCommand(ctx, sessionID, EventAutoComplete, nil, func(sess *Session) *ActionResult {
		applied := sess.Engine.AutoComplete()
		msg := fmt.Sprintf(sess.Config.Messages.AutoComplete, len(applied))

		var events []GameEvent
		for i := range applied {
			events = append(events, s.event(EventFoundation, applied[i].String(), &applied[i]))
		}
		events = append(events, s.event(EventAutoComplete, msg, nil))

		return &ActionResult{Success: true, Message: msg, Events: events, Applied: applied}
	})
}

// Hint suggests a move without changing the game
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	s.sessions.UpdateLastAccessed(sessionID)

	msgs := sess.Config.Messages
	h := sess.Engine.Hint()
	msg := msgs.NoHint
	if h.Found {
		msg = fmt.Sprintf(msgs.Hint, h.Text)
	}

	return &ActionResult{
		Success:   h.Found,
		GameState: sess.Engine.GetState(),
		Message:   msg,
		CanUndo:   sess.Engine.CanUndo(),
		Hint:      &h,
	}, nil
}

// Tick advances the session's elapsed-time counter
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, seconds int) (*engine.GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Engine.Tick(seconds)
	s.save(sess)
	return sess.Engine.GetState(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// Export returns the serialized game
func (s *gameServiceImpl) Export(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.Serialize()
}

// Import replaces the session's game with a serialized one. Malformed blobs
// are rejected with engine.ErrMalformedLoad and the current game is kept.
func (s *gameServiceImpl) Import(ctx context.Context, sessionID string, blob []byte) (*ActionResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	if err := sess.Engine.Load(blob); err != nil {
		s.log.WithFields(logrus.Fields{"session_id": sessionID, "op": EventImport}).WithError(err).Warn("rejected game import")
		return nil, err
	}
	sess.GameID = uuid.NewString()

	state := sess.Engine.GetState()
	msg := "Game imported"
	sess.Record(CommandEntry{
		Action:    EventImport,
		Success:   true,
		Score:     state.Score,
		MoveCount: state.MoveCount,
		Message:   msg,
		Timestamp: s.now(),
	})
	s.sessions.UpdateLastAccessed(sessionID)
	s.save(sess)

	return &ActionResult{
		Success:   true,
		GameState: state,
		Message:   msg,
		Events:    []GameEvent{s.event(EventImport, msg, nil)},
	}, nil
}

// GetMoveHistory returns a page of the session's command log
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	history := make([]CommandEntry, len(sess.Log))
	copy(history, sess.Log)
	sess.Unlock()

	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []CommandEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				entries = append(entries, history[i])
			}
		} else {
			entries = append(entries, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Entries:     entries,
		Total:       total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// GetStats returns the cross-session aggregates
func (s *gameServiceImpl) GetStats(ctx context.Context) (*StatsSummary, error) {
	if s.stats == nil {
		return nil, ErrStatsUnavailable
	}
	return s.stats.Summary(ctx)
}

// runCommand executes fn under the session lock, then fills in the resulting
// state, detects a win, appends to the command log and persists the session
func (s *gameServiceImpl) runCommand(ctx context.Context, sessionID, action string, move *engine.Move, fn func(sess *Session) *ActionResult) (*ActionResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	wasWon := sess.Engine.IsWon()
	result := fn(sess)
	state := sess.Engine.GetState()
	result.GameState = state
	result.CanUndo = sess.Engine.CanUndo()

	if state.Won && !wasWon {
		msg := fmt.Sprintf(sess.Config.Messages.Victory, state.Score)
		result.Message = msg
		result.Events = append(result.Events, s.event(EventVictory, msg, nil))
		if s.stats != nil {
			if err := s.stats.GameWon(ctx, sess.GameID, state.Score, state.ElapsedSeconds); err != nil {
				s.log.WithField("session_id", sess.ID).WithError(err).Warn("failed to record win")
			}
		}
		s.log.WithFields(logrus.Fields{"session_id": sess.ID, "score": state.Score, "elapsed": state.ElapsedSeconds}).Info("game won")
	}

	sess.Record(CommandEntry{
		Action:    action,
		Move:      move,
		Success:   result.Success,
		Score:     state.Score,
		MoveCount: state.MoveCount,
		Message:   result.Message,
		Timestamp: s.now(),
	})
	s.sessions.UpdateLastAccessed(sessionID)
	s.save(sess)

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"op":         action,
		"success":    result.Success,
		"score":      state.Score,
	}).Debug("command executed")

	return result, nil
}

// getSession resolves a session, mapping missing sessions to ErrSessionNotFound
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return sess, nil
}

// recordStart counts the current deal, assigning a game ID if it has none.
// Caller holds the session lock.
func (s *gameServiceImpl) recordStart(ctx context.Context, sess *Session) {
	if sess.GameID == "" {
		sess.GameID = uuid.NewString()
	}
	if s.stats == nil {
		return
	}
	if err := s.stats.GameStarted(ctx, sess.GameID); err != nil {
		s.log.WithField("session_id", sess.ID).WithError(err).Warn("failed to record new game")
	}
}

// save persists the session, logging failures. Caller holds the session lock.
func (s *gameServiceImpl) save(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.log.WithField("session_id", sess.ID).WithError(err).Warn("failed to persist session")
	}
}

func (s *gameServiceImpl) event(kind, msg string, move *engine.Move) GameEvent {
	return GameEvent{Type: kind, Message: msg, Timestamp: s.now(), Move: move}
}

// sessionInfo builds the public view of a session. Caller holds the session lock.
func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		GameID:         sess.GameID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		CanUndo:        sess.Engine.CanUndo(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}
