package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		GameID:         uuid.NewString(),
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, configID, config)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	classic := engine.DefaultConfig()
	classic.Name = "Classic"
	classic.Seed = 99

	easy := engine.DefaultConfig()
	easy.Name = "Easy"
	easy.Difficulty = engine.Easy
	easy.Seed = 7

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": classic,
			"easy":    easy,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("configuration not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for id, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:   id + ".json",
			ConfigID:   id,
			Name:       config.Name,
			Difficulty: string(config.Difficulty),
			DrawCount:  config.Difficulty.DrawCount(),
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// recordingStats implements service.StatsRecorder in memory
type recordingStats struct {
	mu      sync.Mutex
	started []string
	won     map[string]int
}

func (r *recordingStats) GameStarted(ctx context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, gameID)
	return nil
}

func (r *recordingStats) GameWon(ctx context.Context, gameID string, score, elapsedSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.won == nil {
		r.won = make(map[string]int)
	}
	r.won[gameID] = score
	return nil
}

func (r *recordingStats) Summary(ctx context.Context) (*service.StatsSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &service.StatsSummary{GamesPlayed: len(r.started), GamesWon: len(r.won)}, nil
}

type fixture struct {
	svc      service.GameService
	sessions *MockSessionManager
	stats    *recordingStats
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		sessions: NewMockSessionManager(),
		stats:    &recordingStats{},
	}
	f.svc = service.NewGameService(f.sessions, NewMockConfigManager(),
		service.WithLogger(logger), service.WithStats(f.stats))
	return f
}

// setBoard replaces the session's game with gs
func (f *fixture) setBoard(t *testing.T, id string, gs *engine.GameState) {
	t.Helper()
	sess, err := f.sessions.Get(id)
	require.NoError(t, err)
	require.NoError(t, sess.Engine.SetState(gs))
}

func up(r engine.Rank, s engine.Suit) engine.Card {
	return engine.Card{Suit: s, Rank: r, FaceUp: true}
}

// nearlyWon has every card on the foundations except the King of Spades
func nearlyWon() *engine.GameState {
	gs := &engine.GameState{Difficulty: engine.Medium}
	for i, s := range engine.Suits {
		for r := engine.Ace; r <= engine.King; r++ {
			gs.Foundations[i] = append(gs.Foundations[i], up(r, s))
		}
	}
	gs.Foundations[3] = gs.Foundations[3][:12]
	gs.Tableau[0] = []engine.Card{up(engine.King, engine.Spades)}
	return gs
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.svc.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "classic", info.ConfigName)
		assert.NotEmpty(t, info.GameID)
		assert.Equal(t, engine.Medium, info.GameState.Difficulty)
		assert.Len(t, info.GameState.Stock, 24)
		assert.False(t, info.CanUndo)
		assert.Equal(t, []string{info.GameID}, f.stats.started)
		assert.Equal(t, 1, f.sessions.saves)
	})

	t.Run("named config", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.svc.CreateSession(ctx, "easy")
		require.NoError(t, err)
		assert.Equal(t, "easy", info.ConfigName)
		assert.Equal(t, engine.Easy, info.GameState.Difficulty)
	})

	t.Run("unknown config lists alternatives", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateSession(ctx, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available configs")
	})
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	_, err = f.svc.CreateSession(ctx, "easy")
	require.NoError(t, err)

	sessions, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	got, err := f.svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.GameState, got.GameState)

	require.NoError(t, f.svc.DeleteSession(ctx, info.ID))
	_, err = f.svc.GetSession(ctx, info.ID)
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))
	assert.True(t, errors.Is(f.svc.DeleteSession(ctx, info.ID), service.ErrSessionNotFound))

	_, err = f.svc.Draw(ctx, "missing")
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))
}

func TestGameService_Draw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := f.svc.Draw(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Drew 3 card(s)", result.Message)
	assert.Len(t, result.GameState.Waste, 3)
	assert.True(t, result.CanUndo)
	require.Len(t, result.Events, 1)
	assert.Equal(t, service.EventDraw, result.Events[0].Type)

	for i := 0; i < 7; i++ {
		_, err := f.svc.Draw(ctx, info.ID)
		require.NoError(t, err)
	}
	result, err = f.svc.Draw(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, service.EventRecycle, result.Events[0].Type)
	assert.Len(t, result.GameState.Stock, 24)
	assert.Empty(t, result.GameState.Waste)
}

func TestGameService_DrawNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	f.setBoard(t, info.ID, nearlyWon())

	result, err := f.svc.Draw(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.DefaultConfig().Messages.NothingToDraw, result.Message)
	assert.False(t, result.CanUndo)
}

func TestGameService_MoveAndVictory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	f.setBoard(t, info.ID, nearlyWon())

	t.Run("illegal move is a result, not an error", func(t *testing.T) {
		result, err := f.svc.Move(ctx, info.ID, engine.Move{
			SourceKind: engine.PileTableau, SourceIndex: 0, TargetKind: engine.PileFoundation, TargetIndex: 0,
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "card does not follow the foundation", result.Reason)
		assert.Contains(t, result.Message, result.Reason)
		assert.False(t, result.GameState.Won)
	})

	t.Run("winning move", func(t *testing.T) {
		result, err := f.svc.Move(ctx, info.ID, engine.Move{
			SourceKind: engine.PileTableau, SourceIndex: 0, TargetKind: engine.PileFoundation, TargetIndex: 3,
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.GameState.Won)
		assert.Equal(t, "You won! Final score: 10", result.Message)

		var types []string
		for _, e := range result.Events {
			types = append(types, e.Type)
		}
		assert.Equal(t, []string{service.EventMove, service.EventFoundation, service.EventVictory}, types)

		assert.Equal(t, 10, f.stats.won[info.GameID])
	})

	t.Run("winning again after undo keeps one record per game", func(t *testing.T) {
		result, err := f.svc.Undo(ctx, info.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.GameState.Won)

		_, err = f.svc.Move(ctx, info.ID, engine.Move{
			SourceKind: engine.PileTableau, SourceIndex: 0, TargetKind: engine.PileFoundation, TargetIndex: 3,
		})
		require.NoError(t, err)
		assert.Len(t, f.stats.won, 1)
	})
}

func TestGameService_MoveFlipEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	gs := &engine.GameState{Difficulty: engine.Medium}
	gs.Tableau[0] = []engine.Card{{Suit: engine.Clubs, Rank: engine.Two}, up(engine.Nine, engine.Hearts)}
	gs.Tableau[1] = []engine.Card{up(engine.Ten, engine.Spades)}
	for _, c := range engine.NewDeck() {
		if c.SameCard(gs.Tableau[0][0]) || c.SameCard(gs.Tableau[0][1]) || c.SameCard(gs.Tableau[1][0]) {
			continue
		}
		gs.Stock = append(gs.Stock, c)
	}
	f.setBoard(t, info.ID, gs)

	result, err := f.svc.Move(ctx, info.ID, engine.Move{
		SourceKind: engine.PileTableau, SourceIndex: 0, TargetKind: engine.PileTableau, TargetIndex: 1,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, engine.ScoreFlip, result.GameState.Score)
	require.Len(t, result.Events, 2)
	assert.Equal(t, service.EventFlip, result.Events[1].Type)
}

func TestGameService_UndoEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := f.svc.Undo(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Nothing to undo", result.Message)
	assert.Equal(t, info.GameState, result.GameState)
}

func TestGameService_AutoCompleteAndHint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	f.setBoard(t, info.ID, nearlyWon())

	hint, err := f.svc.Hint(ctx, info.ID)
	require.NoError(t, err)
	require.True(t, hint.Success)
	require.NotNil(t, hint.Hint)
	assert.Equal(t, "Hint: Move KS from tableau 1 to foundation 4", hint.Message)

	result, err := f.svc.AutoComplete(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Applied, 1)
	assert.True(t, result.GameState.Won)
	assert.Equal(t, service.EventVictory, result.Events[len(result.Events)-1].Type)

	hint, err = f.svc.Hint(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, hint.Success)
	assert.Equal(t, engine.DefaultConfig().Messages.NoHint, hint.Message)
}

func TestGameService_NewGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := f.svc.NewGame(ctx, info.ID, "easy")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, engine.Easy, result.GameState.Difficulty)
	assert.False(t, result.CanUndo)

	got, err := f.svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.NotEqual(t, info.GameID, got.GameID, "each deal gets its own game ID")
	assert.Len(t, f.stats.started, 2)

	_, err = f.svc.NewGame(ctx, info.ID, "insane")
	assert.True(t, errors.Is(err, service.ErrInvalidDifficulty))
}

func TestGameService_Tick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	state, err := f.svc.Tick(ctx, info.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, state.ElapsedSeconds)

	state, err = f.svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, state.ElapsedSeconds)
}

func TestGameService_ExportImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	b, err := f.svc.CreateSession(ctx, "easy")
	require.NoError(t, err)

	_, err = f.svc.Draw(ctx, a.ID)
	require.NoError(t, err)
	blob, err := f.svc.Export(ctx, a.ID)
	require.NoError(t, err)

	result, err := f.svc.Import(ctx, b.ID, blob)
	require.NoError(t, err)
	assert.True(t, result.Success)

	stateA, _ := f.svc.GetGameState(ctx, a.ID)
	stateB, _ := f.svc.GetGameState(ctx, b.ID)
	assert.Equal(t, stateA, stateB)

	_, err = f.svc.Import(ctx, b.ID, []byte(`{"version":1,"state":{}}`))
	assert.True(t, errors.Is(err, engine.ErrMalformedLoad))
	still, _ := f.svc.GetGameState(ctx, b.ID)
	assert.Equal(t, stateB, still)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.svc.Draw(ctx, info.ID)
		require.NoError(t, err)
	}
	_, err = f.svc.Undo(ctx, info.ID)
	require.NoError(t, err)

	all, err := f.svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Order: "asc"})
	require.NoError(t, err)
	require.Equal(t, 6, all.Total)
	assert.Equal(t, service.EventNewGame, all.Entries[0].Action)
	assert.Equal(t, 1, all.Entries[0].Number)
	assert.Equal(t, service.EventUndo, all.Entries[5].Action)
	assert.Equal(t, 6, all.Entries[5].Number)

	page, err := f.svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, 2, page.Entries[0].Number, "descending order")
	assert.Equal(t, 1, page.Entries[1].Number)

	empty, err := f.svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	configs, err := f.svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	custom := engine.DefaultConfig()
	custom.Name = "Custom"
	require.NoError(t, f.svc.SaveConfig(ctx, "custom", custom))
	loaded, err := f.svc.LoadConfig(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom", loaded.Name)
}

func TestGameService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateSession(ctx, "")
	require.NoError(t, err)

	summary, err := f.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.GamesPlayed)

	bare := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())
	_, err = bare.GetStats(ctx)
	assert.True(t, errors.Is(err, service.ErrStatsUnavailable))
}

func TestGameService_ConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Draw(ctx, info.ID)
			_, _ = f.svc.Hint(ctx, info.ID)
			_, _ = f.svc.Tick(ctx, info.ID, 1)
		}()
	}
	wg.Wait()

	state, err := f.svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, state.MoveCount)
	assert.Equal(t, 20, state.ElapsedSeconds)
	assert.NoError(t, engine.CheckInvariants(state))
}

func TestSession_RecordCapsLog(t *testing.T) {
	sess := &service.Session{}
	for i := 0; i < service.MaxLogEntries+5; i++ {
		sess.Record(service.CommandEntry{Action: service.EventDraw})
	}
	assert.Len(t, sess.Log, service.MaxLogEntries)
	assert.Equal(t, 6, sess.Log[0].Number)
	assert.Equal(t, service.MaxLogEntries+5, sess.Log[len(sess.Log)-1].Number)
}
