package engine

import (
	"fmt"
	"math"
	"math/rand"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	NewGame(difficulty Difficulty) *GameState
	IsWon() bool
	GetScore() int
	GetMoveCount() int
	GetElapsedSeconds() int

	// Commands
	Draw() bool
	ProposeMove(m Move) error
	Undo() bool
	AutoComplete() []Move
	Hint() Hint
	Tick(seconds int)
	CanUndo() bool

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// Persistence
	Serialize() ([]byte, error)
	Load(data []byte) error
}

// GameEngine implements the Engine interface. It is not safe for concurrent use.
type GameEngine struct {
	state   *GameState
	config  *GameConfig
	history *History
	rng     *rand.Rand
}

// NewEngine creates a new game engine with the provided configuration and deals a game
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return NewEngineWithRand(config, NewRand(config.Seed)), nil
}

// NewEngineWithRand creates an engine that deals from rng
func NewEngineWithRand(config *GameConfig, rng *rand.Rand) *GameEngine {
	if config == nil {
		config = DefaultConfig()
	}
	if rng == nil {
		rng = NewRand(config.Seed)
	}
	e := &GameEngine{
		config:  config,
		history: NewHistory(MaxUndoHistory),
		rng:     rng,
	}
	e.state = NewGameState(config.Difficulty, rng)
	return e
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults() *GameEngine {
	return NewEngineWithRand(DefaultConfig(), nil)
}

// GetState returns a copy of the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// SetState replaces the current state after checking it. History is cleared.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := CheckInvariants(state); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLoad, err)
	}
	e.state = state.Clone()
	e.history.Clear()
	return nil
}

// NewGame deals a fresh game. An invalid difficulty falls back to the config's.
func (e *GameEngine) NewGame(difficulty Difficulty) *GameState {
	if !difficulty.Valid() {
		difficulty = e.config.Difficulty
	}
	e.state = NewGameState(difficulty, e.rng)
	e.history.Clear()
	return e.GetState()
}

// IsWon returns whether every card is on a foundation
func (e *GameEngine) IsWon() bool {
	return e.state.Won
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetMoveCount returns the number of successful commands
func (e *GameEngine) GetMoveCount() int {
	return e.state.MoveCount
}

// GetElapsedSeconds returns the elapsed play time
func (e *GameEngine) GetElapsedSeconds() int {
	return e.state.ElapsedSeconds
}

// Draw turns cards from the stock or recycles the waste.
// It returns false without touching history when there is nothing to draw.
func (e *GameEngine) Draw() bool {
	next, ok := Draw(e.state)
	if !ok {
		return false
	}
	e.history.Push(e.state)
	e.state = next
	return true
}

// ProposeMove validates and applies m. Illegal moves return a *MoveError and
// leave both state and history untouched.
func (e *GameEngine) ProposeMove(m Move) error {
	next, err := ApplyMove(e.state, m)
	if err != nil {
		return err
	}
	e.history.Push(e.state)
	e.state = next
	return nil
}

// Undo restores the previous state, returning false when history is empty.
// The restored state keeps the current elapsed seconds rather than the snapshot's.
func (e *GameEngine) Undo() bool {
	prev, ok := Undo(e.state, e.history)
	if !ok {
		return false
	}
	e.state = prev
	return true
}

// CanUndo reports whether there is a snapshot to restore
func (e *GameEngine) CanUndo() bool {
	return e.history.Len() > 0
}

// AutoComplete moves every foundation-eligible card, one undoable step at a time,
// and returns the applied moves in order
func (e *GameEngine) AutoComplete() []Move {
	var applied []Move
	for {
		m, ok := NextFoundationMove(e.state)
		if !ok {
			return applied
		}
		if err := e.ProposeMove(m); err != nil {
			return applied
		}
		applied = append(applied, m)
	}
}

// Hint returns a suggested legal move for the current state
func (e *GameEngine) Hint() Hint {
	return GetHint(e.state)
}

// Tick adds seconds to the elapsed timer, saturating at math.MaxInt. It is a
// no-op once the game is won.
func (e *GameEngine) Tick(seconds int) {
	if seconds <= 0 || e.state.Won {
		return
	}
	next := *e.state
	if seconds > math.MaxInt-next.ElapsedSeconds {
		next.ElapsedSeconds = math.MaxInt
	} else {
		next.ElapsedSeconds += seconds
	}
	e.state = &next
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and deals a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	e.config = config
	if config.Seed != 0 {
		e.rng = NewRand(config.Seed)
	}
	e.NewGame(config.Difficulty)
	return nil
}

// Serialize encodes the current state
func (e *GameEngine) Serialize() ([]byte, error) {
	return Serialize(e.state)
}

// Load replaces the current state with a serialized one. On error the engine is unchanged.
func (e *GameEngine) Load(data []byte) error {
	state, err := Deserialize(data)
	if err != nil {
		return err
	}
	e.state = state
	e.history.Clear()
	return nil
}
