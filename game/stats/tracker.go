package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/service"
)

// Totals are the persisted cross-session aggregates
type Totals struct {
	GamesPlayed     int       `json:"games_played"`
	GamesWon        int       `json:"games_won"`
	BestScore       int       `json:"best_score"`
	BestTimeSeconds int       `json:"best_time_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store persists Totals
type Store interface {
	Load(ctx context.Context) (Totals, error)
	Save(ctx context.Context, totals Totals) error
}

// Tracker implements service.StatsRecorder. Each game ID is counted as
// started at most once and as won at most once, so undoing and replaying a
// winning move does not inflate the totals.
type Tracker struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time

	mu      sync.Mutex
	totals  Totals
	started map[string]struct{}
	won     map[string]struct{}
}

// NewTracker loads the current totals from store. A nil store keeps the
// totals in memory only.
func NewTracker(ctx context.Context, store Store, log logrus.FieldLogger) (*Tracker, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Tracker{
		store:   store,
		log:     log,
		now:     time.Now,
		started: make(map[string]struct{}),
		won:     make(map[string]struct{}),
	}
	if store != nil {
		totals, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load statistics: %w", err)
		}
		t.totals = totals
	}
	return t, nil
}

// GameStarted counts a new deal
func (t *Tracker) GameStarted(ctx context.Context, gameID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, seen := t.started[gameID]; seen {
		return nil
	}
	t.started[gameID] = struct{}{}
	t.totals.GamesPlayed++
	return t.persist(ctx)
}

// GameWon counts a win and updates the best score and the fastest time
func (t *Tracker) GameWon(ctx context.Context, gameID string, score, elapsedSeconds int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, seen := t.won[gameID]; seen {
		return nil
	}
	t.won[gameID] = struct{}{}

	if t.totals.GamesWon == 0 || score > t.totals.BestScore {
		t.totals.BestScore = score
	}
	if t.totals.GamesWon == 0 || elapsedSeconds < t.totals.BestTimeSeconds {
		t.totals.BestTimeSeconds = elapsedSeconds
	}
	t.totals.GamesWon++

	t.log.WithFields(logrus.Fields{"game_id": gameID, "score": score, "elapsed": elapsedSeconds}).Debug("win recorded")
	return t.persist(ctx)
}

// Summary returns the current aggregates
func (t *Tracker) Summary(ctx context.Context) (*service.StatsSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := &service.StatsSummary{
		GamesPlayed:     t.totals.GamesPlayed,
		GamesWon:        t.totals.GamesWon,
		BestScore:       t.totals.BestScore,
		BestTimeSeconds: t.totals.BestTimeSeconds,
		UpdatedAt:       t.totals.UpdatedAt,
	}
	if summary.GamesPlayed > 0 {
		summary.WinRate = float64(summary.GamesWon) / float64(summary.GamesPlayed)
	}
	return summary, nil
}

// persist writes the totals. Caller holds t.mu.
func (t *Tracker) persist(ctx context.Context) error {
	t.totals.UpdatedAt = t.now()
	if t.store == nil {
		return nil
	}
	if err := t.store.Save(ctx, t.totals); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}
