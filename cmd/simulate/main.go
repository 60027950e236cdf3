// Command simulate plays seeded Klondike deals with a simple automatic player
// and prints how many it solves. It is a quick way to compare difficulties
// and configurations, and to exercise the engine over many games.
//
// The player takes the first available action in this order:
//   - auto-complete every card that fits a foundation
//   - move a tableau run that uncovers a face-down card
//   - move the waste top onto the tableau
//   - with --policy hint, any move the hint suggests that leads to an unseen board
//   - draw, giving up after a full pass through the stock without progress
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/engine"
)

// Player policies
const (
	PolicyGreedy = "greedy"
	PolicyHint   = "hint"
)

// GameResult summarizes one simulated deal
type GameResult struct {
	Seed        int64
	Won         bool
	Score       int
	Moves       int
	Foundations int
	Reason      string
}

// Summary aggregates simulated deals
type Summary struct {
	Games            int
	Wins             int
	BestScore        int
	TotalScore       int
	TotalMoves       int
	TotalFoundations int
}

// Add accounts for one result
func (s *Summary) Add(r GameResult) {
	s.Games++
	if r.Won {
		s.Wins++
	}
	if r.Score > s.BestScore {
		s.BestScore = r.Score
	}
	s.TotalScore += r.Score
	s.TotalMoves += r.Moves
	s.TotalFoundations += r.Foundations
}

// WinRate returns the share of games won
func (s Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

func (s Summary) average(total int) float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(total) / float64(s.Games)
}

// player drives one engine
type player struct {
	eng      *engine.GameEngine
	policy   string
	seen     map[string]bool
	progress bool
}

// playGame deals the game for seed and plays it until it is won, stuck, or
// maxSteps actions have been taken
func playGame(cfg *engine.GameConfig, seed int64, policy string, maxSteps int) GameResult {
	p := &player{
		eng:    engine.NewEngineWithRand(cfg, engine.NewRand(seed)),
		policy: policy,
		seen:   make(map[string]bool),
	}

	reason := "step limit"
	for step := 0; step < maxSteps; step++ {
		if p.eng.IsWon() {
			reason = "won"
			break
		}
		if !p.step() {
			reason = "stuck"
			break
		}
	}

	state := p.eng.GetState()
	return GameResult{
		Seed:        seed,
		Won:         state.Won,
		Score:       state.Score,
		Moves:       state.MoveCount,
		Foundations: state.FoundationCount(),
		Reason:      reason,
	}
}

// step takes one action, reporting false when the player gives up
func (p *player) step() bool {
	if applied := p.eng.AutoComplete(); len(applied) > 0 {
		p.progress = true
		return true
	}

	state := p.eng.GetState()
	if m, ok := uncoveringMove(state); ok && p.apply(m) {
		return true
	}
	if m, ok := wasteToTableau(state); ok && p.apply(m) {
		return true
	}
	if p.policy == PolicyHint {
		if h := p.eng.Hint(); h.Found && h.Move != nil && p.unseenAfter(*h.Move) && p.apply(*h.Move) {
			return true
		}
	}

	if engine.IsRecycle(state) {
		if !p.progress {
			return false
		}
		p.progress = false
	}
	return p.eng.Draw()
}

func (p *player) apply(m engine.Move) bool {
	if err := p.eng.ProposeMove(m); err != nil {
		return false
	}
	p.progress = true
	return true
}

// unseenAfter reports whether m leads to a board not visited before, and
// marks it visited
func (p *player) unseenAfter(m engine.Move) bool {
	next, err := engine.ApplyMove(p.eng.GetState(), m)
	if err != nil {
		return false
	}
	key := boardKey(next)
	if p.seen[key] {
		return false
	}
	p.seen[key] = true
	return true
}

// boardKey identifies the card layout, ignoring score and counters
func boardKey(state *engine.GameState) string {
	var b strings.Builder
	piles := [][]engine.Card{state.Stock, state.Waste}
	for _, f := range state.Foundations {
		piles = append(piles, f)
	}
	for _, t := range state.Tableau {
		piles = append(piles, t)
	}
	for _, pile := range piles {
		for _, card := range pile {
			b.WriteString(card.String())
			if !card.FaceUp {
				b.WriteByte('*')
			}
		}
		b.WriteByte('|')
	}
	return b.String()
}

// uncoveringMove finds a tableau run whose removal turns a face-down card over
func uncoveringMove(state *engine.GameState) (engine.Move, bool) {
	for col, pile := range state.Tableau {
		start := firstFaceUp(pile)
		if start <= 0 || start >= len(pile) {
			continue
		}
		run := engine.ValidRunFrom(pile, start)
		if run == nil {
			continue
		}
		for target := 0; target < engine.NumTableau; target++ {
			if target != col && engine.CanMoveToTableau(run, state.Tableau[target]) {
				return engine.Move{SourceKind: engine.PileTableau, SourceIndex: col, CardCount: len(run), TargetKind: engine.PileTableau, TargetIndex: target}, true
			}
		}
	}
	return engine.Move{}, false
}

// wasteToTableau finds a column that accepts the waste top
func wasteToTableau(state *engine.GameState) (engine.Move, bool) {
	top, ok := engine.Top(state.Waste)
	if !ok {
		return engine.Move{}, false
	}
	for target := 0; target < engine.NumTableau; target++ {
		if engine.CanMoveToTableau([]engine.Card{top}, state.Tableau[target]) {
			return engine.Move{SourceKind: engine.PileWaste, CardCount: 1, TargetKind: engine.PileTableau, TargetIndex: target}, true
		}
	}
	return engine.Move{}, false
}

// firstFaceUp returns the index of the first face-up card, or -1
func firstFaceUp(pile []engine.Card) int {
	for i, card := range pile {
		if card.FaceUp {
			return i
		}
	}
	return -1
}

// loadConfig reads the named config, or the built-in one when name is empty
func loadConfig(dir, name, difficulty string) (*engine.GameConfig, error) {
	cfg := engine.DefaultConfig()
	if name != "" {
		manager, err := config.NewManager(dir)
		if err != nil {
			return nil, err
		}
		loaded, err := manager.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", name, err)
		}
		copied := *loaded
		cfg = &copied
	}
	if difficulty != "" {
		d, err := engine.ParseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
		cfg.Difficulty = d
	}
	return cfg, nil
}

func simulate(ctx context.Context, cmd *cli.Command) error {
	policy := cmd.String("policy")
	if policy != PolicyGreedy && policy != PolicyHint {
		return fmt.Errorf("unknown policy %q (use %s or %s)", policy, PolicyGreedy, PolicyHint)
	}
	games := cmd.Int("games")
	if games <= 0 {
		return fmt.Errorf("games must be positive")
	}

	cfg, err := loadConfig(cmd.String("config-dir"), cmd.String("config"), cmd.String("difficulty"))
	if err != nil {
		return err
	}

	fmt.Printf("=== Simulating %d game(s): %s, difficulty %s, policy %s ===\n", games, cfg.Name, cfg.Difficulty, policy)

	var summary Summary
	seed := cmd.Int64("seed")
	for i := 0; i < games; i++ {
		if ctx.Err() != nil {
			break
		}
		result := playGame(cfg, seed+int64(i), policy, cmd.Int("max-steps"))
		summary.Add(result)
		if cmd.Bool("verbose") {
			status := "✗"
			if result.Won {
				status = "✓"
			}
			fmt.Printf("%s seed %d: score %d, %d move(s), %d/52 on foundations (%s)\n",
				status, result.Seed, result.Score, result.Moves, result.Foundations, result.Reason)
		}
	}

	fmt.Printf("\nGames:            %d\n", summary.Games)
	fmt.Printf("Won:              %d (%.1f%%)\n", summary.Wins, summary.WinRate()*100)
	fmt.Printf("Best score:       %d\n", summary.BestScore)
	fmt.Printf("Average score:    %.1f\n", summary.average(summary.TotalScore))
	fmt.Printf("Average moves:    %.1f\n", summary.average(summary.TotalMoves))
	fmt.Printf("Avg foundations:  %.1f\n", summary.average(summary.TotalFoundations))
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Play seeded Klondike deals automatically and report the results",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 100, Usage: "Number of deals to play"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Seed of the first deal; deal i uses seed+i"},
			&cli.StringFlag{Name: "difficulty", Usage: "Override the config difficulty (easy, medium, hard)"},
			&cli.StringFlag{Name: "config", Usage: "Config name to load from --config-dir (default: built-in classic)"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "policy", Value: PolicyGreedy, Usage: "greedy or hint"},
			&cli.IntFlag{Name: "max-steps", Value: 2000, Usage: "Give up on a deal after this many actions"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Print one line per deal"},
		},
		Action: simulate,
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
