// Package engine provides the core game logic for Klondike solitaire.
//
// The engine package implements:
//   - Deck construction, an injectable Fisher-Yates shuffle and the triangular deal
//   - Move validation and copy-on-write move execution with scoring
//   - Draw and waste recycling for draw-one and draw-three games
//   - Bounded undo history, auto-completion and a hint oracle
//   - Serialization of a game to a versioned blob with strict validation on load
//
// Core Types:
//
// GameState is the board: stock, waste, four foundations and seven tableau
// columns, plus score, move count, elapsed seconds and the won flag. The free
// functions (ApplyMove, Draw, AutoComplete, GetHint) never modify their input
// and return a new state. GameEngine composes them with a History and a random
// source and implements the Engine interface used by the service layer.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Draw()
//	if h := gameEngine.Hint(); h.Found {
//		_ = gameEngine.ProposeMove(*h.Move)
//	}
//	gameEngine.AutoComplete()
//
// Scoring:
//
// A card placed on a foundation earns 10 points, a card taken back off a
// foundation costs 15, and turning up a tableau card earns 5. The score is
// never clamped and recycling the waste costs nothing.
package engine
