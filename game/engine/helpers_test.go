package engine

import (
	"math/rand"
	"testing"
)

func up(r Rank, s Suit) Card {
	return Card{Suit: s, Rank: r, FaceUp: true}
}

func down(r Rank, s Suit) Card {
	return Card{Suit: s, Rank: r}
}

// completeBoard puts every card missing from gs into the stock, face down,
// so the board satisfies card conservation
func completeBoard(gs *GameState) *GameState {
	var present [4][CardsPerSuit + 1]bool
	mark := func(pile []Card) {
		for _, c := range pile {
			present[c.Suit.index()][c.Rank] = true
		}
	}
	mark(gs.Stock)
	mark(gs.Waste)
	for _, f := range gs.Foundations {
		mark(f)
	}
	for _, t := range gs.Tableau {
		mark(t)
	}

	var missing []Card
	for _, c := range NewDeck() {
		if !present[c.Suit.index()][c.Rank] {
			missing = append(missing, c)
		}
	}
	gs.Stock = append(missing, gs.Stock...)
	if gs.Difficulty == "" {
		gs.Difficulty = Medium
	}
	gs.Won = IsWon(gs)
	return gs
}

// suitUpTo returns the foundation pile A..top of suit
func suitUpTo(s Suit, top Rank) []Card {
	pile := make([]Card, 0, top)
	for r := Ace; r <= top; r++ {
		pile = append(pile, up(r, s))
	}
	return pile
}

// wonState returns a board with every card on the foundations
func wonState() *GameState {
	gs := &GameState{Difficulty: Medium}
	for i, s := range Suits {
		gs.Foundations[i] = suitUpTo(s, King)
	}
	gs.Won = true
	return gs
}

func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func testConfig(t *testing.T) *GameConfig {
	t.Helper()
	config := DefaultConfig()
	config.Name = "test"
	config.Seed = 7
	return config
}
