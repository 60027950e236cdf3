package engine

import (
	"math/rand"
	"time"
)

// NewDeck builds the ordered 52-card deck, suit by suit, Ace to King, all face down
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// NewRand returns a random source for seed, or a time-seeded one when seed is 0
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Shuffle permutes deck in place with an unbiased Fisher-Yates shuffle driven by rng
func Shuffle(deck []Card, rng *rand.Rand) {
	if rng == nil {
		rng = NewRand(0)
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// Deal lays out a 52-card deck: column i receives i+1 cards with only the last face up,
// and the remaining cards become the face-down stock
func Deal(deck []Card, difficulty Difficulty) *GameState {
	state := &GameState{Difficulty: difficulty}

	next := 0
	for col := 0; col < NumTableau; col++ {
		pile := make([]Card, 0, col+1)
		for row := 0; row <= col; row++ {
			card := deck[next]
			next++
			card.FaceUp = row == col
			pile = append(pile, card)
		}
		state.Tableau[col] = pile
	}

	state.Stock = make([]Card, 0, len(deck)-next)
	for _, card := range deck[next:] {
		card.FaceUp = false
		state.Stock = append(state.Stock, card)
	}

	return state
}

// NewGameState shuffles a fresh deck with rng and deals it
func NewGameState(difficulty Difficulty, rng *rand.Rand) *GameState {
	deck := NewDeck()
	Shuffle(deck, rng)
	return Deal(deck, difficulty)
}
