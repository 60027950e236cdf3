package engine

import (
	"errors"
	"fmt"
)

// Suit is one of the four French suits
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists the suits in deck-building order
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

// Color is the derived color of a suit
type Color int

const (
	Red Color = iota
	Black
)

// String returns the color name
func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Color returns the color of the suit
func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Valid reports whether s is one of the four suits
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Letter returns the one-letter suit abbreviation (H, D, C, S)
func (s Suit) Letter() string {
	switch s {
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Clubs:
		return "C"
	case Spades:
		return "S"
	}
	return "?"
}

// index returns the position of s in Suits, or -1
func (s Suit) index() int {
	for i, suit := range Suits {
		if suit == s {
			return i
		}
	}
	return -1
}

// Rank is the card rank, Ace=1 through King=13
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the rank label (A, 2..10, J, Q, K)
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	labels := []string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	return labels[r]
}

// Valid reports whether r is in 1..13
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Card is an immutable playing card. Identity is (Suit, Rank); FaceUp is orientation only.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"face_up"`
}

// Color returns the color derived from the suit
func (c Card) Color() Color {
	return c.Suit.Color()
}

// Value returns the numeric rank value (1-13)
func (c Card) Value() int {
	return int(c.Rank)
}

// SameCard reports whether c and o have the same identity, ignoring orientation
func (c Card) SameCard(o Card) bool {
	return c.Suit == o.Suit && c.Rank == o.Rank
}

// String returns a compact label such as "10H" or "QS"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Letter()
}

// PileKind identifies one of the four pile groups
type PileKind string

const (
	PileStock      PileKind = "stock"
	PileWaste      PileKind = "waste"
	PileFoundation PileKind = "foundation"
	PileTableau    PileKind = "tableau"
)

// Difficulty selects how many cards a draw turns over
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// DrawCount returns the number of cards turned per draw: 1 on easy, 3 otherwise
func (d Difficulty) DrawCount() int {
	if d == Easy {
		return 1
	}
	return 3
}

// ParseDifficulty converts a string into a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
	}
	return d, nil
}

const (
	// Board geometry
	NumFoundations = 4
	NumTableau     = 7
	DeckSize       = 52
	CardsPerSuit   = 13

	// MaxUndoHistory bounds the undo stack
	MaxUndoHistory = 10

	// Score deltas
	ScoreToFoundation   = 10
	ScoreFromFoundation = -15
	ScoreFlip           = 5

	// BlobVersion is the current serialized state format
	BlobVersion = 1
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrEmptyHistory  = errors.New("no moves to undo")
	ErrMalformedLoad = errors.New("malformed saved game")
)

// Move describes a candidate transfer of one or more cards between piles.
// CardCount defaults to 1 when zero; values above 1 are only legal tableau to tableau.
type Move struct {
	SourceKind  PileKind `json:"source_kind"`
	SourceIndex int      `json:"source_index"`
	CardCount   int      `json:"card_count,omitempty"`
	TargetKind  PileKind `json:"target_kind"`
	TargetIndex int      `json:"target_index"`
}

// count returns the effective number of cards moved
func (m Move) count() int {
	if m.CardCount == 0 {
		return 1
	}
	return m.CardCount
}

// String renders the move with 1-based pile numbers
func (m Move) String() string {
	return fmt.Sprintf("%d card(s) from %s to %s",
		m.count(), describePile(m.SourceKind, m.SourceIndex), describePile(m.TargetKind, m.TargetIndex))
}

func describePile(kind PileKind, index int) string {
	switch kind {
	case PileStock, PileWaste:
		return string(kind)
	}
	return fmt.Sprintf("%s %d", kind, index+1)
}

// MoveError reports why a proposed move was rejected
type MoveError struct {
	Move   Move   `json:"move"`
	Reason string `json:"reason"`
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("illegal move (%s): %s", e.Move, e.Reason)
}

// Unwrap lets errors.Is match ErrIllegalMove
func (e *MoveError) Unwrap() error {
	return ErrIllegalMove
}

// Hint is the advisory result of the hint oracle
type Hint struct {
	Found bool   `json:"found"`
	Move  *Move  `json:"move,omitempty"`
	Card  *Card  `json:"card,omitempty"`
	Text  string `json:"text,omitempty"`
}

// GameState is the complete board. Piles are ordered bottom to top.
// Engine functions treat a *GameState as immutable and return new states.
type GameState struct {
	Stock          []Card                 `json:"stock"`
	Waste          []Card                 `json:"waste"`
	Foundations    [NumFoundations][]Card `json:"foundations"`
	Tableau        [NumTableau][]Card     `json:"tableau"`
	Score          int                    `json:"score"`
	MoveCount      int                    `json:"move_count"`
	ElapsedSeconds int                    `json:"elapsed_seconds"`
	Difficulty     Difficulty             `json:"difficulty"`
	Won            bool                   `json:"won"`
}

// GameMessages holds user-facing message templates for a configuration
type GameMessages struct {
	Welcome       string `json:"welcome"`
	IllegalMove   string `json:"illegal_move"`   // %s receives the reason
	Moved         string `json:"moved"`          // %s receives the move description
	Victory       string `json:"victory"`        // %d receives the score
	Hint          string `json:"hint"`           // %s receives the hint text
	NoHint        string `json:"no_hint"`
	Drew          string `json:"drew"`           // %d receives the number of cards drawn
	Recycled      string `json:"recycled"`
	NothingToDraw string `json:"nothing_to_draw"`
	Undone        string `json:"undone"`
	NothingToUndo string `json:"nothing_to_undo"`
	AutoComplete  string `json:"auto_complete"`  // %d receives the number of cards placed
}

// GameConfig represents a named game configuration loaded from JSON
type GameConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Difficulty  Difficulty   `json:"difficulty"`
	Seed        int64        `json:"seed,omitempty"` // 0 deals from a time-seeded source
	Messages    GameMessages `json:"messages"`
}
