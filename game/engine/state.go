package engine

// Clone returns a deep copy of the state. Nil piles stay nil so that
// snapshots compare equal to the state they were taken from.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Stock = clonePile(gs.Stock)
	c.Waste = clonePile(gs.Waste)
	for i := range gs.Foundations {
		c.Foundations[i] = clonePile(gs.Foundations[i])
	}
	for i := range gs.Tableau {
		c.Tableau[i] = clonePile(gs.Tableau[i])
	}
	return &c
}

func clonePile(p []Card) []Card {
	if p == nil {
		return nil
	}
	out := make([]Card, len(p))
	copy(out, p)
	return out
}

// Pile returns the pile identified by kind and index, or nil and false if out of range
func (gs *GameState) Pile(kind PileKind, index int) ([]Card, bool) {
	ref := gs.pileRef(kind, index)
	if ref == nil {
		return nil, false
	}
	return *ref, true
}

// pileRef returns a pointer to the pile slice so executors can rewrite it in place
func (gs *GameState) pileRef(kind PileKind, index int) *[]Card {
	switch kind {
	case PileStock:
		return &gs.Stock
	case PileWaste:
		return &gs.Waste
	case PileFoundation:
		if index < 0 || index >= NumFoundations {
			return nil
		}
		return &gs.Foundations[index]
	case PileTableau:
		if index < 0 || index >= NumTableau {
			return nil
		}
		return &gs.Tableau[index]
	}
	return nil
}

// Top returns the top card of a pile
func Top(pile []Card) (Card, bool) {
	if len(pile) == 0 {
		return Card{}, false
	}
	return pile[len(pile)-1], true
}

// TopOf returns the top card of the pile identified by kind and index
func (gs *GameState) TopOf(kind PileKind, index int) (Card, bool) {
	pile, ok := gs.Pile(kind, index)
	if !ok {
		return Card{}, false
	}
	return Top(pile)
}

// IsEmpty reports whether the identified pile holds no cards
func (gs *GameState) IsEmpty(kind PileKind, index int) bool {
	pile, _ := gs.Pile(kind, index)
	return len(pile) == 0
}

// CardCount returns the number of cards across all piles
func (gs *GameState) CardCount() int {
	n := len(gs.Stock) + len(gs.Waste)
	for _, f := range gs.Foundations {
		n += len(f)
	}
	for _, t := range gs.Tableau {
		n += len(t)
	}
	return n
}

// FoundationCount returns the number of cards on all foundations
func (gs *GameState) FoundationCount() int {
	n := 0
	for _, f := range gs.Foundations {
		n += len(f)
	}
	return n
}

// IsWon reports whether every foundation holds a full suit
func (gs *GameState) IsWon() bool {
	return IsWon(gs)
}

// IsWon is the win detector: all four foundations have 13 cards
func IsWon(gs *GameState) bool {
	for _, f := range gs.Foundations {
		if len(f) != CardsPerSuit {
			return false
		}
	}
	return true
}

// firstFaceUp returns the index of the first face-up card in a tableau pile, or len(pile)
func firstFaceUp(pile []Card) int {
	for i, c := range pile {
		if c.FaceUp {
			return i
		}
	}
	return len(pile)
}
