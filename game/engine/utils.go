package engine

import "fmt"

// CheckInvariants verifies that state is a well-formed board:
// 52 unique cards across all piles, face-down stock, face-up waste,
// single-suit ascending foundations, tableau columns made of a face-down
// prefix and a valid face-up run, and a won flag matching the foundations.
func CheckInvariants(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}
	if !state.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", state.Difficulty)
	}
	if state.MoveCount < 0 {
		return fmt.Errorf("move_count must not be negative, got %d", state.MoveCount)
	}
	if state.ElapsedSeconds < 0 {
		return fmt.Errorf("elapsed_seconds must not be negative, got %d", state.ElapsedSeconds)
	}

	if err := checkConservation(state); err != nil {
		return err
	}

	for i, c := range state.Stock {
		if c.FaceUp {
			return fmt.Errorf("stock card %d (%s) is face up", i, c)
		}
	}
	for i, c := range state.Waste {
		if !c.FaceUp {
			return fmt.Errorf("waste card %d (%s) is face down", i, c)
		}
	}

	for i, f := range state.Foundations {
		if err := checkFoundation(f); err != nil {
			return fmt.Errorf("foundation %d: %w", i+1, err)
		}
	}

	for i, t := range state.Tableau {
		if err := checkTableau(t); err != nil {
			return fmt.Errorf("tableau %d: %w", i+1, err)
		}
	}

	if state.Won != IsWon(state) {
		return fmt.Errorf("won flag is %t but foundations hold %d cards", state.Won, state.FoundationCount())
	}

	return nil
}

// checkConservation verifies that exactly the 52 distinct cards are present
func checkConservation(state *GameState) error {
	var seen [4][CardsPerSuit + 1]bool
	count := 0

	visit := func(c Card) error {
		s := c.Suit.index()
		if s < 0 {
			return fmt.Errorf("invalid suit %q", c.Suit)
		}
		if !c.Rank.Valid() {
			return fmt.Errorf("invalid rank %d", c.Rank)
		}
		if seen[s][c.Rank] {
			return fmt.Errorf("duplicate card %s", c)
		}
		seen[s][c.Rank] = true
		count++
		return nil
	}

	piles := [][]Card{state.Stock, state.Waste}
	piles = append(piles, state.Foundations[:]...)
	piles = append(piles, state.Tableau[:]...)
	for _, pile := range piles {
		for _, c := range pile {
			if err := visit(c); err != nil {
				return err
			}
		}
	}

	if count != DeckSize {
		return fmt.Errorf("expected %d cards, found %d", DeckSize, count)
	}
	return nil
}

// checkFoundation verifies an A,2,...,k run of one suit, all face up
func checkFoundation(pile []Card) error {
	for i, c := range pile {
		if !c.FaceUp {
			return fmt.Errorf("card %s is face down", c)
		}
		if c.Rank != Rank(i+1) {
			return fmt.Errorf("expected rank %s at position %d, got %s", Rank(i+1), i+1, c)
		}
		if c.Suit != pile[0].Suit {
			return fmt.Errorf("mixed suits: %s on %s foundation", c, pile[0].Suit)
		}
	}
	return nil
}

// checkTableau verifies the face-down prefix and the face-up run suffix
func checkTableau(pile []Card) error {
	if len(pile) == 0 {
		return nil
	}
	start := firstFaceUp(pile)
	if start == len(pile) {
		return fmt.Errorf("top card %s is face down", pile[len(pile)-1])
	}
	for _, c := range pile[start:] {
		if !c.FaceUp {
			return fmt.Errorf("face-down card %s above a face-up card", c)
		}
	}
	if ValidRunFrom(pile, start) == nil {
		return fmt.Errorf("face-up cards do not form a descending alternating run")
	}
	return nil
}
