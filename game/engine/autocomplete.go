package engine

// NextFoundationMove scans the waste top and then each tableau top (columns 0..6)
// for a card that can go to a foundation, returning the first match
func NextFoundationMove(state *GameState) (Move, bool) {
	if top, ok := Top(state.Waste); ok {
		if f, ok := foundationFor(state, top); ok {
			return Move{SourceKind: PileWaste, CardCount: 1, TargetKind: PileFoundation, TargetIndex: f}, true
		}
	}
	for col, pile := range state.Tableau {
		top, ok := Top(pile)
		if !ok || !top.FaceUp {
			continue
		}
		if f, ok := foundationFor(state, top); ok {
			return Move{SourceKind: PileTableau, SourceIndex: col, CardCount: 1, TargetKind: PileFoundation, TargetIndex: f}, true
		}
	}
	return Move{}, false
}

// foundationFor returns the first foundation that accepts card
func foundationFor(state *GameState, card Card) (int, bool) {
	for i, f := range state.Foundations {
		if CanMoveToFoundation(card, f) {
			return i, true
		}
	}
	return 0, false
}

// AutoComplete moves foundation-eligible cards until none remain and returns the
// final state with the moves applied, in order. It is bounded by the 52 cards
// that can reach the foundations.
func AutoComplete(state *GameState) (*GameState, []Move) {
	current := state
	var applied []Move
	for {
		m, ok := NextFoundationMove(current)
		if !ok {
			return current, applied
		}
		next, err := ApplyMove(current, m)
		if err != nil {
			return current, applied
		}
		current = next
		applied = append(applied, m)
	}
}
