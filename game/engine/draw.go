package engine

// Draw turns cards from the stock onto the waste, or recycles the waste into the
// stock when the stock is empty. It reports false, returning state itself, when
// both piles are empty.
func Draw(state *GameState) (*GameState, bool) {
	if len(state.Stock) == 0 && len(state.Waste) == 0 {
		return state, false
	}

	next := state.Clone()
	if len(next.Stock) > 0 {
		n := state.Difficulty.DrawCount()
		if n > len(next.Stock) {
			n = len(next.Stock)
		}
		for i := 0; i < n; i++ {
			last := len(next.Stock) - 1
			card := next.Stock[last]
			next.Stock = next.Stock[:last]
			card.FaceUp = true
			next.Waste = append(next.Waste, card)
		}
	} else {
		stock := make([]Card, len(next.Waste))
		for i, card := range next.Waste {
			card.FaceUp = false
			stock[len(stock)-1-i] = card
		}
		next.Stock = stock
		next.Waste = nil
	}

	next.MoveCount++
	return next, true
}

// IsRecycle reports whether the next Draw on state would recycle the waste
func IsRecycle(state *GameState) bool {
	return len(state.Stock) == 0 && len(state.Waste) > 0
}
