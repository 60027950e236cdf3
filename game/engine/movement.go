package engine

// ApplyMove validates m against the current state and returns the resulting state.
// The input state is never modified. On failure it returns a *MoveError.
func ApplyMove(state *GameState, m Move) (*GameState, error) {
	cards, merr := resolveMove(state, m)
	if merr != nil {
		return nil, merr
	}

	next := state.Clone()
	n := len(cards)

	src := next.pileRef(m.SourceKind, m.SourceIndex)
	moved := make([]Card, n)
	copy(moved, (*src)[len(*src)-n:])
	*src = (*src)[:len(*src)-n]

	// Expose the next tableau card
	if m.SourceKind == PileTableau && len(*src) > 0 {
		last := len(*src) - 1
		if !(*src)[last].FaceUp {
			(*src)[last].FaceUp = true
			next.Score += ScoreFlip
		}
	}

	dst := next.pileRef(m.TargetKind, m.TargetIndex)
	*dst = append(*dst, moved...)

	if m.TargetKind == PileFoundation {
		next.Score += ScoreToFoundation
	}
	if m.SourceKind == PileFoundation {
		next.Score += ScoreFromFoundation
	}

	next.MoveCount++
	next.Won = IsWon(next)

	return next, nil
}
