package engine

// CanMoveToFoundation reports whether card may be placed on the foundation pile:
// an Ace on an empty pile, or the next rank of the same suit
func CanMoveToFoundation(card Card, foundation []Card) bool {
	top, ok := Top(foundation)
	if !ok {
		return card.Rank == Ace
	}
	return top.Suit == card.Suit && top.Rank == card.Rank-1
}

// CanMoveToTableau reports whether run may be placed on the tableau pile:
// a King-headed run on an empty pile, or a run whose head is one rank below
// a face-up top card of the opposite color
func CanMoveToTableau(run []Card, tableau []Card) bool {
	if len(run) == 0 {
		return false
	}
	head := run[0]
	top, ok := Top(tableau)
	if !ok {
		return head.Rank == King
	}
	return top.FaceUp && top.Color() != head.Color() && top.Rank == head.Rank+1
}

// ValidRunFrom returns pile[start:] when every card in it is face up and each
// step alternates color and descends by one rank. Otherwise it returns nil.
// The returned slice aliases pile and must not be modified.
func ValidRunFrom(pile []Card, start int) []Card {
	if start < 0 || start >= len(pile) {
		return nil
	}
	run := pile[start:]
	for i, c := range run {
		if !c.FaceUp {
			return nil
		}
		if i == 0 {
			continue
		}
		prev := run[i-1]
		if prev.Color() == c.Color() || prev.Rank != c.Rank+1 {
			return nil
		}
	}
	return run
}

// ValidateMove checks m against state without changing it
func ValidateMove(state *GameState, m Move) error {
	if _, err := resolveMove(state, m); err != nil {
		return err
	}
	return nil
}

// resolveMove validates m and returns the cards it would transfer
func resolveMove(state *GameState, m Move) ([]Card, *MoveError) {
	reject := func(reason string) ([]Card, *MoveError) {
		return nil, &MoveError{Move: m, Reason: reason}
	}

	n := m.count()
	if n < 1 {
		return reject("card count must be positive")
	}

	var cards []Card
	switch m.SourceKind {
	case PileWaste:
		if n != 1 {
			return reject("only the top waste card can be moved")
		}
		top, ok := Top(state.Waste)
		if !ok {
			return reject("waste is empty")
		}
		cards = []Card{top}

	case PileFoundation:
		pile, ok := state.Pile(PileFoundation, m.SourceIndex)
		if !ok {
			return reject("no such foundation")
		}
		if n != 1 {
			return reject("only the top foundation card can be moved")
		}
		top, ok := Top(pile)
		if !ok {
			return reject("foundation is empty")
		}
		cards = []Card{top}

	case PileTableau:
		pile, ok := state.Pile(PileTableau, m.SourceIndex)
		if !ok {
			return reject("no such tableau column")
		}
		if len(pile) == 0 {
			return reject("tableau column is empty")
		}
		if n > len(pile) {
			return reject("not enough cards in column")
		}
		start := len(pile) - n
		if !pile[start].FaceUp {
			return reject("cannot move a face-down card")
		}
		cards = ValidRunFrom(pile, start)
		if cards == nil {
			return reject("cards do not form a valid run")
		}

	case PileStock:
		return reject("stock cards can only be drawn")

	default:
		return reject("unknown source pile")
	}

	switch m.TargetKind {
	case PileFoundation:
		pile, ok := state.Pile(PileFoundation, m.TargetIndex)
		if !ok {
			return reject("no such foundation")
		}
		if m.SourceKind == PileFoundation {
			return reject("cannot move between foundations")
		}
		if len(cards) != 1 {
			return reject("only one card at a time can go to a foundation")
		}
		if !CanMoveToFoundation(cards[0], pile) {
			return reject("card does not follow the foundation")
		}

	case PileTableau:
		pile, ok := state.Pile(PileTableau, m.TargetIndex)
		if !ok {
			return reject("no such tableau column")
		}
		if m.SourceKind == PileTableau && m.SourceIndex == m.TargetIndex {
			return reject("source and target are the same column")
		}
		if len(cards) > 1 && m.SourceKind != PileTableau {
			return reject("only tableau runs can move as a group")
		}
		if !CanMoveToTableau(cards, pile) {
			if len(pile) == 0 {
				return reject("only a King can fill an empty column")
			}
			return reject("card does not fit on the column")
		}

	default:
		return reject("cards can only be moved to a foundation or tableau column")
	}

	return cards, nil
}
