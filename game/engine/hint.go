package engine

import "fmt"

// GetHint returns the first legal move found in priority order:
// waste top to a foundation, tableau tops to a foundation, then tableau runs
// (by column, then start index) onto another column. Relocating a whole
// King-headed column onto an empty column changes nothing, so it is only
// suggested when no other move exists.
func GetHint(state *GameState) Hint {
	if top, ok := Top(state.Waste); ok {
		if f, ok := foundationFor(state, top); ok {
			return newHint(Move{SourceKind: PileWaste, CardCount: 1, TargetKind: PileFoundation, TargetIndex: f}, top)
		}
	}

	for col, pile := range state.Tableau {
		top, ok := Top(pile)
		if !ok || !top.FaceUp {
			continue
		}
		if f, ok := foundationFor(state, top); ok {
			return newHint(Move{SourceKind: PileTableau, SourceIndex: col, CardCount: 1, TargetKind: PileFoundation, TargetIndex: f}, top)
		}
	}

	var relocation *Move
	for col, pile := range state.Tableau {
		for start := firstFaceUp(pile); start < len(pile); start++ {
			run := ValidRunFrom(pile, start)
			if run == nil {
				continue
			}
			for target := 0; target < NumTableau; target++ {
				if target == col {
					continue
				}
				if !CanMoveToTableau(run, state.Tableau[target]) {
					continue
				}
				m := Move{SourceKind: PileTableau, SourceIndex: col, CardCount: len(run), TargetKind: PileTableau, TargetIndex: target}
				if start == 0 && len(state.Tableau[target]) == 0 {
					if relocation == nil {
						relocation = &m
					}
					continue
				}
				return newHint(m, run[0])
			}
		}
	}

	if relocation != nil {
		h := newHint(*relocation, state.Tableau[relocation.SourceIndex][0])
		h.Text += " (this only relocates the column)"
		return h
	}

	return Hint{Found: false}
}

func newHint(m Move, card Card) Hint {
	text := fmt.Sprintf("Move %s from %s to %s", card, describePile(m.SourceKind, m.SourceIndex), describePile(m.TargetKind, m.TargetIndex))
	if m.count() > 1 {
		text = fmt.Sprintf("Move the run headed by %s from %s to %s", card, describePile(m.SourceKind, m.SourceIndex), describePile(m.TargetKind, m.TargetIndex))
	}
	return Hint{Found: true, Move: &m, Card: &card, Text: text}
}
