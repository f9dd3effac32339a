package game

import (
	"fmt"
	"strings"
)

func addText(lines []string, row int, hpad int, text string) {
	for i, chunk := range strings.Split(text, "\n") {
		if row+i >= len(lines) {
			return
		}
		lines[row+i] += strings.Repeat(" ", hpad) + chunk
	}
}

// ToDisplayText renders the board with the session info and the current
// batch to its right.
func (g *Game) ToDisplayText() string {
	bt := g.board.ToDisplayText()
	bts := strings.Split(bt, "\n")
	// Leave room below the board for tall pieces.
	for len(bts) < 22 {
		bts = append(bts, strings.Repeat(" ", 3+2*g.board.Cols()+2))
	}
	hpadding := 3
	vpadding := 2

	addText(bts, vpadding, hpadding, fmt.Sprintf("Score: %d (best %d)", g.score, g.bestScore))
	addText(bts, vpadding+1, hpadding, fmt.Sprintf("Lines: %d  Combo: x%d", g.linesCleared, g.combo))
	addText(bts, vpadding+2, hpadding, fmt.Sprintf("Bomb %d  Fill %d  Reroll %d  Undo %d (%d saved)",
		g.budgets.Bomb, g.budgets.Fill, g.budgets.Reroll, g.budgets.Undo, g.stackLen))
	phase := fmt.Sprintf("Phase: %s", g.phase)
	if adv, ok := g.Adventure(); ok {
		phase += fmt.Sprintf("  Level %d: %d/%d", adv.Level, adv.LevelScore, adv.Goal)
	}
	addText(bts, vpadding+3, hpadding, phase)

	row := vpadding + 5
	for i, p := range g.batch {
		if p.Used {
			addText(bts, row, hpadding, fmt.Sprintf("%d: (placed)", i+1))
			row += 2
			continue
		}
		addText(bts, row, hpadding, fmt.Sprintf("%d: %s", i+1, p.Shape.Name))
		pic := p.Shape.Picture()
		addText(bts, row+1, hpadding+3, pic)
		h, _ := p.Shape.Bounds()
		row += h + 2
	}
	return strings.Join(bts, "\n")
}
