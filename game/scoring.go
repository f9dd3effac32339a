package game

// clearBonus is lines * points-per-line, squared in lines for multi-line
// clears, times the multiplier.
func (g *Game) clearBonus(lines, mult int) int {
	if lines == 0 {
		return 0
	}
	factor := 1
	if lines > 1 {
		factor = lines
	}
	return lines * g.rules.PointsPerLine * factor * mult
}

// scorePlacement credits a placement of cells that cleared lines, updating
// combo, the cycle flag, the lines counter and the best score. It returns
// the score delta and whether it completed an adventure level.
func (g *Game) scorePlacement(cells, lines int) (int, bool) {
	delta := cells * g.rules.PointsPerCell
	if lines > 0 {
		g.combo++
		g.scoredInCycle = true
		delta += g.clearBonus(lines, g.combo)
		g.linesCleared += lines
	}
	return delta, g.addScore(delta)
}

func (g *Game) addScore(delta int) bool {
	g.score += delta
	if g.score > g.bestScore {
		g.bestScore = g.score
	}
	return g.advance(delta)
}

// endCycle runs when every slot of a batch has been consumed. The combo
// survives only if some placement in the cycle cleared a line.
func (g *Game) endCycle() {
	if !g.scoredInCycle {
		g.combo = 0
	}
	g.scoredInCycle = false
}
