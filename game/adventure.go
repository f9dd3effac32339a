package game

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Adventure is level-based play. Each level has a score goal; reaching it
// starts the next level with the level score back at zero.
type Adventure struct {
	Level      int `json:"level" yaml:"level"`
	LevelScore int `json:"level_score" yaml:"level_score"`
	Goal       int `json:"goal" yaml:"goal"`
}

// LevelGoal is base * mult^(level-1), rounded to the nearest point.
func LevelGoal(base int, mult float64, level int) int {
	return int(math.Round(float64(base) * math.Pow(mult, float64(level-1))))
}

func (g *Game) levelGoal(level int) int {
	return LevelGoal(g.rules.AdventureBase, g.rules.AdventureMult, level)
}

// StartAdventure switches the session to adventure play at level, with an
// empty level score. Levels below 1 start at 1.
func (g *Game) StartAdventure(level int) {
	level = max(level, 1)
	g.adventure = Adventure{Level: level, Goal: g.levelGoal(level)}
	log.Debug().Int("level", level).Int("goal", g.adventure.Goal).Msg("adventure-started")
}

// Adventure returns the adventure progress, and false in classic play.
func (g *Game) Adventure() (Adventure, bool) {
	return g.adventure, g.adventure.Level > 0
}

// advance credits delta to the level score and reports whether the level
// was completed.
func (g *Game) advance(delta int) bool {
	if g.adventure.Level == 0 || delta <= 0 {
		return false
	}
	g.adventure.LevelScore += delta
	if g.adventure.LevelScore < g.adventure.Goal {
		return false
	}
	done := g.adventure.Level
	g.adventure.Level++
	g.adventure.LevelScore = 0
	g.adventure.Goal = g.levelGoal(g.adventure.Level)
	log.Debug().Int("completed", done).Int("goal", g.adventure.Goal).Msg("level-up")
	return true
}
