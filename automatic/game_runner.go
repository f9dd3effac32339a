// Package automatic plays block puzzle games without a human: a greedy
// player drives a game.Game to completion, and many such games can be run
// across worker goroutines to gather statistics about the spawner.
package automatic

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
)

const logHeader = "gameID,seed,score,lines,placements,batches,turns,rescued,verified,fallback,nofit,fill,gameover\n"

// GameResult summarizes one finished autoplay game.
type GameResult struct {
	GameID     string  `yaml:"game_id"`
	Seed       string  `yaml:"seed"`
	Score      int     `yaml:"score"`
	Lines      int     `yaml:"lines"`
	Placements int     `yaml:"placements"`
	Batches    int     `yaml:"batches"`
	Turns      int     `yaml:"turns"`
	RescueUsed bool    `yaml:"rescue_used"`
	Verified   int     `yaml:"verified"`
	Fallback   int     `yaml:"fallback"`
	NoFit      int     `yaml:"nofit"`
	FinalFill  float64 `yaml:"final_fill"`
	GameOver   bool    `yaml:"game_over"`
}

func (r GameResult) csvLine() string {
	return fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%v,%.3f,%v\n",
		r.GameID, r.Seed, r.Score, r.Lines, r.Placements, r.Batches, r.Turns,
		r.RescueUsed, r.Verified, r.Fallback, r.NoFit, r.FinalFill, r.GameOver)
}

// gameDump is the YAML document written for sampled games.
type gameDump struct {
	Result GameResult `yaml:"result"`
	Final  game.State `yaml:"final"`
}

// GameRunner is the master struct here for the automatic game logic.
type GameRunner struct {
	game    *game.Game
	player  *GreedyPlayer
	config  *config.Config
	catalog *shape.Catalog

	seed     [32]byte
	maxTurns int
	dumpMod  int
	turns    int
	dealt    int
	outcomes [3]int

	logchan  chan string
	gamechan chan []byte
}

// NewGameRunner instantiates a runner and initializes it with a random
// seed. Either channel may be nil.
func NewGameRunner(logchan chan string, gamechan chan []byte, cfg *config.Config,
	catalog *shape.Catalog) (*GameRunner, error) {

	r := &GameRunner{
		logchan:  logchan,
		gamechan: gamechan,
		config:   cfg,
		catalog:  catalog,
		player:   NewGreedyPlayer(),
		maxTurns: cfg.GetInt(config.ConfigAutoplayMaxTurns),
		dumpMod:  cfg.GetInt(config.ConfigAutoplayDumpMod),
	}
	if err := r.Init(spawner.RandomSeed()); err != nil {
		return nil, err
	}
	return r, nil
}

// Init starts a fresh game whose every random decision follows seed.
func (r *GameRunner) Init(seed [32]byte) error {
	g, err := game.NewGame(r.config, r.catalog, spawner.NewSeededRNG(seed))
	if err != nil {
		return err
	}
	r.game = g
	r.seed = seed
	r.turns = 0
	r.outcomes = [3]int{}
	r.dealt = 0
	r.trackDeal()
	return nil
}

func (r *GameRunner) Game() *game.Game {
	return r.game
}

// trackDeal records the spawner outcome whenever a new batch showed up.
func (r *GameRunner) trackDeal() {
	if n := r.game.BatchesDealt(); n > r.dealt {
		r.outcomes[r.game.SpawnStats().Outcome]++
		r.dealt = n
	} else if n < r.dealt {
		// an undo took a batch back
		r.dealt = n
	}
}

// PlayTurn performs a single action. It returns false once the player has
// nothing left to do.
func (r *GameRunner) PlayTurn() bool {
	a := r.player.ChooseAction(r.game)
	switch a.Kind {
	case ActionNone:
		return false
	case ActionPlace:
		res := r.game.AttemptPlace(a.Anchor, a.Slot)
		if !res.Accepted {
			log.Error().Int("slot", a.Slot).Stringer("anchor", a.Anchor).Msg("autoplay-placement-rejected")
			return false
		}
	case ActionPowerup:
		anchor := a.Anchor
		if !r.game.AttemptPowerup(a.Powerup, &anchor).Accepted {
			log.Debug().Stringer("powerup", a.Powerup).Msg("autoplay-powerup-rejected")
			return false
		}
	}
	r.turns++
	r.trackDeal()
	return true
}

// PlayFull plays until game over, until the player gives up, or until the
// turn limit is hit.
func (r *GameRunner) PlayFull(ctx context.Context) (GameResult, error) {
	for r.game.Phase() != game.PhaseGameOver {
		if r.maxTurns > 0 && r.turns >= r.maxTurns {
			log.Debug().Int("turns", r.turns).Msg("autoplay-turn-limit")
			break
		}
		if r.turns%64 == 0 {
			if err := ctx.Err(); err != nil {
				return r.Result(), err
			}
		}
		if !r.PlayTurn() {
			break
		}
	}
	res := r.Result()
	if r.logchan != nil {
		r.logchan <- res.csvLine()
	}
	if r.gamechan != nil && dumpSelected(res.Seed, r.dumpMod) {
		bts, err := yaml.Marshal(gameDump{Result: res, Final: r.game.CurrentState()})
		if err != nil {
			return res, err
		}
		r.gamechan <- bts
	}
	return res, nil
}

func (r *GameRunner) Result() GameResult {
	g := r.game
	return GameResult{
		GameID:     g.SessionID(),
		Seed:       spawner.EncodeSeed(r.seed),
		Score:      g.Score(),
		Lines:      g.LinesCleared(),
		Placements: g.Placements(),
		Batches:    g.BatchesDealt(),
		Turns:      r.turns,
		RescueUsed: g.RescueUsed(),
		Verified:   r.outcomes[spawner.OutcomeVerified],
		Fallback:   r.outcomes[spawner.OutcomeFallback],
		NoFit:      r.outcomes[spawner.OutcomeNoFit],
		FinalFill:  g.Board().FillRatio(),
		GameOver:   g.Phase() == game.PhaseGameOver,
	}
}

// dumpSelected picks roughly one game in modulus for a full YAML dump. The
// choice depends only on the seed, so replaying a seed file dumps the same
// games.
func dumpSelected(seed string, modulus int) bool {
	if modulus <= 0 {
		return false
	}
	return xxhash.Sum64([]byte(seed))%uint64(modulus) == 0
}
