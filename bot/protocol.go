package bot

import (
	"github.com/domino14/blockglass/automatic"
	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/game"
)

// Actions understood by the bot service.
const (
	ActionNew      = "new"
	ActionState    = "state"
	ActionQuery    = "query"
	ActionPlace    = "place"
	ActionPowerup  = "powerup"
	ActionUndo     = "undo"
	ActionRestore  = "restore"
	ActionHint     = "hint"
	ActionEnd      = "end"
	ActionAutoplay = "autoplay"
)

// Request is the JSON body of every message sent to the bot subject.
// Slots are 0-based.
type Request struct {
	Action    string                 `json:"action"`
	SessionID string                 `json:"session_id,omitempty"`
	Seed      string                 `json:"seed,omitempty"`
	Slot      int                    `json:"slot,omitempty"`
	Anchor    *board.Coord           `json:"anchor,omitempty"`
	Powerup   string                 `json:"powerup,omitempty"`
	State     *game.State            `json:"state,omitempty"`
	Autoplay  *automatic.PlayRequest `json:"autoplay,omitempty"`
	// Adventure starts a new session in adventure play, at the level Player
	// has reached.
	Adventure bool                   `json:"adventure,omitempty"`
	Player    string                 `json:"player,omitempty"`
}

// Hint is the greedy player's suggestion for the current position.
type Hint struct {
	Kind    string      `json:"kind"`
	Slot    int         `json:"slot"`
	Anchor  board.Coord `json:"anchor"`
	Powerup string      `json:"powerup,omitempty"`
}

type Response struct {
	SessionID string                  `json:"session_id,omitempty"`
	Seed      string                  `json:"seed,omitempty"`
	State     *game.State             `json:"state,omitempty"`
	Valid     *bool                   `json:"valid,omitempty"`
	Lines     []board.LineID          `json:"lines,omitempty"`
	Place     *game.PlaceResult       `json:"place,omitempty"`
	Powerup   *game.PowerupResult     `json:"powerup,omitempty"`
	Undone    *bool                   `json:"undone,omitempty"`
	Hint      *Hint                   `json:"hint,omitempty"`
	Autoplay  *automatic.PlayResponse `json:"autoplay,omitempty"`
	Error     string                  `json:"error,omitempty"`
}
