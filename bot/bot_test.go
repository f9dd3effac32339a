package bot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/placement"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
	"github.com/domino14/blockglass/store"
)

func roundTrip(t *testing.T, b *Bot, req Request) Response {
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := json.Unmarshal(b.Handle(context.Background(), data), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func newTestBot(t *testing.T) (*Bot, *store.Store) {
	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewBot(config.DefaultConfig(), shape.MustDefaultCatalog(), st), st
}

func TestSessionLifecycle(t *testing.T) {
	is := is.New(t)
	b, st := newTestBot(t)
	seed := spawner.EncodeSeed([32]byte{9})

	resp := roundTrip(t, b, Request{Action: ActionNew, Seed: seed})
	is.Equal(resp.Error, "")
	is.Equal(resp.Seed, seed)
	is.True(resp.State != nil)
	id := resp.SessionID
	is.Equal(b.NumSessions(), 1)

	// Find a legal anchor for slot 0 from the reported state.
	sh, err := shape.MustDefaultCatalog().ByName(resp.State.Batch[0].Shape)
	is.NoErr(err)
	anchor, ok := placement.FirstFit(board.NewBoard(8, 8), sh)
	is.True(ok)

	resp = roundTrip(t, b, Request{Action: ActionQuery, SessionID: id, Slot: 0, Anchor: &anchor})
	is.True(*resp.Valid)

	resp = roundTrip(t, b, Request{Action: ActionPlace, SessionID: id, Slot: 0, Anchor: &anchor})
	is.True(resp.Place.Accepted)
	is.Equal(resp.State.Score, sh.CellCount()*3)
	is.True(resp.State.Batch[0].Used)

	resp = roundTrip(t, b, Request{Action: ActionPlace, SessionID: id, Slot: 0, Anchor: &anchor})
	is.True(!resp.Place.Accepted)

	resp = roundTrip(t, b, Request{Action: ActionHint, SessionID: id})
	is.Equal(resp.Hint.Kind, "place")
	is.True(resp.Hint.Slot != 0)

	resp = roundTrip(t, b, Request{Action: ActionPowerup, SessionID: id, Powerup: "bomb", Anchor: &anchor})
	is.True(resp.Powerup.Accepted)
	is.Equal(resp.State.Budgets.Bomb, 1)

	resp = roundTrip(t, b, Request{Action: ActionUndo, SessionID: id})
	is.True(*resp.Undone)
	is.Equal(resp.State.Budgets.Undo, 1)

	resp = roundTrip(t, b, Request{Action: ActionEnd, SessionID: id})
	is.Equal(resp.Error, "")
	is.Equal(b.NumSessions(), 0)
	tot, err := st.Totals(context.Background())
	is.NoErr(err)
	is.Equal(tot.GamesPlayed, 1)

	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: id})
	is.True(resp.Error != "")
}

func TestRestore(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBot(t)
	resp := roundTrip(t, b, Request{Action: ActionNew})
	id := resp.SessionID

	state := *resp.State
	state.Score = 1234
	state.SessionID = "restored"
	resp = roundTrip(t, b, Request{Action: ActionRestore, SessionID: id, State: &state})
	is.Equal(resp.Error, "")
	is.Equal(resp.SessionID, "restored")
	is.Equal(resp.State.Score, 1234)

	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: "restored"})
	is.Equal(resp.Error, "")
	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: id})
	is.True(resp.Error != "")

	bad := state
	bad.Rows = 9
	resp = roundTrip(t, b, Request{Action: ActionRestore, SessionID: "restored", State: &bad})
	is.True(resp.Error != "")
}

func TestBadRequests(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBot(t)
	var resp Response
	is.NoErr(json.Unmarshal(b.Handle(context.Background(), []byte("{not json")), &resp))
	is.True(resp.Error != "")

	resp = roundTrip(t, b, Request{Action: "dance"})
	is.True(resp.Error != "")
	id := roundTrip(t, b, Request{Action: ActionNew}).SessionID
	resp = roundTrip(t, b, Request{Action: "dance", SessionID: id})
	is.True(resp.Error != "")
	resp = roundTrip(t, b, Request{Action: ActionPlace, SessionID: id})
	is.True(resp.Error != "")
	resp = roundTrip(t, b, Request{Action: ActionPowerup, SessionID: id, Powerup: "laser"})
	is.True(resp.Error != "")
	resp = roundTrip(t, b, Request{Action: ActionNew, Seed: "short"})
	is.True(resp.Error != "")
	resp = roundTrip(t, b, Request{Action: ActionAutoplay})
	is.True(resp.Error != "")
}

func TestGetSession(t *testing.T) {
	b, _ := newTestBot(t)
	_, err := b.getSession("nope")
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestReadOnlyActions(t *testing.T) {
	is := is.New(t)
	is.True(readOnly(ActionState))
	is.True(readOnly(ActionHint))
	is.True(!readOnly(ActionPlace))
	is.True(!readOnly(ActionNew))
}

func TestPhaseInState(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBot(t)
	resp := roundTrip(t, b, Request{Action: ActionNew})
	is.Equal(resp.State.Phase, game.PhasePlaying)
}

func TestRestoreCannotTakeLiveSession(t *testing.T) {
	is := is.New(t)
	b, st := newTestBot(t)
	a := roundTrip(t, b, Request{Action: ActionNew})
	c := roundTrip(t, b, Request{Action: ActionNew})
	is.Equal(b.NumSessions(), 2)

	// Place in a so that ending it records a game.
	sh, err := shape.MustDefaultCatalog().ByName(a.State.Batch[0].Shape)
	is.NoErr(err)
	anchor, _ := placement.FirstFit(board.NewBoard(8, 8), sh)
	placed := roundTrip(t, b, Request{Action: ActionPlace, SessionID: a.SessionID, Anchor: &anchor})
	is.True(placed.Place.Accepted)

	resp := roundTrip(t, b, Request{Action: ActionRestore, SessionID: c.SessionID, State: placed.State})
	is.True(resp.Error != "")
	is.Equal(b.NumSessions(), 2)

	// Both sessions are untouched.
	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: a.SessionID})
	is.Equal(resp.State.Score, placed.State.Score)
	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: c.SessionID})
	is.Equal(resp.State.Score, 0)
	is.Equal(resp.SessionID, c.SessionID)

	// Restoring a session onto its own ID is fine.
	resp = roundTrip(t, b, Request{Action: ActionRestore, SessionID: a.SessionID, State: placed.State})
	is.Equal(resp.Error, "")

	roundTrip(t, b, Request{Action: ActionEnd, SessionID: a.SessionID})
	tot, err := st.Totals(context.Background())
	is.NoErr(err)
	is.Equal(tot.GamesPlayed, 1)
}

func TestRestoreRejectsBudgets(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBot(t)
	resp := roundTrip(t, b, Request{Action: ActionNew})
	state := *resp.State
	state.Budgets.Bomb = 99
	resp = roundTrip(t, b, Request{Action: ActionRestore, SessionID: resp.SessionID, State: &state})
	is.True(resp.Error != "")
	resp = roundTrip(t, b, Request{Action: ActionState, SessionID: state.SessionID})
	is.Equal(resp.State.Budgets.Bomb, 2)
}

func TestAdventureSession(t *testing.T) {
	is := is.New(t)
	b, st := newTestBot(t)
	ctx := context.Background()
	is.NoErr(st.SaveAdventureLevel(ctx, "cesar", 2))

	resp := roundTrip(t, b, Request{Action: ActionNew, Adventure: true, Player: "cesar"})
	is.Equal(resp.Error, "")
	is.Equal(*resp.State.Adventure, game.Adventure{Level: 2, Goal: 750})

	// One point short of the goal, then any placement levels up.
	state := *resp.State
	state.Adventure.LevelScore = 749
	resp = roundTrip(t, b, Request{Action: ActionRestore, SessionID: resp.SessionID, State: &state})
	is.Equal(resp.Error, "")
	sh, err := shape.MustDefaultCatalog().ByName(resp.State.Batch[0].Shape)
	is.NoErr(err)
	anchor, ok := placement.FirstFit(board.NewBoard(8, 8), sh)
	is.True(ok)
	resp = roundTrip(t, b, Request{Action: ActionPlace, SessionID: resp.SessionID, Anchor: &anchor})
	is.True(resp.Place.LevelUp)
	is.Equal(resp.State.Adventure.Level, 3)

	lvl, err := st.AdventureLevel(ctx, "cesar")
	is.NoErr(err)
	is.Equal(lvl, 3)

	resp = roundTrip(t, b, Request{Action: ActionNew})
	is.True(resp.State.Adventure == nil)
}
