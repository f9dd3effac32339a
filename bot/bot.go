// Package bot serves block puzzle sessions over NATS request/reply. Each
// request is a JSON Request naming an action; the reply is a JSON
// Response. Sessions live in memory until ended.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/automatic"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
	"github.com/domino14/blockglass/store"
)

var (
	ErrNoSession     = errors.New("no such session")
	ErrUnknownAction = errors.New("unknown action")
	ErrSessionExists = errors.New("session id belongs to another session")
)

type session struct {
	// NATS handlers run concurrently; a Game is not safe for concurrent use.
	mu     sync.Mutex
	game   *game.Game
	seed   [32]byte
	player *automatic.GreedyPlayer
	// owner is the adventure player name; empty in classic play.
	owner string
}

type Bot struct {
	config  *config.Config
	catalog *shape.Catalog
	store   *store.Store
	server  *automatic.Server

	mu       sync.Mutex
	sessions map[string]*session
}

// NewBot creates a bot. st may be nil, in which case finished games are
// not recorded.
func NewBot(cfg *config.Config, catalog *shape.Catalog, st *store.Store) *Bot {
	return &Bot{
		config:   cfg,
		catalog:  catalog,
		store:    st,
		server:   &automatic.Server{Config: cfg, Catalog: catalog},
		sessions: map[string]*session{},
	}
}

func errorResponse(message string, err error) Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return Response{Error: msg}
}

func (b *Bot) getSession(id string) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNoSession)
	}
	return s, nil
}

// NumSessions is the number of live sessions.
func (b *Bot) NumSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Bot) newSession(ctx context.Context, req Request) (*session, error) {
	seed := spawner.RandomSeed()
	if req.Seed != "" {
		var err error
		if seed, err = spawner.DecodeSeed(req.Seed); err != nil {
			return nil, err
		}
	}
	g, err := game.NewGame(b.config, b.catalog, spawner.NewSeededRNG(seed))
	if err != nil {
		return nil, err
	}
	if b.store != nil {
		hs, err := b.store.HighScore(ctx)
		if err != nil {
			log.Err(err).Msg("high-score-lookup")
		}
		g.SetBestScore(hs)
	}
	s := &session{game: g, seed: seed, player: automatic.NewGreedyPlayer()}
	if req.Adventure {
		s.owner = req.Player
		if s.owner == "" {
			s.owner = b.config.GetString(config.ConfigPlayerName)
		}
		level := 1
		if b.store != nil {
			if level, err = b.store.AdventureLevel(ctx, s.owner); err != nil {
				return nil, err
			}
		}
		g.StartAdventure(level)
	}
	b.mu.Lock()
	b.sessions[g.SessionID()] = s
	b.mu.Unlock()
	return s, nil
}

// Handle decodes one request and encodes its response.
func (b *Bot) Handle(ctx context.Context, data []byte) []byte {
	var req Request
	var resp Response
	if err := json.Unmarshal(data, &req); err != nil {
		resp = errorResponse("could not parse request", err)
	} else {
		resp = b.handle(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen; the response types are all plain data.
		out, _ = json.Marshal(errorResponse("could not encode response", err))
	}
	return out
}

func (b *Bot) handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionNew:
		s, err := b.newSession(ctx, req)
		if err != nil {
			return errorResponse("could not start session", err)
		}
		return s.stateResponse()
	case ActionAutoplay:
		if req.Autoplay == nil {
			return errorResponse("autoplay needs parameters", nil)
		}
		pr, err := b.server.Play(ctx, *req.Autoplay)
		if err != nil {
			return errorResponse("could not start autoplay", err)
		}
		return Response{Autoplay: &pr}
	case ActionEnd:
		return b.end(ctx, req.SessionID)
	}

	s, err := b.getSession(req.SessionID)
	if err != nil {
		return errorResponse("bad session", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp Response
	switch req.Action {
	case ActionState:
	case ActionQuery:
		if req.Anchor == nil {
			return errorResponse("query needs an anchor", nil)
		}
		valid := s.game.QueryValidity(*req.Anchor, req.Slot)
		return Response{SessionID: req.SessionID, Valid: &valid,
			Lines: s.game.CompletableLines(*req.Anchor, req.Slot)}
	case ActionPlace:
		if req.Anchor == nil {
			return errorResponse("place needs an anchor", nil)
		}
		res := s.game.AttemptPlace(*req.Anchor, req.Slot)
		resp.Place = &res
		if res.LevelUp {
			b.saveLevel(ctx, s)
		}
	case ActionPowerup:
		kind, ok := game.ParsePowerupKind(req.Powerup)
		if !ok {
			return errorResponse("unknown powerup "+req.Powerup, nil)
		}
		res := s.game.AttemptPowerup(kind, req.Anchor)
		resp.Powerup = &res
		if res.LevelUp {
			b.saveLevel(ctx, s)
		}
	case ActionUndo:
		ok := s.game.Undo()
		resp.Undone = &ok
	case ActionRestore:
		if req.State == nil {
			return errorResponse("restore needs a state", nil)
		}
		if err := b.restore(req.SessionID, s, *req.State); err != nil {
			return errorResponse("could not restore", err)
		}
	case ActionHint:
		a := s.player.ChooseAction(s.game)
		h := &Hint{Slot: a.Slot, Anchor: a.Anchor}
		switch a.Kind {
		case automatic.ActionPlace:
			h.Kind = "place"
		case automatic.ActionPowerup:
			h.Kind = "powerup"
			h.Powerup = a.Powerup.String()
		default:
			h.Kind = "none"
		}
		resp.Hint = h
	default:
		return errorResponse(req.Action, ErrUnknownAction)
	}
	st := s.stateResponse()
	st.Place, st.Powerup, st.Undone, st.Hint = resp.Place, resp.Powerup, resp.Undone, resp.Hint
	return st
}

// restore loads st into the session s, filed under id. A state carrying
// another session's ID is refused; a state carrying a new ID re-files s
// under it. b.mu is held throughout so that no other restore can claim the
// same ID in between. s.mu must be held.
func (b *Bot) restore(id string, s *session, st game.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if other, ok := b.sessions[st.SessionID]; ok && other != s {
		return fmt.Errorf("%q: %w", st.SessionID, ErrSessionExists)
	}
	if err := s.game.Restore(st); err != nil {
		return err
	}
	if newID := s.game.SessionID(); newID != id {
		delete(b.sessions, id)
		b.sessions[newID] = s
	}
	return nil
}

// saveLevel persists the level s has reached. s.mu must be held.
func (b *Bot) saveLevel(ctx context.Context, s *session) {
	adv, ok := s.game.Adventure()
	if !ok || b.store == nil || s.owner == "" {
		return
	}
	if err := b.store.SaveAdventureLevel(ctx, s.owner, adv.Level); err != nil {
		log.Err(err).Str("player", s.owner).Msg("save-adventure-level")
	}
}

// end drops the session, recording it if a store is attached.
func (b *Bot) end(ctx context.Context, id string) Response {
	b.mu.Lock()
	s, ok := b.sessions[id]
	delete(b.sessions, id)
	b.mu.Unlock()
	if !ok {
		return errorResponse("bad session", fmt.Errorf("%q: %w", id, ErrNoSession))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.store != nil && s.game.Placements() > 0 {
		rec := store.RecordFromGame(s.game, spawner.EncodeSeed(s.seed))
		if err := b.store.RecordGame(ctx, rec); err != nil {
			return errorResponse("could not record game", err)
		}
	}
	log.Info().Str("session", id).Int("score", s.game.Score()).Msg("session-ended")
	return s.stateResponse()
}

// stateResponse must be called with s.mu held, or before s is shared.
func (s *session) stateResponse() Response {
	st := s.game.CurrentState()
	return Response{
		SessionID: st.SessionID,
		Seed:      spawner.EncodeSeed(s.seed),
		State:     &st,
	}
}

// Main subscribes to channel and serves requests until ctx is done.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := nats.Connect(bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Drain()
	return Serve(ctx, nc, channel, bot)
}

// Serve answers requests on an existing connection until ctx is done.
func Serve(ctx context.Context, nc *nats.Conn, channel string, bot *Bot) error {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("bot-request")
		if err := m.Respond(bot.Handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("bot-respond")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", channel).Msg("listening")
	<-ctx.Done()
	return sub.Unsubscribe()
}
