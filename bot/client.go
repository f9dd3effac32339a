package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
)

var ErrBotError = errors.New("bot returned an error")

// Client talks to a bot service over NATS.
type Client struct {
	nc       *nats.Conn
	channel  string
	Timeout  time.Duration
	Attempts uint
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel, Timeout: 10 * time.Second, Attempts: 3}
}

// readOnly actions are safe to resend after a timeout. Anything else is
// only resent when no responder was listening, since a timed out request
// may still have been applied.
func readOnly(action string) bool {
	switch action {
	case ActionState, ActionQuery, ActionHint:
		return true
	}
	return false
}

// Do sends req and waits for the response, retrying with backoff.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	var resp Response
	data, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	err = retry.Do(
		func() error {
			msg, err := c.nc.Request(c.channel, data, c.Timeout)
			if err != nil {
				return err
			}
			return json.Unmarshal(msg.Data, &resp)
		},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, nats.ErrNoResponders) {
				return true
			}
			return errors.Is(err, nats.ErrTimeout) && readOnly(req.Action)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("action", req.Action).Msg("bot-request-retry")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return resp, err
	}
	if resp.Error != "" {
		return resp, errors.Join(ErrBotError, errors.New(resp.Error))
	}
	return resp, nil
}

func (c *Client) NewGame(ctx context.Context, seed string) (Response, error) {
	return c.Do(ctx, Request{Action: ActionNew, Seed: seed})
}

func (c *Client) Place(ctx context.Context, sessionID string, slot int, anchor board.Coord) (Response, error) {
	return c.Do(ctx, Request{Action: ActionPlace, SessionID: sessionID, Slot: slot, Anchor: &anchor})
}

func (c *Client) Hint(ctx context.Context, sessionID string) (Response, error) {
	return c.Do(ctx, Request{Action: ActionHint, SessionID: sessionID})
}

func (c *Client) End(ctx context.Context, sessionID string) (Response, error) {
	return c.Do(ctx, Request{Action: ActionEnd, SessionID: sessionID})
}
