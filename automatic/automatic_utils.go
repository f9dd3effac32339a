package automatic

// Data collection for automatic games. Many independent games run across
// worker goroutines; every finished game becomes one CSV line.

import (
	"context"
	"errors"
	"expvar"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
	"github.com/domino14/blockglass/store"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

func init() {
	GamesCounter = expvar.NewInt("autoplayGames")
	IsPlaying = expvar.NewInt("autoplayIsPlaying")
}

// AutoplayOptions configures a batch of automatic games.
type AutoplayOptions struct {
	NumGames int
	Threads  int
	// OutputFilename receives the CSV log. Sampled games are dumped as YAML
	// documents into OutputFilename + ".games.yaml".
	OutputFilename string
	// Seeds, if given, fix the games to play; NumGames is then ignored.
	Seeds [][32]byte
	// Store, if non-nil, records every finished game.
	Store *store.Store
}

// PlayAutoplayGames plays out games until all are done or ctx is
// canceled. Cancellation is not reported as an error.
func PlayAutoplayGames(ctx context.Context, cfg *config.Config, catalog *shape.Catalog,
	opts AutoplayOptions) error {

	if IsPlaying.Value() > 0 {
		return ErrAlreadyPlaying
	}
	threads := max(1, opts.Threads)
	numGames := opts.NumGames
	if opts.Seeds != nil {
		numGames = len(opts.Seeds)
	}

	logfile, err := os.Create(opts.OutputFilename)
	if err != nil {
		return err
	}
	defer logfile.Close()
	dumpfile, err := os.Create(opts.OutputFilename + ".games.yaml")
	if err != nil {
		return err
	}
	defer dumpfile.Close()

	log.Info().Int("games", numGames).Int("threads", threads).Msg("starting-autoplay")
	GamesCounter.Set(0)

	jobs := make(chan [32]byte, 100)
	logChan := make(chan string, 100)
	gameChan := make(chan []byte, 10)

	// Writers keep draining their channels after a write error so that no
	// worker blocks on a send.
	writers := errgroup.Group{}
	writers.Go(func() error {
		_, werr := io.WriteString(logfile, logHeader)
		for msg := range logChan {
			if werr == nil {
				_, werr = io.WriteString(logfile, msg)
			}
		}
		log.Debug().Msg("autoplay-log-writer-exiting")
		return werr
	})
	writers.Go(func() error {
		var werr error
		for doc := range gameChan {
			if werr == nil {
				_, werr = io.WriteString(dumpfile, "---\n")
			}
			if werr == nil {
				_, werr = dumpfile.Write(doc)
			}
		}
		return werr
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < numGames; i++ {
			seed := spawner.RandomSeed()
			if opts.Seeds != nil {
				seed = opts.Seeds[i]
			}
			select {
			case jobs <- seed:
			case <-gctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return nil
			}
			if (i+1)%1000 == 0 {
				log.Info().Int("queued", i+1).Msg("autoplay-progress")
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		t := t
		g.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			r, err := NewGameRunner(logChan, gameChan, cfg, catalog)
			if err != nil {
				return err
			}
			for seed := range jobs {
				if err := r.Init(seed); err != nil {
					return err
				}
				res, err := r.PlayFull(gctx)
				if err != nil {
					return err
				}
				if opts.Store != nil {
					rec := store.RecordFromGame(r.Game(), res.Seed)
					if err := opts.Store.RecordGame(gctx, rec); err != nil {
						return err
					}
				}
				GamesCounter.Add(1)
			}
			log.Debug().Int("thread", t).Msg("autoplay-worker-exiting")
			return nil
		})
	}

	err = g.Wait()
	close(logChan)
	close(gameChan)
	if werr := writers.Wait(); werr != nil && err == nil {
		err = werr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info().Msg("autoplay-canceled")
		err = nil
	}
	log.Info().Int64("games", GamesCounter.Value()).Msg("autoplay-finished")
	return err
}
