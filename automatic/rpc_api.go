package automatic

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/shape"
)

// PlayRequest asks for a batch of automatic games in the background.
type PlayRequest struct {
	NumGames   int    `json:"num_games"`
	NumThreads int    `json:"num_threads"`
	OutputFile string `json:"output_file"`
}

type PlayResponse struct {
	Started    bool   `json:"started"`
	OutputFile string `json:"output_file"`
}

// Server starts autoplay runs on behalf of remote callers.
type Server struct {
	Config  *config.Config
	Catalog *shape.Catalog
}

// Play returns as soon as the games have been started. The run outlives
// the request, so it gets a fresh context.
func (s *Server) Play(ctx context.Context, req PlayRequest) (PlayResponse, error) {
	log.Info().Interface("req", req).Msg("autoplay-request")
	if IsPlaying.Value() > 0 {
		return PlayResponse{}, ErrAlreadyPlaying
	}
	opts := AutoplayOptions{
		NumGames:       req.NumGames,
		Threads:        req.NumThreads,
		OutputFilename: req.OutputFile,
	}
	if opts.Threads <= 0 {
		opts.Threads = s.Config.GetInt(config.ConfigAutoplayThreads)
	}
	if opts.OutputFilename == "" {
		opts.OutputFilename = s.Config.GetString(config.ConfigAutoplayLogPath)
	}
	go func() {
		if err := PlayAutoplayGames(context.Background(), s.Config, s.Catalog, opts); err != nil {
			log.Err(err).Msg("autoplay-failed")
		}
	}()
	return PlayResponse{Started: true, OutputFile: opts.OutputFilename}, nil
}
