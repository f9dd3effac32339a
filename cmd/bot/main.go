package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/bot"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/store"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := shape.CatalogFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading-catalog")
	}
	st, err := store.Open(ctx, cfg.GetString(config.ConfigDBPath))
	if err != nil {
		log.Fatal().Err(err).Msg("opening-store")
	}
	defer st.Close()

	b := bot.NewBot(cfg, catalog, st)
	if err := bot.Main(ctx, cfg.GetString(config.ConfigBotSubject), b); err != nil {
		log.Err(err).Msg("bot-exited")
	}
	log.Info().Msg("server gracefully shutting down")
}
