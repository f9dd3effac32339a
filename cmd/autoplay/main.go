package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/automatic"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/store"
)

var (
	configFile = flag.String("config", "", "config file")
	numGames   = flag.Int("games", 1000, "number of games to play")
	threads    = flag.Int("threads", 0, "worker goroutines (default: autoplay-threads)")
	outFile    = flag.String("file", "", "CSV log file (default: autoplay-log-path)")
	seedFile   = flag.String("seeds", "", "play the seeds in this file instead of random ones")
	genSeeds   = flag.Int("gen-seeds", 0, "write this many random seeds to -seeds and exit")
	record     = flag.Bool("record", false, "record every game in the database")
	analyze    = flag.Bool("analyze", true, "print an analysis of the log when done")
)

func main() {
	flag.Parse()
	var cfgArgs []string
	if *configFile != "" {
		cfgArgs = []string{"--config", *configFile}
	}
	cfg := config.DefaultConfig()
	if err := cfg.Load(cfgArgs); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *genSeeds > 0 {
		if *seedFile == "" {
			log.Fatal().Msg("-gen-seeds needs -seeds")
		}
		if err := automatic.SaveSeeds(automatic.GenerateSeeds(*genSeeds), *seedFile); err != nil {
			log.Fatal().Err(err).Msg("saving-seeds")
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := shape.CatalogFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading-catalog")
	}
	opts := automatic.AutoplayOptions{
		NumGames:       *numGames,
		Threads:        *threads,
		OutputFilename: *outFile,
	}
	if opts.Threads <= 0 {
		opts.Threads = cfg.GetInt(config.ConfigAutoplayThreads)
	}
	if opts.OutputFilename == "" {
		opts.OutputFilename = cfg.GetString(config.ConfigAutoplayLogPath)
	}
	if *seedFile != "" {
		if opts.Seeds, err = automatic.LoadSeeds(*seedFile); err != nil {
			log.Fatal().Err(err).Msg("loading-seeds")
		}
	}
	if *record {
		st, err := store.Open(ctx, cfg.GetString(config.ConfigDBPath))
		if err != nil {
			log.Fatal().Err(err).Msg("opening-store")
		}
		defer st.Close()
		opts.Store = st
	}

	if err := automatic.PlayAutoplayGames(ctx, cfg, catalog, opts); err != nil {
		log.Err(err).Msg("autoplay-failed")
		return
	}
	if *analyze {
		out, err := automatic.AnalyzeLogFile(opts.OutputFilename)
		if err != nil {
			log.Err(err).Msg("analyze-failed")
			return
		}
		fmt.Fprintln(os.Stdout, out)
	}
}
