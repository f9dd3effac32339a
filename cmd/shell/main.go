package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/shell"
)

var (
	GitVersion string
)

//go:embed blockglass.txt
var banner string

// configArgs strips --config and its value out of the command line; the
// rest is a one-shot shell command.
func configArgs(args []string) ([]string, []string) {
	var cfgArgs, rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--config" && i+1 < len(args):
			cfgArgs = append(cfgArgs, a, args[i+1])
			i++
		case strings.HasPrefix(a, "--config="):
			cfgArgs = append(cfgArgs, a)
		default:
			rest = append(rest, a)
		}
	}
	return cfgArgs, rest
}

func main() {
	fmt.Println(banner)
	fmt.Println(GitVersion)

	cfgArgs, rest := configArgs(os.Args[1:])
	cfg := config.DefaultConfig()
	if err := cfg.Load(cfgArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level, err := zerolog.ParseLevel(cfg.GetString(config.ConfigLogLevel))
	if err != nil || cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Debug().Msg("debug logging is on")

	sc, err := shell.NewShellController(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start shell")
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	if line := strings.TrimSpace(strings.Join(rest, " ")); line == "" {
		go sc.Loop(sig)
	} else {
		resp, err := sc.Execute(line)
		if err != nil {
			log.Err(err).Msg("command-failed")
		} else {
			fmt.Println(resp)
		}
		sc.Close()
		sig <- syscall.SIGINT
	}

	<-idleConnsClosed
	log.Info().Msg("shell exiting")
}
