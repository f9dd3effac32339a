// Package shell is an interactive command line for playing and inspecting
// block puzzle sessions, running autoplay batches, and scripting both
// with Lua.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"unicode"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/shape"
	"github.com/domino14/blockglass/spawner"
	"github.com/domino14/blockglass/store"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("no active game; start one with `new`")
	errAutoplayRunning   = errors.New("autoplay is running; `autoplay stop` first")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// ShellController holds the state of one interactive session.
type ShellController struct {
	l   *readline.Instance
	out io.Writer

	config  *config.Config
	catalog *shape.Catalog
	store   *store.Store
	aliases map[string]string

	game       *game.Game
	seed       [32]byte
	recorded   bool
	savedLevel int

	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// newController builds a controller that writes to out and has no
// terminal attached.
func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	catalog, err := shape.CatalogFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sc := &ShellController{
		out:     out,
		config:  cfg,
		catalog: catalog,
		aliases: cfg.GetStringMapString(config.ConfigAliases),
	}
	if sc.aliases == nil {
		sc.aliases = map[string]string{}
	}
	return sc, nil
}

func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc, err := newController(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mblockglass>\033[0m ",
		HistoryFile:     "/tmp/blockglass_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its positional arguments,
// and its -option value pairs. Quoting follows POSIX shell rules.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		f := fields[idx]
		if strings.HasPrefix(f, "-") && len(f) > 1 && !isNumber(f) {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := f[1:]
			options[key] = append(options[key], fields[idx+1])
			idx++
			continue
		}
		args = append(args, f)
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseCoord reads a cell name such as "c4": column letter, then 1-based
// row.
func parseCoord(s string) (board.Coord, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 || !unicode.IsLetter(rune(s[0])) {
		return board.Coord{}, fmt.Errorf("cannot parse coordinate %q", s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return board.Coord{}, fmt.Errorf("cannot parse coordinate %q: %w", s, err)
	}
	return board.Coord{Row: row - 1, Col: int(s[0] - 'a')}, nil
}

func coordName(c board.Coord) string {
	return fmt.Sprintf("%c%d", 'A'+c.Col, c.Row+1)
}

func (sc *ShellController) expandAlias(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return line
	}
	if exp, ok := sc.aliases[fields[0]]; ok {
		return strings.TrimSpace(exp + " " + strings.Join(fields[1:], " "))
	}
	return line
}

// Execute runs one command line and returns its output.
func (sc *ShellController) Execute(line string) (*Response, error) {
	cmd, err := extractFields(sc.expandAlias(line))
	if err != nil {
		return nil, err
	}
	return sc.dispatch(cmd)
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	log.Debug().Str("cmd", cmd.cmd).Strs("args", cmd.args).Msg("shell-command")
	switch cmd.cmd {
	case "new":
		return sc.newGame(cmd)
	case "adventure":
		return sc.adventure(cmd)
	case "s", "show":
		return sc.show(cmd)
	case "batch":
		return sc.batch(cmd)
	case "catalog":
		return sc.listCatalog(cmd)
	case "place", "p":
		return sc.place(cmd)
	case "preview":
		return sc.preview(cmd)
	case "bomb", "fill", "reroll", "roll":
		return sc.powerup(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "state":
		return sc.gameState(cmd)
	case "seed":
		return sc.showSeed(cmd)
	case "save":
		return sc.save(cmd)
	case "load":
		return sc.load(cmd)
	case "snapshots":
		return sc.snapshots(cmd)
	case "highscore", "stats":
		return sc.highscore(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "alias":
		return sc.alias(cmd)
	case "script":
		return sc.script(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "bye":
		return nil, errQuit
	}
	return nil, fmt.Errorf("unknown command %q; try `help`", cmd.cmd)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	defer sc.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.Execute(line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		} else if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}

// Close stops a running autoplay and closes the database.
func (sc *ShellController) Close() {
	if sc.autoplayCancel != nil {
		sc.autoplayCancel()
		<-sc.autoplayDone
	}
	if sc.store != nil {
		if err := sc.store.Close(); err != nil {
			log.Err(err).Msg("closing-store")
		}
		sc.store = nil
	}
}

func (sc *ShellController) getStore() (*store.Store, error) {
	if sc.store != nil {
		return sc.store, nil
	}
	st, err := store.Open(context.Background(), sc.config.GetString(config.ConfigDBPath))
	if err != nil {
		return nil, err
	}
	sc.store = st
	return st, nil
}

// startGame replaces the active game with a fresh one following seed.
func (sc *ShellController) startGame(seed [32]byte) error {
	g, err := game.NewGame(sc.config, sc.catalog, spawner.NewSeededRNG(seed))
	if err != nil {
		return err
	}
	if st, err := sc.getStore(); err == nil {
		if hs, err := st.HighScore(context.Background()); err == nil {
			g.SetBestScore(hs)
		}
	} else {
		log.Err(err).Msg("store-unavailable")
	}
	if sc.game != nil {
		g.SetBestScore(sc.game.BestScore())
	}
	sc.game = g
	sc.seed = seed
	sc.recorded = false
	sc.savedLevel = 0
	return nil
}

// afterMove saves a newly reached adventure level, and records a finished
// game once.
func (sc *ShellController) afterMove() string {
	out := sc.levelReached()
	if sc.game.Phase() != game.PhaseGameOver || sc.recorded {
		return out
	}
	sc.recorded = true
	st, err := sc.getStore()
	if err != nil {
		log.Err(err).Msg("store-unavailable")
		return out + "\nGame over."
	}
	rec := store.RecordFromGame(sc.game, spawner.EncodeSeed(sc.seed))
	if err := st.RecordGame(context.Background(), rec); err != nil {
		log.Err(err).Msg("record-game")
	}
	return out + fmt.Sprintf("\nGame over. Final score %d.", sc.game.Score())
}

func (sc *ShellController) levelReached() string {
	adv, ok := sc.game.Adventure()
	if !ok || adv.Level <= sc.savedLevel {
		return ""
	}
	sc.savedLevel = adv.Level
	st, err := sc.getStore()
	if err != nil {
		log.Err(err).Msg("store-unavailable")
	} else if err := st.SaveAdventureLevel(context.Background(),
		sc.config.GetString(config.ConfigPlayerName), adv.Level); err != nil {
		log.Err(err).Msg("save-adventure-level")
	}
	return fmt.Sprintf("\nLevel %d reached! Next goal: %d.", adv.Level, adv.Goal)
}
