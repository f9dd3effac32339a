package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockglass/automatic"
	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/config"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/spawner"
)

type Response struct {
	message string
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.message
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	seed := spawner.RandomSeed()
	if s := cmd.options.String("seed"); s != "" {
		var err error
		if seed, err = spawner.DecodeSeed(s); err != nil {
			return nil, err
		}
	}
	if err := sc.startGame(seed); err != nil {
		return nil, err
	}
	return msg(sc.game.ToDisplayText()), nil
}

// adventure starts a new game in adventure play, at the given level or at
// the level the configured player has reached.
func (sc *ShellController) adventure(cmd *shellcmd) (*Response, error) {
	seed := spawner.RandomSeed()
	if s := cmd.options.String("seed"); s != "" {
		var err error
		if seed, err = spawner.DecodeSeed(s); err != nil {
			return nil, err
		}
	}
	level := 1
	switch len(cmd.args) {
	case 0:
		st, err := sc.getStore()
		if err != nil {
			return nil, err
		}
		level, err = st.AdventureLevel(context.Background(), sc.config.GetString(config.ConfigPlayerName))
		if err != nil {
			return nil, err
		}
	case 1:
		var err error
		level, err = strconv.Atoi(cmd.args[0])
		if err != nil || level < 1 {
			return nil, errors.New("usage: adventure [level]")
		}
	default:
		return nil, errors.New("usage: adventure [level]")
	}
	if err := sc.startGame(seed); err != nil {
		return nil, err
	}
	sc.game.StartAdventure(level)
	sc.savedLevel = level
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	var sb strings.Builder
	for i, p := range sc.game.Batch() {
		if p.Used {
			fmt.Fprintf(&sb, "%d: (placed)\n", i+1)
			continue
		}
		anchors := len(lo.Filter(sc.allCells(), func(c board.Coord, _ int) bool {
			return sc.game.QueryValidity(c, i)
		}))
		fmt.Fprintf(&sb, "%d: %s (%d cells, difficulty %d, %d legal anchors)\n%s\n",
			i+1, p.Shape.Name, p.Shape.CellCount(), p.Shape.Difficulty, anchors, p.Shape.Picture())
	}
	st := sc.game.SpawnStats()
	fmt.Fprintf(&sb, "dealt: %s after %d attempt(s), %d solver nodes",
		st.Outcome, st.Attempts, st.SolverNodes)
	return msg(sb.String()), nil
}

func (sc *ShellController) allCells() []board.Coord {
	b := sc.game.Board()
	cells := make([]board.Coord, 0, b.NumCells())
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			cells = append(cells, board.Coord{Row: r, Col: c})
		}
	}
	return cells
}

func (sc *ShellController) listCatalog(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	for _, s := range sc.catalog.Shapes() {
		fmt.Fprintf(&sb, "%2d %-12s cells %d  difficulty %d\n%s\n\n",
			s.ID, s.Name, s.CellCount(), s.Difficulty, s.Picture())
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// slotAndCoord parses "<slot> <coord>" with a 1-based slot.
func slotAndCoord(args []string) (int, board.Coord, error) {
	if len(args) != 2 {
		return 0, board.Coord{}, errors.New("usage: <slot> <coord>, e.g. 2 c4")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, board.Coord{}, err
	}
	c, err := parseCoord(args[1])
	return slot - 1, c, err
}

func (sc *ShellController) place(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	slot, anchor, err := slotAndCoord(cmd.args)
	if err != nil {
		return nil, err
	}
	res := sc.game.AttemptPlace(anchor, slot)
	if !res.Accepted {
		return nil, fmt.Errorf("piece %d does not fit at %s", slot+1, coordName(anchor))
	}
	out := sc.game.ToDisplayText()
	if res.LinesCleared > 0 {
		out += fmt.Sprintf("\nCleared %d line(s) for %d points.", res.LinesCleared, res.ScoreDelta)
	}
	if res.NewBatch {
		out += "\nNew batch dealt."
	}
	return msg(out + sc.afterMove()), nil
}

func (sc *ShellController) preview(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	slot, anchor, err := slotAndCoord(cmd.args)
	if err != nil {
		return nil, err
	}
	if !sc.game.QueryValidity(anchor, slot) {
		return msg("invalid"), nil
	}
	lines := sc.game.CompletableLines(anchor, slot)
	if len(lines) == 0 {
		return msg("valid, clears nothing"), nil
	}
	names := lo.Map(lines, func(l board.LineID, _ int) string { return l.String() })
	return msg("valid, clears " + strings.Join(names, ", ")), nil
}

func (sc *ShellController) powerup(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	kind, ok := game.ParsePowerupKind(cmd.cmd)
	if !ok {
		return nil, fmt.Errorf("unknown powerup %q", cmd.cmd)
	}
	var anchor *board.Coord
	if kind == game.PowerupBomb || kind == game.PowerupFill {
		if len(cmd.args) != 1 {
			return nil, fmt.Errorf("usage: %s <coord>", kind)
		}
		c, err := parseCoord(cmd.args[0])
		if err != nil {
			return nil, err
		}
		anchor = &c
	}
	res := sc.game.AttemptPowerup(kind, anchor)
	if !res.Accepted {
		return nil, fmt.Errorf("%s not allowed now (%d left)", kind, sc.game.Budgets().Get(kind))
	}
	out := sc.game.ToDisplayText() +
		fmt.Sprintf("\n%s: %d cell(s), %d line(s), %d points.",
			kind, res.CellsAffected, res.LinesCleared, res.ScoreDelta)
	return msg(out + sc.afterMove()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if !sc.game.Undo() {
		return nil, fmt.Errorf("nothing to undo (%d saved, %d undo(s) left)",
			sc.game.UndoDepth(), sc.game.Budgets().Undo)
	}
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) gameState(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	st := sc.game.CurrentState()
	var bts []byte
	var err error
	switch f := cmd.options.String("format"); f {
	case "", "yaml":
		bts, err = yaml.Marshal(st)
	case "json":
		bts, err = json.MarshalIndent(st, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(string(bts), "\n")), nil
}

func (sc *ShellController) showSeed(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return msg(spawner.EncodeSeed(sc.seed)), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: save <name>")
	}
	st, err := sc.getStore()
	if err != nil {
		return nil, err
	}
	if err := st.SaveSnapshot(context.Background(), cmd.args[0], sc.game.CurrentState()); err != nil {
		return nil, err
	}
	return msg("saved " + cmd.args[0]), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <name>")
	}
	st, err := sc.getStore()
	if err != nil {
		return nil, err
	}
	state, err := st.LoadSnapshot(context.Background(), cmd.args[0])
	if err != nil {
		return nil, err
	}
	if sc.game == nil {
		if err := sc.startGame(spawner.RandomSeed()); err != nil {
			return nil, err
		}
	}
	if err := sc.game.Restore(state); err != nil {
		return nil, err
	}
	sc.recorded = sc.game.Phase() == game.PhaseGameOver
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) snapshots(cmd *shellcmd) (*Response, error) {
	st, err := sc.getStore()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) == 2 && cmd.args[0] == "delete" {
		if err := st.DeleteSnapshot(context.Background(), cmd.args[1]); err != nil {
			return nil, err
		}
		return msg("deleted " + cmd.args[1]), nil
	}
	names, err := st.ListSnapshots(context.Background())
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return msg("No snapshots saved"), nil
	}
	return msg(strings.Join(names, "\n")), nil
}

func (sc *ShellController) highscore(cmd *shellcmd) (*Response, error) {
	st, err := sc.getStore()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	tot, err := st.Totals(ctx)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\nLines cleared: %d\nBest score: %d\nMean score: %.1f\n",
		tot.GamesPlayed, tot.LinesCleared, tot.BestScore, tot.MeanScore)
	n, err := cmd.options.IntDefault("top", 5)
	if err != nil {
		return nil, err
	}
	top, err := st.TopGames(ctx, n)
	if err != nil {
		return nil, err
	}
	for i, g := range top {
		fmt.Fprintf(&sb, "%2d. %6d  %3d lines  %s\n", i+1, g.Score, g.LinesCleared,
			g.FinishedAt.Format("2006-01-02 15:04"))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 1 && cmd.args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return nil, errors.New("autoplay is not running")
		}
		sc.autoplayCancel()
		<-sc.autoplayDone
		return msg("autoplay stopped"), nil
	}
	if sc.autoplayCancel != nil {
		select {
		case <-sc.autoplayDone:
		default:
			return nil, errAutoplayRunning
		}
	}
	games, err := cmd.options.IntDefault("games", 1000)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigAutoplayThreads))
	if err != nil {
		return nil, err
	}
	opts := automatic.AutoplayOptions{
		NumGames:       games,
		Threads:        threads,
		OutputFilename: cmd.options.String("file"),
	}
	if opts.OutputFilename == "" {
		opts.OutputFilename = sc.config.GetString(config.ConfigAutoplayLogPath)
	}
	if p := cmd.options.String("seeds"); p != "" {
		if opts.Seeds, err = automatic.LoadSeeds(p); err != nil {
			return nil, err
		}
	}
	if cmd.options.Bool("record") {
		if opts.Store, err = sc.getStore(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sc.autoplayCancel = cancel
	sc.autoplayDone = done
	go func() {
		defer close(done)
		if err := automatic.PlayAutoplayGames(ctx, sc.config, sc.catalog, opts); err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage("autoplay finished; `analyze " + opts.OutputFilename + "` to see results")
	}()
	return msg("autoplay started, logging to " + opts.OutputFilename), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	path := sc.config.GetString(config.ConfigAutoplayLogPath)
	if len(cmd.args) > 0 {
		path = cmd.args[0]
	}
	out, err := automatic.AnalyzeLogFile(path)
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	key, value := cmd.args[0], cmd.args[1]
	old := sc.config.Get(key)
	sc.config.Set(key, value)
	if err := sc.config.Validate(); err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set config %s to %s and saved to file; `new` to apply", key, value)), nil
}

func (sc *ShellController) alias(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 || cmd.args[0] == "list" {
		if len(sc.aliases) == 0 {
			return msg("No aliases defined"), nil
		}
		names := make([]string, 0, len(sc.aliases))
		for name := range sc.aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		var sb strings.Builder
		sb.WriteString("Defined aliases:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s = %s\n", name, sc.aliases[name])
		}
		return msg(strings.TrimRight(sb.String(), "\n")), nil
	}

	switch sub := cmd.args[0]; sub {
	case "set":
		if len(cmd.args) < 3 {
			return nil, errors.New("usage: alias set <name> <command>")
		}
		name := cmd.args[1]
		parts := cmd.args[2:]
		for opt, values := range cmd.options {
			for _, val := range values {
				parts = append(parts, "-"+opt, val)
			}
		}
		command := strings.Join(parts, " ")
		sc.aliases[name] = command
		if err := sc.saveAliases(); err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("Alias '%s' set to: %s", name, command)), nil

	case "delete", "remove", "rm":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: alias delete <name>")
		}
		name := cmd.args[1]
		if _, ok := sc.aliases[name]; !ok {
			return nil, fmt.Errorf("alias '%s' not found", name)
		}
		delete(sc.aliases, name)
		if err := sc.saveAliases(); err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("Alias '%s' deleted", name)), nil

	case "show":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: alias show <name>")
		}
		if command, ok := sc.aliases[cmd.args[1]]; ok {
			return msg(fmt.Sprintf("%s = %s", cmd.args[1], command)), nil
		}
		return nil, fmt.Errorf("alias '%s' not found", cmd.args[1])

	default:
		return nil, fmt.Errorf("unknown subcommand '%s'. Valid: set, delete, show, list", sub)
	}
}

func (sc *ShellController) saveAliases() error {
	sc.config.Set(config.ConfigAliases, sc.aliases)
	if err := sc.config.Write(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
