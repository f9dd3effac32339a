package shell

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/domino14/blockglass/board"
	"github.com/domino14/blockglass/game"
	"github.com/domino14/blockglass/spawner"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("blockglass_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaGame raises a Lua error if no game is active.
func luaGame(L *lua.LState) (*ShellController, *game.Game) {
	sc := getShell(L)
	if sc.game == nil {
		L.RaiseError("%s", errNoGame.Error())
	}
	return sc, sc.game
}

func luaCoord(L *lua.LState, n int) (*board.Coord, bool) {
	lv := L.Get(n)
	if lv == lua.LNil {
		return nil, true
	}
	c, err := parseCoord(lua.LVAsString(lv))
	if err != nil {
		log.Err(err).Msg("error-parsing-coord")
		return nil, false
	}
	return &c, true
}

func Exec(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.Execute(L.ToString(1))
	if err != nil {
		log.Err(err).Msg("error-executing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.String()))
	// return number of results pushed to stack.
	return 1
}

func New(L *lua.LState) int {
	sc := getShell(L)
	seed := spawner.RandomSeed()
	if s := L.OptString(1, ""); s != "" {
		var err error
		if seed, err = spawner.DecodeSeed(s); err != nil {
			L.RaiseError("bad seed: %v", err)
		}
	}
	if err := sc.startGame(seed); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func Place(L *lua.LState) int {
	sc, g := luaGame(L)
	slot := L.CheckInt(1)
	c, ok := luaCoord(L, 2)
	if !ok || c == nil {
		L.Push(lua.LFalse)
		return 1
	}
	res := g.AttemptPlace(*c, slot-1)
	sc.afterMove()
	L.Push(lua.LBool(res.Accepted))
	return 1
}

func Powerup(L *lua.LState) int {
	sc, g := luaGame(L)
	kind, ok := game.ParsePowerupKind(L.CheckString(1))
	if !ok {
		L.ArgError(1, "unknown powerup")
	}
	c, ok := luaCoord(L, 2)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	res := g.AttemptPowerup(kind, c)
	sc.afterMove()
	L.Push(lua.LBool(res.Accepted))
	return 1
}

func Score(L *lua.LState) int {
	_, g := luaGame(L)
	L.Push(lua.LNumber(g.Score()))
	return 1
}

func PhaseName(L *lua.LState) int {
	_, g := luaGame(L)
	L.Push(lua.LString(g.Phase().String()))
	return 1
}

func Batch(L *lua.LState) int {
	_, g := luaGame(L)
	tbl := L.NewTable()
	for i, p := range g.Batch() {
		if !p.Used {
			tbl.RawSetInt(i+1, lua.LString(p.Shape.Name))
		}
	}
	L.Push(tbl)
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("blockglass_shell", lsc)
	L.SetGlobal("blockglass_exec", L.NewFunction(Exec))
	L.SetGlobal("blockglass_new", L.NewFunction(New))
	L.SetGlobal("blockglass_place", L.NewFunction(Place))
	L.SetGlobal("blockglass_powerup", L.NewFunction(Powerup))
	L.SetGlobal("blockglass_score", L.NewFunction(Score))
	L.SetGlobal("blockglass_phase", L.NewFunction(PhaseName))
	L.SetGlobal("blockglass_batch", L.NewFunction(Batch))

	// Script arguments are visible as the global table arg.
	argt := L.NewTable()
	for i, a := range cmd.args[1:] {
		argt.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("arg", argt)

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("script-error")
		return nil, err
	}
	if L.GetTop() > 0 {
		return msg(strings.TrimSpace(L.Get(-1).String())), nil
	}
	return msg(""), nil
}
