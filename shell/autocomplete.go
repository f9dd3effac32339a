package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/blockglass/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new":       {Options: []string{"-seed"}},
	"adventure": {Options: []string{"-seed"}},
	"state":     {Options: []string{"-format"}},
	"highscore": {Options: []string{"-top"}},
	"autoplay": {
		Options: []string{"-games", "-threads", "-file", "-seeds", "-record"},
		Args:    []string{"stop"},
	},
	"snapshots": {Args: []string{"delete"}},
	"setconfig": {
		Args: []string{
			config.ConfigRows, config.ConfigCols, config.ConfigBatchSize,
			config.ConfigUndoDepth, config.ConfigCatalogPath, config.ConfigSolverNodeLimit,
			config.ConfigRescueEnabled, config.ConfigBombRadius, config.ConfigDBPath,
			config.ConfigAutoplayThreads, config.ConfigLogLevel, config.ConfigPlayerName,
			config.ConfigAdventureBase, config.ConfigAdventureMult,
		},
	},
	"alias": {Args: []string{"set", "delete", "show", "list", "remove", "rm"}},
	"help":  {Args: []string{"autoplay", "alias", "script"}},
}

var commandNames = []string{
	"new", "adventure", "show", "s", "batch", "catalog", "place", "p", "preview", "bomb",
	"fill", "reroll", "roll", "undo", "u", "state", "seed", "save", "load",
	"snapshots", "highscore", "stats", "autoplay", "analyze", "setconfig",
	"alias", "script", "help", "exit",
}

var optionValues = map[string][]string{
	"format": {"yaml", "json"},
	"record": {"true", "false"},
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unbalanced quotes while typing
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = append(completions, commandNames...)
		for aliasName := range c.sc.aliases {
			completions = append(completions, aliasName)
		}
	} else {
		cmdName := fields[0]
		if aliasValue, isAlias := c.sc.aliases[cmdName]; isAlias {
			aliasFields, err := shellquote.Split(aliasValue)
			if err == nil && len(aliasFields) > 0 {
				cmdName = aliasFields[0]
			}
		}
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}
		if strings.HasPrefix(lastCompleteField, "-") {
			completions = optionValues[strings.TrimPrefix(lastCompleteField, "-")]
		}

		if completions == nil {
			if metadata, ok := commandMetadata[cmdName]; ok {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
