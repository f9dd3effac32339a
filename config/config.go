// Package config holds the engine and tool configuration. It is a thin layer
// over viper: defaults, an optional YAML config file, and BLOCKGLASS_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigRows             = "rows"
	ConfigCols             = "cols"
	ConfigBatchSize        = "batch-size"
	ConfigUndoDepth        = "undo-depth"
	ConfigCatalogPath      = "catalog-path"
	ConfigPaletteSize      = "palette-size"
	ConfigSmallShapeCells  = "small-shape-max-cells"
	ConfigTightEmptyCells  = "tight-empty-cells"
	ConfigTightSmallBias   = "tight-small-bias"
	ConfigSnugEmptyCells   = "snug-empty-cells"
	ConfigSnugSmallBias    = "snug-small-bias"
	ConfigSpawnAttempts    = "spawn-attempts"
	ConfigSolverNodeLimit  = "solver-node-limit"
	ConfigSolverMemFrac    = "solver-memory-fraction"
	ConfigSimulateClears   = "simulate-clears"
	ConfigMaxHardPerBatch  = "max-hard-per-batch"
	ConfigHardDifficulty   = "hard-shape-min-difficulty"
	ConfigRescueEnabled    = "rescue-enabled"
	ConfigRescueCells      = "rescue-cells"
	ConfigBombRadius       = "bomb-radius"
	ConfigBombBudget       = "bomb-budget"
	ConfigFillBudget       = "fill-budget"
	ConfigRerollBudget     = "reroll-budget"
	ConfigUndoBudget       = "undo-budget"
	ConfigPointsPerCell    = "points-per-cell"
	ConfigPointsPerLine    = "points-per-line"
	ConfigAdventureBase    = "adventure-goal-base"
	ConfigAdventureMult    = "adventure-goal-multiplier"
	ConfigPlayerName       = "player-name"
	ConfigDBPath           = "db-path"
	ConfigNatsURL          = "nats-url"
	ConfigBotSubject       = "bot-subject"
	ConfigAutoplayLogPath  = "autoplay-log-path"
	ConfigAutoplayThreads  = "autoplay-threads"
	ConfigAutoplayMaxTurns = "autoplay-max-turns"
	ConfigAutoplayDumpMod  = "autoplay-dump-modulus"
	ConfigDebug            = "debug"
	ConfigLogLevel         = "log-level"
	ConfigDataPath         = "data-path"
	ConfigAliases          = "aliases"
	ConfigConfigFile       = "config"
	defaultConfigFileName  = "blockglass.yaml"
	envPrefix              = "BLOCKGLASS"
	defaultSolverMemoryPct = 0.005
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config with every default set and nothing read from
// the environment or the filesystem. Tests use this.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigRows, 8)
	c.SetDefault(ConfigCols, 8)
	c.SetDefault(ConfigBatchSize, 3)
	c.SetDefault(ConfigUndoDepth, 5)
	c.SetDefault(ConfigCatalogPath, "")
	c.SetDefault(ConfigPaletteSize, 7)
	c.SetDefault(ConfigSmallShapeCells, 3)
	c.SetDefault(ConfigTightEmptyCells, 12)
	c.SetDefault(ConfigTightSmallBias, 0.8)
	c.SetDefault(ConfigSnugEmptyCells, 20)
	c.SetDefault(ConfigSnugSmallBias, 0.5)
	c.SetDefault(ConfigSpawnAttempts, 200)
	c.SetDefault(ConfigSolverNodeLimit, 20000)
	c.SetDefault(ConfigSolverMemFrac, defaultSolverMemoryPct)
	c.SetDefault(ConfigSimulateClears, true)
	c.SetDefault(ConfigMaxHardPerBatch, 1)
	c.SetDefault(ConfigHardDifficulty, 7)
	c.SetDefault(ConfigRescueEnabled, true)
	c.SetDefault(ConfigRescueCells, 16)
	c.SetDefault(ConfigBombRadius, 2)
	c.SetDefault(ConfigBombBudget, 2)
	c.SetDefault(ConfigFillBudget, 2)
	c.SetDefault(ConfigRerollBudget, 2)
	c.SetDefault(ConfigUndoBudget, 2)
	c.SetDefault(ConfigPointsPerCell, 3)
	c.SetDefault(ConfigPointsPerLine, 100)
	c.SetDefault(ConfigAdventureBase, 500)
	c.SetDefault(ConfigAdventureMult, 1.5)
	c.SetDefault(ConfigPlayerName, "player")
	c.SetDefault(ConfigDBPath, "./data/blockglass.db")
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigBotSubject, "blockglass.bot")
	c.SetDefault(ConfigAutoplayLogPath, "/tmp/autoplay.txt")
	c.SetDefault(ConfigAutoplayThreads, 4)
	c.SetDefault(ConfigAutoplayMaxTurns, 5000)
	c.SetDefault(ConfigAutoplayDumpMod, 100)
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigLogLevel, "info")
	c.SetDefault(ConfigDataPath, "./data")
	c.SetDefault(ConfigAliases, map[string]string{})
}

// Load reads the config file named by a --config argument (or
// blockglass.yaml in the data path, if present) and the environment.
func (c *Config) Load(args []string) error {
	c.setDefaults()
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	cfgFile := ""
	for i, a := range args {
		if a == "--"+ConfigConfigFile && i+1 < len(args) {
			cfgFile = args[i+1]
		} else if strings.HasPrefix(a, "--"+ConfigConfigFile+"=") {
			cfgFile = strings.TrimPrefix(a, "--"+ConfigConfigFile+"=")
		}
	}
	if cfgFile == "" {
		candidate := filepath.Join(c.GetString(ConfigDataPath), defaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			cfgFile = candidate
		}
	}
	if cfgFile != "" {
		c.SetConfigFile(cfgFile)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}
	return c.Validate()
}

// Write persists the current settings to the config file in use, or to
// blockglass.yaml in the data path.
func (c *Config) Write() error {
	if c.ConfigFileUsed() != "" {
		return c.WriteConfig()
	}
	dir := c.GetString(ConfigDataPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return c.WriteConfigAs(filepath.Join(dir, defaultConfigFileName))
}

// Validate checks ranges that the engine depends on.
func (c *Config) Validate() error {
	checks := []struct {
		key string
		min int
	}{
		{ConfigRows, 1},
		{ConfigCols, 1},
		{ConfigBatchSize, 1},
		{ConfigUndoDepth, 0},
		{ConfigPaletteSize, 1},
		{ConfigSpawnAttempts, 0},
		{ConfigSolverNodeLimit, 1},
		{ConfigMaxHardPerBatch, 0},
		{ConfigRescueCells, 0},
		{ConfigBombRadius, 0},
		{ConfigBombBudget, 0},
		{ConfigFillBudget, 0},
		{ConfigRerollBudget, 0},
		{ConfigUndoBudget, 0},
		{ConfigAdventureBase, 1},
	}
	for _, ch := range checks {
		if v := c.GetInt(ch.key); v < ch.min {
			return fmt.Errorf("%s must be at least %d, got %d: %w", ch.key, ch.min, v, ErrInvalidConfig)
		}
	}
	if c.GetInt(ConfigPaletteSize) > 255 {
		return fmt.Errorf("%s must be at most 255: %w", ConfigPaletteSize, ErrInvalidConfig)
	}
	for _, key := range []string{ConfigTightSmallBias, ConfigSnugSmallBias} {
		if v := c.GetFloat64(key); v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v: %w", key, v, ErrInvalidConfig)
		}
	}
	if v := c.GetFloat64(ConfigAdventureMult); v < 1 {
		return fmt.Errorf("%s must be at least 1, got %v: %w", ConfigAdventureMult, v, ErrInvalidConfig)
	}
	if v := c.GetFloat64(ConfigSolverMemFrac); v <= 0 || v > 0.5 {
		return fmt.Errorf("%s must be in (0, 0.5], got %v: %w", ConfigSolverMemFrac, v, ErrInvalidConfig)
	}
	return nil
}
