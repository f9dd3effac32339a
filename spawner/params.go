package spawner

import "github.com/domino14/blockglass/config"

// Params tune batch generation. See the config keys of the same names.
type Params struct {
	SmallShapeMaxCells int
	TightEmptyCells    int
	TightSmallBias     float64
	SnugEmptyCells     int
	SnugSmallBias      float64
	Attempts           int
	NodeLimit          int
	MemoryFraction     float64
	SimulateClears     bool
	PaletteSize        int
	MaxHardPerBatch    int
	HardDifficulty     int
}

func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		SmallShapeMaxCells: cfg.GetInt(config.ConfigSmallShapeCells),
		TightEmptyCells:    cfg.GetInt(config.ConfigTightEmptyCells),
		TightSmallBias:     cfg.GetFloat64(config.ConfigTightSmallBias),
		SnugEmptyCells:     cfg.GetInt(config.ConfigSnugEmptyCells),
		SnugSmallBias:      cfg.GetFloat64(config.ConfigSnugSmallBias),
		Attempts:           cfg.GetInt(config.ConfigSpawnAttempts),
		NodeLimit:          cfg.GetInt(config.ConfigSolverNodeLimit),
		MemoryFraction:     cfg.GetFloat64(config.ConfigSolverMemFrac),
		SimulateClears:     cfg.GetBool(config.ConfigSimulateClears),
		PaletteSize:        cfg.GetInt(config.ConfigPaletteSize),
		MaxHardPerBatch:    cfg.GetInt(config.ConfigMaxHardPerBatch),
		HardDifficulty:     cfg.GetInt(config.ConfigHardDifficulty),
	}
}

// DefaultParams are the values of config.DefaultConfig.
func DefaultParams() Params {
	return ParamsFromConfig(config.DefaultConfig())
}

// smallBias is the probability that a pick comes from the small-shape pool,
// given how many empty cells the board has.
func (p Params) smallBias(emptyCells int) float64 {
	switch {
	case emptyCells < p.TightEmptyCells:
		return p.TightSmallBias
	case emptyCells < p.SnugEmptyCells:
		return p.SnugSmallBias
	}
	return 0
}

func (p Params) tight(emptyCells int) bool {
	return emptyCells < p.TightEmptyCells
}
