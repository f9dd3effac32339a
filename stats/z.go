package stats

import "gonum.org/v1/gonum/stat/distuv"

var standardNormal = distuv.UnitNormal

// ZVal returns the two-tailed z value for a confidence level given in
// percent, e.g. 1.96 for 95. Levels outside (0, 100) give 0.
func ZVal(pct float64) float64 {
	if pct <= 0 || pct >= 100 {
		return 0
	}
	return standardNormal.Quantile((1 + pct/100) / 2)
}
