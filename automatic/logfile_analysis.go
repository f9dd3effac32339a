package automatic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/domino14/blockglass/stats"
)

var ErrBadLogFile = errors.New("not an autoplay log file")

// AnalyzeLogFile analyzes the given autoplay CSV file and spits out a bunch
// of statistics, with a histogram of final scores.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return analyzeLog(file)
}

func analyzeLog(rd io.Reader) (string, error) {
	r := csv.NewReader(rd)
	header, err := r.Read()
	if err == io.EOF {
		return "", ErrBadLogFile
	} else if err != nil {
		return "", err
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[h] = i
	}
	for _, need := range []string{"score", "lines", "placements", "batches", "rescued",
		"verified", "fallback", "nofit", "gameover"} {
		if _, ok := cols[need]; !ok {
			return "", fmt.Errorf("missing column %q: %w", need, ErrBadLogFile)
		}
	}

	scoreStats := &stats.Statistic{}
	lineStats := &stats.Statistic{}
	placementStats := &stats.Statistic{}
	var scores []float64
	var rescued, gameOvers, verified, fallback, nofit int

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		num := func(col string) (int, error) {
			return strconv.Atoi(record[cols[col]])
		}
		score, err := num("score")
		if err != nil {
			return "", err
		}
		lines, err := num("lines")
		if err != nil {
			return "", err
		}
		placements, err := num("placements")
		if err != nil {
			return "", err
		}
		counts := [3]int{}
		for i, col := range []string{"verified", "fallback", "nofit"} {
			if counts[i], err = num(col); err != nil {
				return "", err
			}
		}
		verified += counts[0]
		fallback += counts[1]
		nofit += counts[2]
		if record[cols["rescued"]] == "true" {
			rescued++
		}
		if record[cols["gameover"]] == "true" {
			gameOvers++
		}
		scoreStats.Push(float64(score))
		lineStats.Push(float64(lines))
		placementStats.Push(float64(placements))
		scores = append(scores, float64(score))
	}

	gamesPlayed := scoreStats.Iterations()
	if gamesPlayed == 0 {
		return "Games played: 0\n", nil
	}
	pct := func(n, d int) float64 {
		if d == 0 {
			return 0
		}
		return 100.0 * float64(n) / float64(d)
	}
	batches := verified + fallback + nofit

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d (%d ended in game over)\n", gamesPlayed, gameOvers)
	fmt.Fprintf(&sb, "Mean score: %.3f ± %.3f (95%%)  Stdev: %.3f  Min: %.0f  Max: %.0f\n",
		scoreStats.Mean(), scoreStats.ConfidenceInterval(95), scoreStats.Stdev(),
		scoreStats.Min(), scoreStats.Max())
	fmt.Fprintf(&sb, "Mean lines cleared: %.3f  Stdev: %.3f\n", lineStats.Mean(), lineStats.Stdev())
	fmt.Fprintf(&sb, "Mean placements: %.3f  Stdev: %.3f\n", placementStats.Mean(), placementStats.Stdev())
	fmt.Fprintf(&sb, "Rescue used: %d (%.3f%%)\n", rescued, pct(rescued, gamesPlayed))
	fmt.Fprintf(&sb, "Batches dealt: %d  verified: %.3f%%  fallback: %.3f%%  no-fit: %.3f%%\n",
		batches, pct(verified, batches), pct(fallback, batches), pct(nofit, batches))
	sb.WriteString("\nScore distribution:\n")
	if err := stats.FprintHistogram(&sb, scores, 10, 40); err != nil {
		return "", err
	}
	return sb.String(), nil
}
