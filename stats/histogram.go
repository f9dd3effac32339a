package stats

import (
	"io"

	"github.com/aybabtme/uniplot/histogram"
)

// FprintHistogram draws a unicode histogram of values over bins buckets,
// with bars scaled to width characters.
func FprintHistogram(w io.Writer, values []float64, bins, width int) error {
	if len(values) == 0 {
		_, err := io.WriteString(w, "(no data)\n")
		return err
	}
	h := histogram.Hist(bins, values)
	return histogram.Fprint(w, h, histogram.Linear(width))
}
