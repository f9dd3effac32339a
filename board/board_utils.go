package board

import (
	"fmt"
	"strings"
)

func (b *Board) ToDisplayText() string {
	var str strings.Builder
	str.WriteString("   ")
	for c := 0; c < b.cols; c++ {
		fmt.Fprintf(&str, "%c ", 'A'+c)
	}
	str.WriteString("\n")
	str.WriteString("   " + strings.Repeat("-", b.cols*2) + "\n")
	for r := 0; r < b.rows; r++ {
		fmt.Fprintf(&str, "%2d|", r+1)
		for c := 0; c < b.cols; c++ {
			str.WriteString(b.Get(r, c).DisplayString())
		}
		str.WriteString("|\n")
	}
	str.WriteString("   " + strings.Repeat("-", b.cols*2) + "\n")
	return "\n" + str.String()
}

// ToPlaintext writes one line per row: '.' for an empty cell, the color
// digit (or '#') for a filled one. It is the inverse of FromPlaintext.
func (b *Board) ToPlaintext() []string {
	lines := make([]string, b.rows)
	for r := 0; r < b.rows; r++ {
		var sb strings.Builder
		for c := 0; c < b.cols; c++ {
			cell := b.Get(r, c)
			if cell.IsEmpty() {
				sb.WriteByte('.')
			} else {
				sb.WriteString(plaintextRune(cell))
			}
		}
		lines[r] = sb.String()
	}
	return lines
}

// FromPlaintext builds a board from rows of text. '.' and ' ' are empty,
// digits 1-9 are filled with that color, anything else is filled with
// color 1. All rows must be the same length.
func FromPlaintext(desc []string) (*Board, error) {
	rows := make([]string, 0, len(desc))
	for _, d := range desc {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		rows = append(rows, d)
	}
	if len(rows) == 0 {
		return nil, ErrBadDimensions
	}
	b := NewBoard(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != b.cols {
			return nil, fmt.Errorf("row %d has length %d, expected %d: %w",
				r, len(row), b.cols, ErrDimensionMismatch)
		}
		for c, ch := range row {
			switch {
			case ch == '.' || ch == ' ':
			case ch >= '1' && ch <= '9':
				b.Set(r, c, Filled(uint8(ch-'0')))
			default:
				b.Set(r, c, Filled(1))
			}
		}
	}
	return b, nil
}

// MustFromPlaintext is FromPlaintext for fixed boards in tests and presets.
func MustFromPlaintext(desc string) *Board {
	b, err := FromPlaintext(strings.Split(desc, "\n"))
	if err != nil {
		panic(err)
	}
	return b
}
