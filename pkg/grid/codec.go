package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// maxRowLetters bounds the row part of an alpha label so decoding cannot
// overflow.
const maxRowLetters = 6

// Encode returns the human-readable label of pos under scheme. Labels are
// 1-based: "A1" and "1-1" name position 0. For SchemeNone the label is the
// transient 1-based ordinal of the view index.
func Encode(pos int, scheme types.LabelingScheme, rows, cols int) (string, error) {
	switch scheme {
	case types.SchemeNone:
		if pos < 0 || (rows > 0 && cols > 0 && pos >= rows*cols) {
			return "", fmt.Errorf("%w: %d", types.ErrOutOfBounds, pos)
		}
		return strconv.Itoa(pos + 1), nil
	case types.SchemeAlpha, types.SchemeNum:
		if rows <= 0 || cols <= 0 || pos < 0 || pos >= rows*cols {
			return "", fmt.Errorf("%w: %d in %dx%d", types.ErrOutOfBounds, pos, rows, cols)
		}
		row, col := pos/cols, pos%cols
		if scheme == types.SchemeAlpha {
			return rowLetters(row) + strconv.Itoa(col+1), nil
		}
		return strconv.Itoa(row+1) + "-" + strconv.Itoa(col+1), nil
	default:
		return "", fmt.Errorf("%w: labeling scheme %q", types.ErrInvalidData, scheme)
	}
}

// Decode parses label under scheme and returns its position. It fails with
// ErrInvalidPositionFormat when the label is unparsable or names a slot
// outside the rows x cols grid.
func Decode(label string, scheme types.LabelingScheme, rows, cols int) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	bad := fmt.Errorf("%w: %q", types.ErrInvalidPositionFormat, label)

	var row, col int
	switch scheme {
	case types.SchemeNone:
		n, ok := parseOrdinal(s)
		if !ok {
			return 0, bad
		}
		pos := n - 1
		if rows > 0 && cols > 0 && pos >= rows*cols {
			return 0, bad
		}
		return pos, nil
	case types.SchemeAlpha:
		split := strings.IndexFunc(s, func(r rune) bool { return r < 'A' || r > 'Z' })
		if split <= 0 || split > maxRowLetters {
			return 0, bad
		}
		n, ok := parseOrdinal(s[split:])
		if !ok {
			return 0, bad
		}
		row, col = lettersRow(s[:split]), n-1
	case types.SchemeNum:
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return 0, bad
		}
		r, okRow := parseOrdinal(strings.TrimSpace(parts[0]))
		c, okCol := parseOrdinal(strings.TrimSpace(parts[1]))
		if !okRow || !okCol {
			return 0, bad
		}
		row, col = r-1, c-1
	default:
		return 0, bad
	}

	if row >= rows || col >= cols {
		return 0, bad
	}
	return row*cols + col, nil
}

// rowLetters renders a 0-based row as bijective base-26 letters:
// 0 -> "A", 25 -> "Z", 26 -> "AA".
func rowLetters(row int) string {
	var buf [16]byte
	i := len(buf)
	for n := row + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// lettersRow is the inverse of rowLetters. s must be upper-case A-Z.
func lettersRow(s string) int {
	n := 0
	for _, r := range s {
		n = n*26 + int(r-'A') + 1
	}
	return n - 1
}

// parseOrdinal parses a positive decimal without sign or spaces.
func parseOrdinal(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
