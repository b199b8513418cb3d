package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/rackgrid/pkg/events"
	"github.com/mesh-intelligence/rackgrid/pkg/grid"
)

// fatih/color disables itself when stdout is not a terminal.
var (
	successColor  = color.New(color.FgGreen, color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	headerColor   = color.New(color.FgBlue, color.Bold)
	occupiedColor = color.New(color.FgCyan)
	emptyColor    = color.New(color.FgHiBlack)
	validColor    = color.New(color.FgGreen, color.Bold)
	invalidColor  = color.New(color.FgRed, color.Bold)
)

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	_, _ = warningColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

func printHeader(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable writes tab-separated rows through a tabwriter, trimming
// trailing spaces from each line.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderIndex draws a location: occupied slots show their label, empty
// slots a dot. Preview cells show + for a valid target and x for an
// invalid one. Unstructured locations are drawn as a numbered list.
func renderIndex(w io.Writer, idx *grid.Index, preview []events.Cell) {
	marks := make(map[int]bool, len(preview))
	for _, c := range preview {
		marks[c.Position] = c.Valid
	}

	shape := idx.Shape()
	if !shape.Bounded() {
		renderList(w, idx, marks)
		return
	}

	width := 1
	if last, err := idx.Label(shape.Size() - 1); err == nil {
		width = len(last)
	}
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			pos := r*shape.Cols + c
			text, clr := ".", emptyColor
			if _, ok := idx.At(pos); ok {
				text, _ = idx.Label(pos)
				clr = occupiedColor
			}
			if valid, ok := marks[pos]; ok {
				text, clr = "x", invalidColor
				if valid {
					text, clr = "+", validColor
				}
			}
			if c > 0 {
				fmt.Fprint(w, " ")
			}
			if c < shape.Cols-1 {
				text = fmt.Sprintf("%-*s", width, text)
			}
			_, _ = clr.Fprint(w, text)
		}
		fmt.Fprintln(w)
	}
}

func renderList(w io.Writer, idx *grid.Index, marks map[int]bool) {
	n := idx.Len()
	for pos := range marks {
		if pos+1 > n {
			n = pos + 1
		}
	}
	for pos := 0; pos < n; pos++ {
		line := "."
		clr := emptyColor
		if c, ok := idx.At(pos); ok {
			line = fmt.Sprintf("%s %s", shortID(c.ContainerID), c.Kind)
			clr = occupiedColor
		}
		if valid, ok := marks[pos]; ok {
			line, clr = "x", invalidColor
			if valid {
				line, clr = "+", validColor
			}
		}
		_, _ = clr.Fprintf(w, "%3d  %s\n", pos+1, line)
	}
}
