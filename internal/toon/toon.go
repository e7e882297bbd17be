// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// render reports: runs and thumbnail hit regions.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Report is the TOON view of one render.
type Report struct {
	Path    string
	Grid    model.PixelGrid
	Display [2]geometry.Dimension
	Runs    []model.Run
	Hits    []geometry.HitLine
}

// Encode converts a Report into TOON format. Runs are listed only when
// present; hits always get a section, possibly empty.
func Encode(r *Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("file: %s", encodeValue(r.Path)))
	parts = append(parts, fmt.Sprintf("image: %dx%d", r.Grid.ImageWidth(), r.Grid.ImageHeight()))
	parts = append(parts, fmt.Sprintf("grid: %dx%d", r.Grid.Columns, r.Grid.Rows))
	if r.Display[0].IsSet() || r.Display[1].IsSet() {
		parts = append(parts, fmt.Sprintf("display: %s", encodeValue(r.Display[0].String()+"x"+r.Display[1].String())))
	}

	if len(r.Runs) > 0 {
		parts = append(parts, EncodeRuns(r.Runs))
	}
	parts = append(parts, EncodeHits(r.Hits))

	return strings.Join(parts, "\n")
}

// EncodeRuns formats runs as a table.
func EncodeRuns(runs []model.Run) string {
	rows := make([][]string, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		rows = append(rows, []string{
			strconv.Itoa(run.Anchor),
			run.Category.String(),
			run.Color,
			run.Text,
		})
	}
	return formatTabular("runs", []string{"anchor", "category", "color", "text"}, rows)
}

// EncodeHits flattens hit lines into one row per region.
func EncodeHits(lines []geometry.HitLine) string {
	var rows [][]string
	for i := range lines {
		hl := &lines[i]
		for _, reg := range hl.Regions {
			rows = append(rows, []string{
				strconv.Itoa(hl.Line),
				formatFloat(reg.X),
				formatFloat(reg.Y),
				strconv.Itoa(reg.ScrollOffset),
				strconv.Itoa(reg.Anchor),
			})
		}
	}
	return formatTabular("hits", []string{"line", "x", "y", "scroll", "anchor"}, rows)
}

// BatchRow summarizes one rendered document. Status is "rendered",
// "cached" for a render cache hit, or "fresh" when the output on disk was
// newer than its inputs and was left alone.
type BatchRow struct {
	Document string
	Output   string
	Status   string
	Width    int
	Height   int
	Runs     int
	Coverage float64
}

// EncodeBatch formats a batch summary.
func EncodeBatch(root string, rows []BatchRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Document,
			r.Output,
			r.Status,
			strconv.Itoa(r.Width),
			strconv.Itoa(r.Height),
			strconv.Itoa(r.Runs),
			fmt.Sprintf("%.4f", r.Coverage),
		})
	}
	return fmt.Sprintf("root: %s\n", encodeValue(root)) +
		formatTabular("renders", []string{"document", "output", "status", "width", "height", "runs", "coverage"}, cells)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
