package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderText writes the report as a header block followed by an aligned table.
func RenderText(w io.Writer, rep Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Tably report: %s\n", rep.Name)
	if rep.Position > 0 {
		fmt.Fprintf(&b, "Ranking position: #%d\n", rep.Position)
	} else {
		b.WriteString("Ranking position: -\n")
	}
	fmt.Fprintf(&b, "Tests taken:      %d\n", rep.TestsTaken)
	fmt.Fprintf(&b, "Best score:       %s\n", percentOrDash(rep.BestScore))
	fmt.Fprintf(&b, "Average score:    %s\n", percentOrDash(rep.AverageScore))
	fmt.Fprintf(&b, "Best time:        %s\n", secondsOrDash(rep.BestTime))
	fmt.Fprintf(&b, "Average time:     %s\n", secondsOrDash(rep.AverageTime))

	if len(rep.Rows) > 0 {
		b.WriteByte('\n')
		headers := []string{"Date", "Mode", "Tables", "Score", "Correct", "Time (s)"}
		rows := make([][]string, 0, len(rep.Rows))
		for _, row := range rep.Rows {
			rows = append(rows, []string{
				dateOrDash(row),
				modeOrDash(row),
				joinTables(row.Tables),
				strconv.Itoa(row.Score) + "%",
				fmt.Sprintf("%d/%d", row.Correct, row.Total),
				strconv.FormatFloat(row.Time, 'f', 1, 64),
			})
		}
		for _, line := range formatTable(headers, rows, map[int]bool{3: true, 4: true, 5: true}) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func percentOrDash(v *int) string {
	if v == nil {
		return "—"
	}
	return strconv.Itoa(*v) + "%"
}

func secondsOrDash(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + "s"
}

func dateOrDash(row Row) string {
	if row.Date.IsZero() {
		return "—"
	}
	return row.Date.Format("2006-01-02")
}

func modeOrDash(row Row) string {
	if row.Mode == "" {
		return "—"
	}
	return string(row.Mode)
}

func joinTables(tables []int) string {
	if len(tables) == 0 {
		return "—"
	}
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlignCols))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		if rightAlignCols[i] {
			b.WriteString(runewidth.FillLeft(cell, width))
		} else {
			b.WriteString(runewidth.FillRight(cell, width))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
