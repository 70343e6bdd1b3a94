package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/christopherklint97/asistr/internal/register"
)

const (
	nameWidth = 24
	cellWidth = 6
)

// visibleColumns is how many register columns fit next to the name column.
func visibleColumns(width int) int {
	if width <= 0 {
		width = 80
	}
	n := (width - nameWidth - 1) / cellWidth
	if n < 1 {
		n = 1
	}
	return n
}

func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, w, ""), w)
}

func dayTop(d register.Day) string {
	if d.Top == "" {
		return d.ISO
	}
	return d.Top
}

func dayBottom(d register.Day) string {
	return d.Bottom
}

func dayLabel(d register.Day) string {
	if d.Top == "" {
		return d.ISO
	}
	return d.Top + " " + d.Bottom
}

// renderGrid draws the visible window [offset, offset+n) of the register.
func renderGrid(g *register.Grid, row, col, offset, n int) string {
	cols := g.Columns
	end := offset + n
	if end > len(cols) {
		end = len(cols)
	}
	if offset >= end {
		return dimStyle.Render("Sin columnas para este mes.")
	}
	window := cols[offset:end]

	days := make(map[string]register.Day, len(g.Days))
	for _, d := range g.Days {
		days[d.ISO] = d
	}
	groupSize := make(map[string]int)
	for _, c := range cols {
		groupSize[c.Day+"|"+c.Slot]++
	}

	var sb strings.Builder

	// day header, two lines merged over consecutive columns of the same day
	for _, part := range []func(register.Day) string{dayTop, dayBottom} {
		sb.WriteString(strings.Repeat(" ", nameWidth+1))
		for i := 0; i < len(window); {
			j := i
			for j < len(window) && window[j].Day == window[i].Day {
				j++
			}
			label := fit(part(days[window[i].Day]), (j-i)*cellWidth-1) + " "
			if register.IsNoClassDay(g.DayInfo[window[i].Day]) {
				sb.WriteString(dimStyle.Render(label))
			} else {
				sb.WriteString(headerStyle.Render(label))
			}
			i = j
		}
		sb.WriteString("\n")
	}

	// slot sub-header
	sb.WriteString(fit("Aprendiz", nameWidth) + " ")
	for _, c := range window {
		sb.WriteString(dimStyle.Render(fit(slotHeader(c, groupSize[c.Day+"|"+c.Slot]), cellWidth)))
	}
	sb.WriteString("\n")

	for r, gr := range g.Rows {
		name := gr.Apprentice.Name
		if gr.Apprentice.Initials != "" {
			name = gr.Apprentice.Initials + " " + name
		}
		line := fit(name, nameWidth)
		if r == row {
			line = headerStyle.Render(line)
		}
		sb.WriteString(line + " ")

		for i, cell := range gr.Cells[offset:end] {
			text := fit(" "+glyph(cell.Status.Code), cellWidth)
			if r == row && offset+i == col {
				sb.WriteString(selectedStyle.Render(text))
				continue
			}
			sb.WriteString(statusStyle(cell.Status.Code).Render(text))
		}
		sb.WriteString("\n")
	}

	if len(g.Rows) == 0 {
		sb.WriteString(dimStyle.Render("La ficha no tiene aprendices."))
		sb.WriteString("\n")
	}

	return sb.String()
}

// slotHeader abbreviates the slot label, numbering concurrent classes.
func slotHeader(c register.Column, groupSize int) string {
	label := c.SlotLabel
	if label == "" {
		label = c.Slot
	}
	abbrev := strings.ToUpper(runewidth.Truncate(label, 1, ""))
	if groupSize > 1 {
		return fmt.Sprintf("%s%d", abbrev, c.Index+1)
	}
	return abbrev
}

func renderDetail(g *register.Grid, row, col int) string {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Columns) {
		return ""
	}
	r := g.Rows[row]
	cell := r.Cells[col]
	c := g.Columns[col]

	var sb strings.Builder
	day := ""
	for _, d := range g.Days {
		if d.ISO == c.Day {
			day = dayLabel(d)
			break
		}
	}
	fmt.Fprintf(&sb, "%s — %s · %s #%d\n", headerStyle.Render(r.Apprentice.Name), day, g.SlotLabel(c.Slot), c.Index+1)

	info := cell.ClassInfo
	if info == nil {
		fmt.Fprintf(&sb, "Estado: %s\n", cell.Status.Label)
		sb.WriteString(dimStyle.Render("Sin clase programada en esta franja."))
		return boxStyle.Render(sb.String())
	}

	fmt.Fprintf(&sb, "Estado: %s\n", info.StatusLabel)
	fmt.Fprintf(&sb, "Fecha: %s  Jornada: %s  Horario: %s – %s\n", info.Date, info.Shift, info.Start, info.End)
	fmt.Fprintf(&sb, "Instructor: %s  Tipo: %s  Ambiente: %s\n", info.Instructor, info.ClassType, info.Classroom)
	fmt.Fprintf(&sb, "Horas de inasistencia: %s\n", info.AbsentHours)
	fmt.Fprintf(&sb, "Observaciones: %s", info.Observations)
	return boxStyle.Render(sb.String())
}

func renderLegend(g *register.Grid) string {
	parts := make([]string, 0, len(register.StatusCodes))
	for _, code := range register.StatusCodes {
		parts = append(parts, statusStyle(code).Render(glyph(code))+" "+g.LegendLabel(code))
	}
	return strings.Join(parts, "  ")
}

func renderSummary(summary map[string]any) string {
	if len(summary) == 0 {
		return ""
	}
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := summary[k]
		if _, nested := v.(map[string]any); nested {
			continue
		}
		if _, list := v.([]any); list {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(parts, " · ")
}

// RenderPlain draws the whole register without interaction, wrapping the
// columns into as many bands as the width requires.
func RenderPlain(g *register.Grid, width int) string {
	n := visibleColumns(width)
	var sb strings.Builder
	for offset := 0; offset < len(g.Columns); offset += n {
		sb.WriteString(renderGrid(g, -1, -1, offset, n))
		sb.WriteString("\n")
	}
	if len(g.Columns) == 0 {
		sb.WriteString(renderGrid(g, -1, -1, 0, n))
		sb.WriteString("\n")
	}
	sb.WriteString(renderLegend(g))
	if s := renderSummary(g.Summary); s != "" {
		sb.WriteString("\n" + s)
	}
	sb.WriteString("\n")
	return sb.String()
}
