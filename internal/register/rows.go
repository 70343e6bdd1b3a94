package register

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type ApprenticeRef struct {
	ID       int64
	Name     string
	Initials string
}

// Row holds one apprentice's cells, aligned 1:1 with the grid columns.
type Row struct {
	Apprentice ApprenticeRef
	Cells      []Cell
}

// Initials takes the first letter of the first two name tokens, uppercased.
func Initials(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	var b strings.Builder
	for _, t := range tokens {
		r, _ := utf8.DecodeRuneInString(t)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func BuildRows(apprentices []Apprentice, columns []Column, dayInfo map[string]DayInfo, legend map[string]string) []Row {
	rows := make([]Row, 0, len(apprentices))
	for _, a := range apprentices {
		cells := make([]Cell, 0, len(columns))
		for _, col := range columns {
			cells = append(cells, BuildCell(col, a.marksAt(col.Day, col.Slot), dayInfo[col.Day], legend))
		}
		rows = append(rows, Row{
			Apprentice: ApprenticeRef{
				ID:       a.ID,
				Name:     a.FullName,
				Initials: Initials(a.FullName),
			},
			Cells: cells,
		})
	}
	return rows
}
