package register

import "fmt"

// Column is one sub-column of the register: a (day, slot) pair plus the
// position of a concurrent class occurrence within that pair.
type Column struct {
	Day        string
	Slot       string
	SlotLabel  string
	Index      int
	Occurrence *ClassOccurrence
}

func (c Column) Key() string {
	return fmt.Sprintf("%s|%s|%d", c.Day, c.Slot, c.Index)
}

// SlotColumnCount is the number of sub-columns a (day, slot) pair occupies.
// A pair with nothing scheduled still gets one column so its header renders.
func SlotColumnCount(occurrences []*ClassOccurrence) int {
	if len(occurrences) < 1 {
		return 1
	}
	return len(occurrences)
}

// ExpandColumns flattens days × slots × occurrences into columns ordered by
// day, then slot, then occurrence index.
func ExpandColumns(days []Day, slots []Slot, classes map[string]map[string][]*ClassOccurrence) []Column {
	var columns []Column
	for _, d := range days {
		for _, s := range slots {
			list := classes[d.ISO][s.Code]
			n := SlotColumnCount(list)
			for i := 0; i < n; i++ {
				col := Column{
					Day:       d.ISO,
					Slot:      s.Code,
					SlotLabel: s.Label,
					Index:     i,
				}
				if i < len(list) {
					col.Occurrence = list[i]
				}
				columns = append(columns, col)
			}
		}
	}
	return columns
}

// DaySpans counts columns per day, for merging day header cells.
func DaySpans(columns []Column) map[string]int {
	spans := make(map[string]int)
	for _, c := range columns {
		spans[c.Day]++
	}
	return spans
}
