package register

import "time"

// Day describes one calendar day of the register header.
type Day struct {
	ISO    string
	Top    string // weekday abbreviation
	Bottom string // DD/MM
}

var weekdayAbbrev = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// DefaultSlots is used when the server sends no slots.
func DefaultSlots() []Slot {
	return []Slot{
		{Code: "am", Label: "Mañana"},
		{Code: "pm", Label: "Tarde"},
	}
}

func NormalizeSlots(raw []Slot) []Slot {
	if len(raw) == 0 {
		return DefaultSlots()
	}
	out := make([]Slot, len(raw))
	copy(out, raw)
	return out
}

// NormalizeDays parses each ISO date at local midnight so the labels never
// shift by a day across time zones. Unparseable dates keep their ISO string
// with empty labels.
func NormalizeDays(isos []string) []Day {
	days := make([]Day, 0, len(isos))
	for _, iso := range isos {
		days = append(days, newDay(iso))
	}
	return days
}

func newDay(iso string) Day {
	t, err := time.ParseInLocation("2006-01-02", iso, time.Local)
	if err != nil {
		return Day{ISO: iso}
	}
	return Day{
		ISO:    iso,
		Top:    weekdayAbbrev[t.Weekday()],
		Bottom: t.Format("02/01"),
	}
}
