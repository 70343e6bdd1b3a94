package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/christopherklint97/asistr/internal/register"
)

const payload = `{
  "days": ["2026-02-02", "2026-02-03"],
  "slots": [{"code": "am", "label": "Mañana"}],
  "classes_by_date_slot": {
    "2026-02-02": {"am": [
      {"id": 11, "real_start_hour": "07:00:00", "real_end_hour": "09:00:00",
       "instructor": {"full_name": "Laura Gómez"}, "class_type": {"name": "Teórica"}, "classroom": {"name": "A-101"}},
      {"id": 12, "real_start_hour": "09:00", "real_end_hour": "11:00"},
      {"id": 13, "real_start_hour": "", "real_end_hour": ""}
    ]},
    "2026-02-03": {"am": [{"id": 14, "real_start_hour": "07:00", "real_end_hour": "09:00"}]}
  },
  "day_info_by_date": {"2026-02-03": {"day_state": "no_class_day", "reason": {"name": "Feriado"}}},
  "apprentices": []
}`

func testGrid(t *testing.T) *register.Grid {
	t.Helper()
	p, err := register.DecodePayload([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	return register.Build(p)
}

func TestEvents(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	events := Events(testGrid(t), bogota)

	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3: %+v", len(events), events)
	}

	first := events[0]
	if first.UID != "class-11@asistr" {
		t.Errorf("UID = %q", first.UID)
	}
	if first.Summary != "Teórica — Mañana" || first.Location != "A-101" {
		t.Errorf("first = %+v", first)
	}
	if !first.Start.Equal(time.Date(2026, 2, 2, 7, 0, 0, 0, bogota)) {
		t.Errorf("Start = %v", first.Start)
	}
	if !strings.Contains(first.Description, "Laura Gómez") {
		t.Errorf("Description = %q", first.Description)
	}

	if events[1].Summary != "Clase — Mañana" {
		t.Errorf("second summary = %q", events[1].Summary)
	}

	holiday := events[2]
	if !holiday.AllDay || holiday.Summary != "Sin clase (Feriado)" {
		t.Errorf("holiday = %+v", holiday)
	}
	if !holiday.End.Equal(holiday.Start.AddDate(0, 0, 1)) {
		t.Errorf("holiday spans %v to %v", holiday.Start, holiday.End)
	}
}

func TestWrite(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := Write(&buf, "Ficha 2558104", Events(testGrid(t), time.UTC), now); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + productID,
		"X-WR-CALNAME:Ficha 2558104",
		"UID:class-11@asistr",
		"DTSTART:20260202T070000Z",
		"DTSTART;VALUE=DATE:20260203",
		"LOCATION:A-101",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("VEVENT count = %d, want 3", n)
	}
}
