// Package calendar renders a month's class sessions as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/asistr/internal/register"
)

const productID = "-//asistr//Registro de asistencia//ES"

// Event is one entry of the feed.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Events collects the class occurrences of g, plus one all-day event per
// no-class day. Occurrences without parseable hours are skipped.
func Events(g *register.Grid, loc *time.Location) []Event {
	if loc == nil {
		loc = time.Local
	}

	var events []Event
	seen := make(map[string]bool)
	for _, col := range g.Columns {
		if info := g.DayInfo[col.Day]; register.IsNoClassDay(info) {
			if !seen[col.Day] {
				seen[col.Day] = true
				day, err := time.ParseInLocation("2006-01-02", col.Day, loc)
				if err != nil {
					continue
				}
				summary := "Sin clase"
				if info.Reason.Name != "" {
					summary = fmt.Sprintf("Sin clase (%s)", info.Reason.Name)
				}
				events = append(events, Event{
					UID:     fmt.Sprintf("%s-no-class@asistr", col.Day),
					Summary: summary,
					Start:   day,
					End:     day.AddDate(0, 0, 1),
					AllDay:  true,
				})
			}
			continue
		}

		occ := col.Occurrence
		if occ == nil {
			continue
		}
		start, okStart := parseHour(col.Day, occ.RealStartHour, loc)
		end, okEnd := parseHour(col.Day, occ.RealEndHour, loc)
		if !okStart || !okEnd || !end.After(start) {
			continue
		}

		summary := occ.ClassType.Name
		if summary == "" {
			summary = "Clase"
		}
		summary = fmt.Sprintf("%s — %s", summary, col.SlotLabel)

		var desc []string
		if occ.Instructor.FullName != "" {
			desc = append(desc, "Instructor: "+occ.Instructor.FullName)
		}
		if occ.Observations != "" {
			desc = append(desc, occ.Observations)
		}

		uid := fmt.Sprintf("%s-%s-%d@asistr", col.Day, col.Slot, col.Index)
		if occ.ID != 0 {
			uid = fmt.Sprintf("class-%d@asistr", occ.ID)
		}

		events = append(events, Event{
			UID:         uid,
			Summary:     summary,
			Description: strings.Join(desc, "\n"),
			Location:    occ.Classroom.Name,
			Start:       start,
			End:         end,
		})
	}
	return events
}

func parseHour(day, hour string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		t, err := time.ParseInLocation(layout, day+" "+strings.TrimSpace(hour), loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Write encodes events as a VCALENDAR.
func Write(w io.Writer, name string, events []Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for _, e := range events {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.UID)
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		ev.Props.SetText(ical.PropSummary, e.Summary)
		if e.AllDay {
			ev.Props.SetDate(ical.PropDateTimeStart, e.Start)
			ev.Props.SetDate(ical.PropDateTimeEnd, e.End)
		} else {
			ev.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
			ev.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
		}
		if e.Description != "" {
			ev.Props.SetText(ical.PropDescription, e.Description)
		}
		if e.Location != "" {
			ev.Props.SetText(ical.PropLocation, e.Location)
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}
