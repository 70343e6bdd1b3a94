package register

import (
	"errors"

	"github.com/tidwall/gjson"
)

var ErrInvalidPayload = errors.New("register payload is not valid JSON")

// DecodePayload reads a monthly register payload. Nested fields that are
// missing or have an unexpected JSON type decode as empty; only a body that is
// not JSON at all is rejected.
func DecodePayload(data []byte) (*Payload, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidPayload
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return &Payload{}, nil
	}

	p := &Payload{
		Days:    decodeDays(root.Get("days")),
		Slots:   decodeSlots(root.Get("slots")),
		Classes: make(map[string]map[string][]*ClassOccurrence),
		DayInfo: make(map[string]DayInfo),
		Legend:  make(map[string]string),
	}

	eachObject(root.Get("classes_by_date_slot"), func(day string, bySlot gjson.Result) {
		slots := make(map[string][]*ClassOccurrence)
		eachObject(bySlot, func(slot string, list gjson.Result) {
			slots[slot] = decodeOccurrences(list)
		})
		p.Classes[day] = slots
	})

	eachObject(root.Get("day_info_by_date"), func(day string, info gjson.Result) {
		if !info.IsObject() {
			return
		}
		p.DayInfo[day] = DayInfo{
			DayState:     text(info.Get("day_state")),
			Reason:       Named{Name: text(info.Get("reason.name"))},
			Observations: text(info.Get("observations")),
		}
	})

	for _, a := range arrayOf(root.Get("apprentices")) {
		if !a.IsObject() {
			continue
		}
		p.Apprentices = append(p.Apprentices, decodeApprentice(a))
	}

	eachObject(root.Get("legend"), func(code string, label gjson.Result) {
		if s := text(label); s != "" {
			p.Legend[code] = s
		}
	})

	if s := root.Get("summary"); s.IsObject() {
		if m, ok := s.Value().(map[string]any); ok {
			p.Summary = m
		}
	}

	return p, nil
}

func decodeDays(r gjson.Result) []string {
	var days []string
	for _, d := range arrayOf(r) {
		if d.Type == gjson.String && d.Str != "" {
			days = append(days, d.Str)
		}
	}
	return days
}

func decodeSlots(r gjson.Result) []Slot {
	var slots []Slot
	for _, s := range arrayOf(r) {
		code := text(s.Get("code"))
		if code == "" {
			continue
		}
		slots = append(slots, Slot{Code: code, Label: text(s.Get("label"))})
	}
	return slots
}

// decodeOccurrences keeps one entry per list element so marks stay aligned by
// index; elements that are not objects decode as nil.
func decodeOccurrences(r gjson.Result) []*ClassOccurrence {
	var out []*ClassOccurrence
	for _, o := range arrayOf(r) {
		if !o.IsObject() {
			out = append(out, nil)
			continue
		}
		out = append(out, &ClassOccurrence{
			ID:            o.Get("id").Int(),
			Date:          text(o.Get("date")),
			ExecutionDate: text(o.Get("execution_date")),
			RealStartHour: text(o.Get("real_start_hour")),
			RealEndHour:   text(o.Get("real_end_hour")),
			Instructor:    Person{FullName: text(o.Get("instructor.full_name"))},
			ClassType:     Named{Name: text(o.Get("class_type.name"))},
			Classroom:     Named{Name: text(o.Get("classroom.name"))},
			Observations:  text(o.Get("observations")),
		})
	}
	return out
}

func decodeApprentice(a gjson.Result) Apprentice {
	name := text(a.Get("full_name"))
	if name == "" {
		name = text(a.Get("name"))
	}
	out := Apprentice{
		ID:       a.Get("id").Int(),
		FullName: name,
		Marks:    make(map[string]map[string][]Mark),
	}
	eachObject(a.Get("marks_by_date_slot"), func(day string, bySlot gjson.Result) {
		slots := make(map[string][]Mark)
		eachObject(bySlot, func(slot string, list gjson.Result) {
			var marks []Mark
			for _, m := range arrayOf(list) {
				marks = append(marks, Mark{
					Status:       text(m.Get("status")),
					AbsentHours:  m.Get("absent_hours").Float(),
					Observations: text(m.Get("observations")),
				})
			}
			slots[slot] = marks
		})
		out.Marks[day] = slots
	})
	return out
}

// arrayOf returns the elements of r, or nil when r is not an array.
func arrayOf(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

func eachObject(r gjson.Result, fn func(key string, value gjson.Result)) {
	if !r.IsObject() {
		return
	}
	r.ForEach(func(k, v gjson.Result) bool {
		fn(k.String(), v)
		return true
	})
}

// text returns the scalar value of r as a string; objects, arrays and null
// read as empty.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	default:
		return ""
	}
}
