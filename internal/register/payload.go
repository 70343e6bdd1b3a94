package register

// Slot is a named time-of-day period classes are scheduled in.
type Slot struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type Person struct {
	FullName string `json:"full_name,omitempty"`
}

type Named struct {
	Name string `json:"name,omitempty"`
}

// ClassOccurrence is a real class session held on a date within a slot. In
// Payload.Classes a nil entry keeps the position of an unreadable occurrence.
type ClassOccurrence struct {
	ID            int64  `json:"id"`
	Date          string `json:"date,omitempty"`
	ExecutionDate string `json:"execution_date,omitempty"`
	RealStartHour string `json:"real_start_hour,omitempty"`
	RealEndHour   string `json:"real_end_hour,omitempty"`
	Instructor    Person `json:"instructor"`
	ClassType     Named  `json:"class_type"`
	Classroom     Named  `json:"classroom"`
	Observations  string `json:"observations,omitempty"`
}

// Mark is one apprentice's attendance record for one class occurrence.
type Mark struct {
	Status       string  `json:"status"`
	AbsentHours  float64 `json:"absent_hours,omitempty"`
	Observations string  `json:"observations,omitempty"`
}

type DayInfo struct {
	DayState     string `json:"day_state"`
	Reason       Named  `json:"reason"`
	Observations string `json:"observations,omitempty"`
}

type Apprentice struct {
	ID       int64                        `json:"id"`
	FullName string                       `json:"full_name"`
	Marks    map[string]map[string][]Mark `json:"marks_by_date_slot"`
}

// Payload is the monthly register as served by
// GET attendances/monthly_register.
type Payload struct {
	Days        []string                                `json:"days"`
	Slots       []Slot                                  `json:"slots,omitempty"`
	Classes     map[string]map[string][]*ClassOccurrence `json:"classes_by_date_slot"`
	DayInfo     map[string]DayInfo                      `json:"day_info_by_date"`
	Apprentices []Apprentice                            `json:"apprentices"`
	Legend      map[string]string                       `json:"legend,omitempty"`
	Summary     map[string]any                          `json:"summary,omitempty"`
}

func (a Apprentice) marksAt(day, slot string) []Mark {
	return a.Marks[day][slot]
}
