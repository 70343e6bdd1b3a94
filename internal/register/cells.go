package register

import (
	"fmt"
	"strconv"
)

const (
	StatusPresent      = "present"
	StatusAbsent       = "absent"
	StatusLate         = "late"
	StatusExcused      = "excused_absence"
	StatusEarlyExit    = "early_exit"
	StatusUnregistered = "unregistered"
	StatusNoClassDay   = "no_class_day"
	dayStateNoClassDay = "no_class_day"
	placeholder        = "—"
	noClassLabel       = "Sin clase"
)

var statusLabels = map[string]string{
	StatusPresent:      "Asistencia",
	StatusAbsent:       "Inasistencia",
	StatusLate:         "Tardanza",
	StatusExcused:      "Justificada",
	StatusEarlyExit:    "Salida anticipada",
	StatusUnregistered: "Sin registrar",
	StatusNoClassDay:   noClassLabel,
}

// StatusCodes lists every known status in display order.
var StatusCodes = []string{
	StatusPresent,
	StatusAbsent,
	StatusLate,
	StatusExcused,
	StatusEarlyExit,
	StatusUnregistered,
	StatusNoClassDay,
}

type Status struct {
	Code  string
	Label string
}

// ClassInfo is the detail shown for a focused cell.
type ClassInfo struct {
	Date         string
	Shift        string
	Start        string
	End          string
	Instructor   string
	ClassType    string
	Classroom    string
	StatusLabel  string
	AbsentHours  string
	Observations string
}

type Cell struct {
	Key       string
	Day       string
	Slot      string
	Index     int
	Status    Status
	ClassInfo *ClassInfo
}

// StatusLabel returns the fixed label for code. Unknown codes read as
// unregistered.
func StatusLabel(code string) string {
	if l, ok := statusLabels[code]; ok {
		return l
	}
	return statusLabels[StatusUnregistered]
}

func IsNoClassDay(info DayInfo) bool {
	return info.DayState == dayStateNoClassDay
}

// ResolveStatus applies the status precedence: a no-class day overrides any
// mark, then the mark's own status, then unregistered.
func ResolveStatus(noClassDay bool, mark *Mark) string {
	if noClassDay {
		return StatusNoClassDay
	}
	if mark == nil || mark.Status == "" {
		return StatusUnregistered
	}
	return mark.Status
}

// markAt returns the mark at index, or nil when the list is shorter.
func markAt(marks []Mark, index int) *Mark {
	if index < 0 || index >= len(marks) {
		return nil
	}
	m := marks[index]
	return &m
}

// BuildCell materializes the cell of one apprentice at one column.
func BuildCell(col Column, marks []Mark, info DayInfo, legend map[string]string) Cell {
	noClass := IsNoClassDay(info)
	mark := markAt(marks, col.Index)
	code := ResolveStatus(noClass, mark)

	cell := Cell{
		Key:    col.Key(),
		Day:    col.Day,
		Slot:   col.Slot,
		Index:  col.Index,
		Status: Status{Code: code, Label: StatusLabel(code)},
	}
	if col.Occurrence != nil || noClass {
		cell.ClassInfo = BuildClassInfo(col, info, mark, legend, code)
	}
	return cell
}

func BuildClassInfo(col Column, info DayInfo, mark *Mark, legend map[string]string, code string) *ClassInfo {
	occ := col.Occurrence
	noClass := IsNoClassDay(info)
	return &ClassInfo{
		Date:         infoDate(occ, col.Day),
		Shift:        col.SlotLabel,
		Start:        infoStart(occ),
		End:          infoEnd(occ),
		Instructor:   infoInstructor(occ),
		ClassType:    infoClassType(occ, noClass),
		Classroom:    infoClassroom(occ),
		StatusLabel:  infoStatusLabel(noClass, info, legend, code),
		AbsentHours:  infoAbsentHours(noClass, mark),
		Observations: infoObservations(noClass, info, mark, occ),
	}
}

func infoDate(occ *ClassOccurrence, day string) string {
	if occ != nil {
		if occ.Date != "" {
			return occ.Date
		}
		if occ.ExecutionDate != "" {
			return occ.ExecutionDate
		}
	}
	return day
}

func infoStart(occ *ClassOccurrence) string {
	if occ == nil || occ.RealStartHour == "" {
		return placeholder
	}
	return occ.RealStartHour
}

func infoEnd(occ *ClassOccurrence) string {
	if occ == nil || occ.RealEndHour == "" {
		return placeholder
	}
	return occ.RealEndHour
}

func infoInstructor(occ *ClassOccurrence) string {
	if occ == nil || occ.Instructor.FullName == "" {
		return placeholder
	}
	return occ.Instructor.FullName
}

func infoClassType(occ *ClassOccurrence, noClass bool) string {
	if occ != nil && occ.ClassType.Name != "" {
		return occ.ClassType.Name
	}
	if noClass {
		return noClassLabel
	}
	return placeholder
}

func infoClassroom(occ *ClassOccurrence) string {
	if occ == nil || occ.Classroom.Name == "" {
		return placeholder
	}
	return occ.Classroom.Name
}

func infoStatusLabel(noClass bool, info DayInfo, legend map[string]string, code string) string {
	if noClass {
		if info.Reason.Name != "" {
			return fmt.Sprintf("%s (%s)", noClassLabel, info.Reason.Name)
		}
		if l := legend[StatusNoClassDay]; l != "" {
			return l
		}
		return noClassLabel
	}
	if l := legend[code]; l != "" {
		return l
	}
	return StatusLabel(code)
}

func infoAbsentHours(noClass bool, mark *Mark) string {
	if noClass {
		return placeholder
	}
	if mark == nil {
		return "0"
	}
	return strconv.FormatFloat(mark.AbsentHours, 'f', -1, 64)
}

func infoObservations(noClass bool, info DayInfo, mark *Mark, occ *ClassOccurrence) string {
	if noClass {
		if info.Observations != "" {
			return info.Observations
		}
		return placeholder
	}
	if mark != nil && mark.Observations != "" {
		return mark.Observations
	}
	if occ != nil && occ.Observations != "" {
		return occ.Observations
	}
	return placeholder
}
