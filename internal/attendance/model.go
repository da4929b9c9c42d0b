package attendance

import (
	"bytes"
	"encoding/json"
)

// Status is the attendance outcome for one student in one session.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Statuses lists every valid Status in report order.
var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// Student is a registered learner.
type Student struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Grade   string  `json:"grade"`
	Contact *string `json:"contact,omitempty"`
}

// Session is a single class meeting.
type Session struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Topic string `json:"topic"`
}

// Record is the attendance of one student for one session. At most one
// Record exists per (StudentID, SessionID).
type Record struct {
	ID        int64   `json:"id"`
	StudentID int64   `json:"studentId"`
	SessionID int64   `json:"sessionId"`
	Status    Status  `json:"status"`
	Note      *string `json:"note,omitempty"`
}

// Entry is a Record joined with the student's name and the session's date.
type Entry struct {
	Record
	StudentName string `json:"studentName"`
	SessionDate string `json:"sessionDate"`
}

// StudentSummary holds per-status attendance counts for one student across
// all sessions.
type StudentSummary struct {
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	Present     int    `json:"present"`
	Absent      int    `json:"absent"`
	Late        int    `json:"late"`
	Excused     int    `json:"excused"`
	Total       int    `json:"total"`
}

// NewStudent is the input for registering a student.
type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	Grade   string `json:"grade" validate:"required"`
	Contact string `json:"contact"`
}

// NewSession is the input for scheduling a session.
type NewSession struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Topic string `json:"topic" validate:"required"`
}

// Mark is the input for recording attendance.
type Mark struct {
	StudentID int64   `json:"studentId" validate:"required,gt=0"`
	SessionID int64   `json:"sessionId" validate:"required,gt=0"`
	Status    Status  `json:"status" validate:"required,oneof=present absent late excused"`
	Note      *string `json:"note"`
}

// StudentPatch is a partial update. Fields whose JSON key is absent are left
// unchanged.
type StudentPatch struct {
	Name    Optional[string] `json:"name"`
	Grade   Optional[string] `json:"grade"`
	Contact Optional[string] `json:"contact"`
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return !p.Name.Set && !p.Grade.Set && !p.Contact.Set
}

// Optional records whether a JSON field was present and whether it was null,
// so "leave unchanged" and "clear" can be told apart.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked when the key is present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}
