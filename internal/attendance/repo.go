package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tutorattend/internal/errs"
	"tutorattend/internal/sqlerr"
	"tutorattend/internal/store"
)

// Repository persists students, sessions and attendance records.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.Client.QueryRowContext(ctx, r.db.Rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.Client.QueryContext(ctx, r.db.Rebind(query), args...)
}

// ListStudents returns all students ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.query(ctx, `SELECT id, name, grade, contact FROM students ORDER BY name, id`)
	if err != nil {
		return nil, errs.Store("list students", err)
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, errs.Store("list students", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list students", err)
	}
	return students, nil
}

// GetStudent returns one student or a not-found error.
func (r *Repository) GetStudent(ctx context.Context, id int64) (Student, error) {
	st, err := scanStudent(r.queryRow(ctx, `SELECT id, name, grade, contact FROM students WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, errs.NotFound(fmt.Sprintf("student %d not found", id))
	}
	if err != nil {
		return Student{}, errs.Store("get student", err)
	}
	return st, nil
}

// CreateStudent inserts a student and returns it with its assigned id.
func (r *Repository) CreateStudent(ctx context.Context, name, grade string, contact *string) (Student, error) {
	st := Student{Name: name, Grade: grade, Contact: contact}
	err := r.queryRow(ctx,
		`INSERT INTO students (name, grade, contact) VALUES (?, ?, ?) RETURNING id`,
		name, grade, nullString(contact),
	).Scan(&st.ID)
	if err != nil {
		return Student{}, classify("create student", err)
	}
	return st, nil
}

// UpdateStudent writes the fields present in patch. Contact set to null is
// stored as NULL.
func (r *Repository) UpdateStudent(ctx context.Context, id int64, patch StudentPatch) (Student, error) {
	if patch.Empty() {
		return r.GetStudent(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, patch.Name.Value)
	}
	if patch.Grade.Set {
		sets = append(sets, "grade = ?")
		args = append(args, patch.Grade.Value)
	}
	if patch.Contact.Set {
		sets = append(sets, "contact = ?")
		if patch.Contact.Null {
			args = append(args, nil)
		} else {
			args = append(args, patch.Contact.Value)
		}
	}
	args = append(args, id)

	query := `UPDATE students SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING id, name, grade, contact`
	st, err := scanStudent(r.queryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, errs.NotFound(fmt.Sprintf("student %d not found", id))
	}
	if err != nil {
		return Student{}, classify("update student", err)
	}
	return st, nil
}

// ListSessions returns all sessions, newest date first, ties in insertion order.
func (r *Repository) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.query(ctx, `SELECT id, date, topic FROM sessions ORDER BY date DESC, id ASC`)
	if err != nil {
		return nil, errs.Store("list sessions", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Date, &s.Topic); err != nil {
			return nil, errs.Store("list sessions", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list sessions", err)
	}
	return sessions, nil
}

// CreateSession inserts a session and returns it with its assigned id.
func (r *Repository) CreateSession(ctx context.Context, date, topic string) (Session, error) {
	s := Session{Date: date, Topic: topic}
	err := r.queryRow(ctx, `INSERT INTO sessions (date, topic) VALUES (?, ?) RETURNING id`, date, topic).Scan(&s.ID)
	if err != nil {
		return Session{}, classify("create session", err)
	}
	return s, nil
}

// ListAttendance returns the records of one session ordered by student name.
// An unknown session yields an empty slice.
func (r *Repository) ListAttendance(ctx context.Context, sessionID int64) ([]Entry, error) {
	rows, err := r.query(ctx, `
		SELECT a.id, a.student_id, a.session_id, a.status, a.note, s.name, sess.date
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN sessions sess ON sess.id = a.session_id
		WHERE a.session_id = ?
		ORDER BY s.name, s.id
	`, sessionID)
	if err != nil {
		return nil, errs.Store("list attendance", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e    Entry
			note sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.StudentID, &e.SessionID, &e.Status, &note, &e.StudentName, &e.SessionDate); err != nil {
			return nil, errs.Store("list attendance", err)
		}
		e.Note = stringPtr(note)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list attendance", err)
	}
	return entries, nil
}

// UpsertAttendance records attendance for (StudentID, SessionID) in a single
// statement: a new pair is inserted, an existing pair has its status and note
// replaced and keeps its id.
func (r *Repository) UpsertAttendance(ctx context.Context, rec Record) (Record, error) {
	err := r.queryRow(ctx, `
		INSERT INTO attendance (student_id, session_id, status, note)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, session_id) DO UPDATE
		SET status = excluded.status, note = excluded.note
		RETURNING id
	`, rec.StudentID, rec.SessionID, string(rec.Status), nullString(rec.Note)).Scan(&rec.ID)
	if err != nil {
		if sqlerr.Classify(err) == sqlerr.ForeignKeyViolation {
			return Record{}, r.missingReference(ctx, rec, err)
		}
		return Record{}, classify("upsert attendance", err)
	}
	return rec, nil
}

// missingReference names which side of the pair does not exist.
func (r *Repository) missingReference(ctx context.Context, rec Record, cause error) error {
	var missing []string
	if ok, err := r.exists(ctx, "students", rec.StudentID); err == nil && !ok {
		missing = append(missing, fmt.Sprintf("student %d", rec.StudentID))
	}
	if ok, err := r.exists(ctx, "sessions", rec.SessionID); err == nil && !ok {
		missing = append(missing, fmt.Sprintf("session %d", rec.SessionID))
	}
	if len(missing) == 0 {
		return errs.Reference("referenced student or session does not exist", cause)
	}
	verb := " does not exist"
	if len(missing) > 1 {
		verb = " do not exist"
	}
	return errs.Reference(strings.Join(missing, " and ")+verb, cause)
}

// exists reports whether table has a row with id. table is never user input.
func (r *Repository) exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// AttendanceSummary counts each student's records per status across all
// sessions. Students without records are included with zero counts.
func (r *Repository) AttendanceSummary(ctx context.Context) ([]StudentSummary, error) {
	rows, err := r.query(ctx, `
		SELECT s.id, s.name,
		       COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN a.status = 'late' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN a.status = 'excused' THEN 1 ELSE 0 END), 0),
		       COUNT(a.id)
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.name, s.id
	`)
	if err != nil {
		return nil, errs.Store("attendance summary", err)
	}
	defer rows.Close()

	summary := []StudentSummary{}
	for rows.Next() {
		var s StudentSummary
		if err := rows.Scan(&s.StudentID, &s.StudentName, &s.Present, &s.Absent, &s.Late, &s.Excused, &s.Total); err != nil {
			return nil, errs.Store("attendance summary", err)
		}
		summary = append(summary, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("attendance summary", err)
	}
	return summary, nil
}

func scanStudent(row scanner) (Student, error) {
	var (
		st      Student
		contact sql.NullString
	)
	if err := row.Scan(&st.ID, &st.Name, &st.Grade, &contact); err != nil {
		return Student{}, err
	}
	st.Contact = stringPtr(contact)
	return st, nil
}

// classify converts a driver error from a write into an application error.
// The violated constraint is named in the message when the driver reports it.
func classify(op string, err error) error {
	suffix := ""
	if name := sqlerr.ConstraintName(err); name != "" {
		suffix = " (" + name + ")"
	}
	switch sqlerr.Classify(err) {
	case sqlerr.ForeignKeyViolation:
		return errs.Reference(op+": referenced record does not exist"+suffix, err)
	case sqlerr.UniqueViolation:
		return errs.Conflict(op+": record already exists"+suffix, err)
	case sqlerr.NotNullViolation, sqlerr.CheckViolation:
		e := errs.Validation(op + ": value violates a constraint" + suffix)
		e.Err = err
		return e
	default:
		return errs.Store(op, err)
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
