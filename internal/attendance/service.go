package attendance

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tutorattend/internal/errs"
	"tutorattend/internal/metrics"
)

// Service validates input and coordinates the repository.
type Service struct {
	repo     *Repository
	validate *validator.Validate
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{repo: repo, validate: v}
}

// ListStudents returns every student ordered by name.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	return s.repo.ListStudents(ctx)
}

// GetStudent returns a single student.
func (s *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	if id <= 0 {
		return Student{}, errs.Validation("invalid student id", errs.FieldError{Field: "id", Error: "must be a positive integer"})
	}
	return s.repo.GetStudent(ctx, id)
}

// CreateStudent registers a student. Name and grade must be non-empty after
// trimming; a blank contact is stored as absent.
func (s *Service) CreateStudent(ctx context.Context, in NewStudent) (Student, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Grade = strings.TrimSpace(in.Grade)
	in.Contact = strings.TrimSpace(in.Contact)
	if err := s.validateStruct(in); err != nil {
		return Student{}, err
	}
	return s.repo.CreateStudent(ctx, in.Name, in.Grade, optionalText(in.Contact))
}

// UpdateStudent applies the fields present in patch.
func (s *Service) UpdateStudent(ctx context.Context, id int64, patch StudentPatch) (Student, error) {
	if id <= 0 {
		return Student{}, errs.Validation("invalid student id", errs.FieldError{Field: "id", Error: "must be a positive integer"})
	}

	var fields []errs.FieldError
	for _, f := range []struct {
		name string
		opt  *Optional[string]
	}{
		{"name", &patch.Name},
		{"grade", &patch.Grade},
	} {
		if !f.opt.Set {
			continue
		}
		f.opt.Value = strings.TrimSpace(f.opt.Value)
		if f.opt.Null || f.opt.Value == "" {
			fields = append(fields, errs.FieldError{Field: f.name, Error: "cannot be empty"})
		}
	}
	if len(fields) > 0 {
		return Student{}, errs.Validation("invalid student update", fields...)
	}

	if patch.Contact.Set {
		patch.Contact.Value = strings.TrimSpace(patch.Contact.Value)
		if patch.Contact.Value == "" {
			patch.Contact = Null[string]()
		}
	}
	return s.repo.UpdateStudent(ctx, id, patch)
}

// ListSessions returns every session, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	return s.repo.ListSessions(ctx)
}

// CreateSession schedules a session on a YYYY-MM-DD date.
func (s *Service) CreateSession(ctx context.Context, in NewSession) (Session, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Topic = strings.TrimSpace(in.Topic)
	if err := s.validateStruct(in); err != nil {
		return Session{}, err
	}
	return s.repo.CreateSession(ctx, in.Date, in.Topic)
}

// ListAttendance returns the records of one session.
func (s *Service) ListAttendance(ctx context.Context, sessionID int64) ([]Entry, error) {
	if sessionID <= 0 {
		return nil, errs.Validation("invalid session id", errs.FieldError{Field: "sessionId", Error: "must be a positive integer"})
	}
	return s.repo.ListAttendance(ctx, sessionID)
}

// MarkAttendance creates or replaces the record for (StudentID, SessionID).
// The submitted note replaces the stored one; a missing or blank note clears it.
func (s *Service) MarkAttendance(ctx context.Context, in Mark) (Record, error) {
	in.Status = Status(strings.TrimSpace(string(in.Status)))
	if err := s.validateStruct(in); err != nil {
		return Record{}, err
	}

	var note *string
	if in.Note != nil {
		note = optionalText(strings.TrimSpace(*in.Note))
	}
	rec, err := s.repo.UpsertAttendance(ctx, Record{
		StudentID: in.StudentID,
		SessionID: in.SessionID,
		Status:    in.Status,
		Note:      note,
	})
	if err != nil {
		return Record{}, err
	}
	metrics.AttendanceUpserts.WithLabelValues(string(rec.Status)).Inc()
	return rec, nil
}

// Summary returns per-student status counts across all sessions.
func (s *Service) Summary(ctx context.Context) ([]StudentSummary, error) {
	return s.repo.AttendanceSummary(ctx)
}

func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Store("validate input", err)
	}
	fields := make([]errs.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errs.FieldError{Field: fe.Field(), Error: fieldMessage(fe)})
	}
	return errs.Validation("invalid input", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
