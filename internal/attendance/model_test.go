package attendance

import (
	"encoding/json"
	"testing"
)

func TestStudentPatchDecodesFieldPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantName    Optional[string]
		wantContact Optional[string]
		empty       bool
	}{
		{name: "empty object", body: `{}`, empty: true},
		{name: "value", body: `{"name":"Abe"}`, wantName: Some("Abe")},
		{name: "null contact", body: `{"contact":null}`, wantContact: Null[string]()},
		{name: "both", body: `{"name":"Abe","contact":"x"}`, wantName: Some("Abe"), wantContact: Some("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p StudentPatch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Name != tt.wantName {
				t.Fatalf("name = %+v, want %+v", p.Name, tt.wantName)
			}
			if p.Contact != tt.wantContact {
				t.Fatalf("contact = %+v, want %+v", p.Contact, tt.wantContact)
			}
			if p.Grade.Set {
				t.Fatalf("grade unexpectedly set")
			}
			if p.Empty() != tt.empty {
				t.Fatalf("Empty() = %v, want %v", p.Empty(), tt.empty)
			}
		})
	}
}

func TestOptionalRejectsWrongType(t *testing.T) {
	t.Parallel()

	var p StudentPatch
	if err := json.Unmarshal([]byte(`{"name":5}`), &p); err == nil {
		t.Fatal("expected type error")
	}
}

func TestEntryMarshalsFlat(t *testing.T) {
	t.Parallel()

	e := Entry{
		Record:      Record{ID: 1, StudentID: 2, SessionID: 3, Status: StatusLate},
		StudentName: "Tanaka",
		SessionDate: "2024-04-01",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":1,"studentId":2,"sessionId":3,"status":"late","studentName":"Tanaka","sessionDate":"2024-04-01"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	if Status("tardy").Valid() {
		t.Fatal("tardy should be invalid")
	}
}
