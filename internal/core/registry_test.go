package core

import "testing"

func testDefinition(kind Kind) TemplateDefinition {
	return TemplateDefinition{
		Template: ImportTemplate{
			Kind:       kind,
			Collection: string(kind),
			Columns: []Column{
				{Header: "name", Label: "Nom", Required: true},
				{Header: "note", Label: "Note"},
			},
		},
		Build: func(row RawRow, env *RowEnv) (Record, error) {
			return Record{Collection: string(kind), Doc: Document{"name": row.Text("name")}}, nil
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	Clear()
	defer Clear()

	Register(testDefinition(KindTeachers))
	Register(testDefinition(KindStudents))

	if got := TemplateCount(); got != 2 {
		t.Fatalf("TemplateCount() = %d, want 2", got)
	}

	tmpl, ok := GetTemplate(KindTeachers)
	if !ok {
		t.Fatal("GetTemplate(teachers) not found")
	}
	if tmpl.Kind != KindTeachers {
		t.Errorf("Kind = %q, want %q", tmpl.Kind, KindTeachers)
	}

	if _, ok := Get(KindGrades); ok {
		t.Error("Get(grades) found an unregistered kind")
	}

	all := All()
	if len(all) != 2 || all[0].Template.Kind != KindStudents || all[1].Template.Kind != KindTeachers {
		t.Errorf("All() order = %v, want students then teachers", all)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Clear()
	defer Clear()

	Register(testDefinition(KindGrades))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(testDefinition(KindGrades))
}

func TestImportTemplate_Headers(t *testing.T) {
	tmpl := testDefinition(KindStudents).Template

	headers := tmpl.Headers()
	if len(headers) != 2 || headers[0] != "name" || headers[1] != "note" {
		t.Errorf("Headers() = %v", headers)
	}

	required := tmpl.RequiredHeaders()
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("RequiredHeaders() = %v", required)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"students", KindStudents, false},
		{" Grades ", KindGrades, false},
		{"TEACHERS", KindTeachers, false},
		{"parents", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
