package core

import (
	"errors"
	"testing"
)

func TestValidAcademicYear(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2025-2026", true},
		{"1999-2000", true},
		{"2025-2027", false},
		{"2026-2025", false},
		{"2025/2026", false},
		{"25-26", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidAcademicYear(tt.in); got != tt.want {
			t.Errorf("ValidAcademicYear(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateRequest(t *testing.T) {
	v := newRequestValidator()

	valid := ImportRequest{Kind: KindStudents, TenantID: "ecole-1", FileName: "eleves.csv"}
	if err := validateRequest(v, valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := ImportRequest{Kind: "parents", FileName: "eleves.csv", EnrollmentYear: "2025"}
	err := validateRequest(v, bad)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want *RequestError", err)
	}
	want := map[string]string{
		"kind":           "import_kind",
		"tenantId":       "required",
		"enrollmentYear": "academic_year",
	}
	for field, tag := range want {
		if reqErr.Fields[field] != tag {
			t.Errorf("Fields[%q] = %q, want %q", field, reqErr.Fields[field], tag)
		}
	}
	if _, ok := reqErr.Fields["fileName"]; ok {
		t.Error("fileName reported though it was set")
	}
	if got := reqErr.Error(); got != "invalid import request: enrollmentYear (academic_year), kind (import_kind), tenantId (required)" {
		t.Errorf("Error() = %q", got)
	}
}
