package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "file too large",
			err:      fmt.Errorf("read upload: %w", ErrFileTooLarge),
			wantCode: "FILE001",
		},
		{
			name:     "unsupported format inside decode error",
			err:      &DecodeError{FileName: "old.xls", Err: ErrUnsupportedFormat},
			wantCode: "FILE002",
		},
		{
			name:     "empty file inside decode error",
			err:      &DecodeError{Err: ErrEmptyFile},
			wantCode: "FILE003",
		},
		{
			name:     "corrupt workbook",
			err:      &DecodeError{FileName: "broken.xlsx", Err: errors.New("zip: not a valid zip file")},
			wantCode: "FILE004",
		},
		{
			name:     "missing columns",
			err:      &MissingColumnsError{Kind: KindStudents, Missing: []string{"firstName"}},
			wantCode: "VAL001",
		},
		{
			name:     "too many imports",
			err:      ErrTooManyImports,
			wantCode: "IMP001",
		},
		{
			name:     "run not found wrapped",
			err:      fmt.Errorf("result abc: %w", ErrRunNotFound),
			wantCode: "IMP002",
		},
		{
			name:     "permission denied from store",
			err:      errors.New("ERROR: permission denied for table documents"),
			wantCode: "DB001",
		},
		{
			name:     "unknown error falls back",
			err:      errors.New("something odd"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_MissingColumnsNamesColumns(t *testing.T) {
	got := MapError(&MissingColumnsError{Missing: []string{"subject", "grade"}})
	want := "Colonnes obligatoires manquantes : subject, grade"
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
	if !IsUserFacing(ErrEmptyFile) {
		t.Error("IsUserFacing(ErrEmptyFile) = false, want true")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(boom) = true, want false")
	}
}

func TestIsBatchFatal(t *testing.T) {
	if !IsBatchFatal(&DecodeError{Err: ErrEmptyFile}) {
		t.Error("decode error should be batch-fatal")
	}
	if !IsBatchFatal(fmt.Errorf("start: %w", &MissingColumnsError{Missing: []string{"x"}})) {
		t.Error("wrapped missing columns should be batch-fatal")
	}
	if IsBatchFatal(errors.New("permission denied")) {
		t.Error("store error should not be batch-fatal")
	}
}
