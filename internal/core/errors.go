package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind is returned when an import kind is not registered.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when the upload has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when the upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrRunNotFound is returned when a run ID is unknown or has expired.
	ErrRunNotFound = errors.New("import run not found")

	// ErrRunInProgress is returned when a result is requested before the run ends.
	ErrRunInProgress = errors.New("import run still in progress")
)

// DecodeError is the batch-fatal failure to read an uploaded file.
type DecodeError struct {
	FileName string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("decode file: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.FileName, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingColumnsError is the batch-fatal failure raised when required
// template columns are absent from the header row.
type MissingColumnsError struct {
	Kind    Kind
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// IsBatchFatal reports whether err stops a run before any row is processed.
func IsBatchFatal(err error) bool {
	var decodeErr *DecodeError
	var missingErr *MissingColumnsError
	return errors.As(err, &decodeErr) || errors.As(err, &missingErr)
}
