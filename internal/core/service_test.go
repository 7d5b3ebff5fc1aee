package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

const staffCSV = "firstName,lastName\nJean,Dupont\n,Martin\nMarie,Curie\n"

func newTestService(t *testing.T, store Store, opts ServiceOptions) *Service {
	t.Helper()
	Clear()
	Register(staffDefinition())
	t.Cleanup(Clear)
	return NewService(store, opts)
}

func staffRequest(data string) ImportRequest {
	return ImportRequest{
		Kind:     KindTeachers,
		TenantID: "ecole-1",
		FileName: "staff.csv",
		Data:     []byte(data),
	}
}

// ----------------------------------------------------------------------------
// Run lifecycle Tests
// ----------------------------------------------------------------------------

func TestService_RunImport(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, ServiceOptions{})

	outcome, err := svc.RunImport(context.Background(), staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}

	if outcome.SuccessCount != 2 || outcome.ErrorCount != 1 {
		t.Errorf("got %d ok / %d errors, want 2 / 1", outcome.SuccessCount, outcome.ErrorCount)
	}
	if outcome.RunID == "" || outcome.FileName != "staff.csv" || outcome.Kind != KindTeachers {
		t.Errorf("outcome metadata = %+v", outcome)
	}
	if store.count() != 2 {
		t.Errorf("store has %d records, want 2", store.count())
	}

	res, err := svc.Result(outcome.RunID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.SuccessCount != 2 {
		t.Errorf("Result().SuccessCount = %d, want 2", res.SuccessCount)
	}

	p, err := svc.Progress(outcome.RunID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Phase != PhaseComplete || p.CurrentRow != 3 {
		t.Errorf("final progress = %+v", p)
	}

	if tenant, err := svc.RunTenant(outcome.RunID); err != nil || tenant != "ecole-1" {
		t.Errorf("RunTenant = %q, %v; want ecole-1", tenant, err)
	}
}

func TestService_ReimportCreatesSecondSet(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, ServiceOptions{})
	ctx := context.Background()

	first, err := svc.RunImport(ctx, staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("first RunImport: %v", err)
	}
	second, err := svc.RunImport(ctx, staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("second RunImport: %v", err)
	}

	if first.RunID == second.RunID {
		t.Error("runs should have distinct IDs")
	}
	if store.count() != first.SuccessCount+second.SuccessCount {
		t.Errorf("store has %d records, want %d", store.count(), first.SuccessCount+second.SuccessCount)
	}
}

func TestService_ProgressAndDetachedContext(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{failWith: func(Record) error { <-gate; return nil }}
	svc := newTestService(t, store, ServiceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	runID, err := svc.StartImport(ctx, staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}

	updates, err := svc.SubscribeProgress(runID)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}

	if _, err := svc.Result(runID); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Result before finish err = %v, want ErrRunInProgress", err)
	}

	// Cancelling the caller does not abandon the batch.
	cancel()
	close(gate)

	var last Progress
	for p := range updates {
		last = p
	}
	if last.Phase != PhaseComplete {
		t.Errorf("last update phase = %q, want complete", last.Phase)
	}

	outcome, err := svc.Wait(context.Background(), runID)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if outcome.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", outcome.SuccessCount)
	}
}

func TestService_SubscribeAfterFinish(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, ServiceOptions{})

	outcome, err := svc.RunImport(context.Background(), staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}

	ch, err := svc.SubscribeProgress(outcome.RunID)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	p, ok := <-ch
	if !ok || p.Phase != PhaseComplete {
		t.Errorf("first update = %+v, %v", p, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed for a finished run")
	}
}

func TestService_RetentionEvictsRuns(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, ServiceOptions{Retention: 20 * time.Millisecond})

	outcome, err := svc.RunImport(context.Background(), staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := svc.Result(outcome.RunID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Result after retention err = %v, want ErrRunNotFound", err)
	}
}

func TestService_UnknownRun(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, ServiceOptions{})

	if _, err := svc.Progress("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Progress err = %v", err)
	}
	if _, err := svc.SubscribeProgress("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("SubscribeProgress err = %v", err)
	}
	if _, err := svc.Wait(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Wait err = %v", err)
	}
	if _, err := svc.RunTenant("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("RunTenant err = %v", err)
	}
}

// ----------------------------------------------------------------------------
// Batch-fatal Tests
// ----------------------------------------------------------------------------

func TestService_BatchFatal(t *testing.T) {
	tests := []struct {
		name  string
		opts  ServiceOptions
		req   func() ImportRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "missing tenant",
			req: func() ImportRequest {
				r := staffRequest(staffCSV)
				r.TenantID = ""
				return r
			},
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("err = %v, want *RequestError", err)
				}
				if reqErr.Fields["tenantId"] != "required" {
					t.Errorf("Fields = %v", reqErr.Fields)
				}
			},
		},
		{
			name: "unknown kind",
			req: func() ImportRequest {
				r := staffRequest(staffCSV)
				r.Kind = "payroll"
				return r
			},
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) || reqErr.Fields["kind"] != "import_kind" {
					t.Errorf("err = %v, want kind rejected", err)
				}
			},
		},
		{
			name: "bad enrollment year",
			req: func() ImportRequest {
				r := staffRequest(staffCSV)
				r.EnrollmentYear = "2025-2027"
				return r
			},
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) || reqErr.Fields["enrollmentYear"] != "academic_year" {
					t.Errorf("err = %v, want enrollmentYear rejected", err)
				}
			},
		},
		{
			name: "file too large",
			opts: ServiceOptions{MaxFileSize: 8},
			req:  func() ImportRequest { return staffRequest(staffCSV) },
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrFileTooLarge) {
					t.Errorf("err = %v, want ErrFileTooLarge", err)
				}
			},
		},
		{
			name: "undecodable file",
			req: func() ImportRequest {
				r := staffRequest("")
				r.Data = []byte("PK\x03\x04broken")
				r.FileName = "staff.xlsx"
				return r
			},
			check: func(t *testing.T, err error) {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Errorf("err = %v, want *DecodeError", err)
				}
			},
		},
		{
			name: "missing columns",
			req:  func() ImportRequest { return staffRequest("firstName,subject\nJean,Maths\n") },
			check: func(t *testing.T, err error) {
				var missingErr *MissingColumnsError
				if !errors.As(err, &missingErr) {
					t.Fatalf("err = %v, want *MissingColumnsError", err)
				}
				if len(missingErr.Missing) != 1 || missingErr.Missing[0] != "lastName" {
					t.Errorf("Missing = %v, want [lastName]", missingErr.Missing)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := newTestService(t, store, tt.opts)

			runID, err := svc.StartImport(context.Background(), tt.req())
			if err == nil {
				t.Fatalf("StartImport returned run %q, want error", runID)
			}
			tt.check(t, err)

			if store.count() != 0 {
				t.Errorf("store has %d records, want 0", store.count())
			}
			if got := svc.LimiterStatus().Active; got != 0 {
				t.Errorf("limiter Active = %d, want 0", got)
			}
		})
	}
}

func TestService_TooManyImports(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{failWith: func(Record) error { <-gate; return nil }}
	svc := newTestService(t, store, ServiceOptions{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	ctx := context.Background()

	runID, err := svc.StartImport(ctx, staffRequest(staffCSV))
	if err != nil {
		t.Fatalf("first StartImport: %v", err)
	}

	if _, err := svc.StartImport(ctx, staffRequest(staffCSV)); !errors.Is(err, ErrTooManyImports) {
		t.Errorf("second StartImport err = %v, want ErrTooManyImports", err)
	}

	close(gate)
	if _, err := svc.Wait(ctx, runID); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := svc.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// ----------------------------------------------------------------------------
// Row environment Tests
// ----------------------------------------------------------------------------

func TestService_RowEnv(t *testing.T) {
	store := &fakeStore{
		classes:  []ClassRef{{ID: "c1", Name: "CE1 A"}},
		students: []StudentRef{{ID: "s1", Matricule: "MAT-001"}, {ID: "s2", Matricule: "MAT-002"}},
	}
	now := time.Date(2026, time.October, 17, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name         string
		defaultYear  string
		req          ImportRequest
		wantYear     string
		wantClasses  int
		wantStudents int
	}{
		{
			name:        "students derive the school year",
			req:         ImportRequest{Kind: KindStudents, TenantID: "t"},
			wantYear:    "2026-2027",
			wantClasses: 1,
		},
		{
			name:        "configured default year",
			defaultYear: "2025-2026",
			req:         ImportRequest{Kind: KindStudents, TenantID: "t"},
			wantYear:    "2025-2026",
			wantClasses: 1,
		},
		{
			name:        "request year wins",
			defaultYear: "2025-2026",
			req:         ImportRequest{Kind: KindStudents, TenantID: "t", EnrollmentYear: "2024-2025"},
			wantYear:    "2024-2025",
			wantClasses: 1,
		},
		{
			name:         "grades load students",
			req:          ImportRequest{Kind: KindGrades, TenantID: "t"},
			wantYear:     "2026-2027",
			wantStudents: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(store, ServiceOptions{
				DefaultEnrollmentYear: tt.defaultYear,
				Now:                   func() time.Time { return now },
			})

			env, err := svc.rowEnv(ctx, tt.req)
			if err != nil {
				t.Fatalf("rowEnv: %v", err)
			}
			if env.EnrollmentYear != tt.wantYear {
				t.Errorf("EnrollmentYear = %q, want %q", env.EnrollmentYear, tt.wantYear)
			}
			if env.Classes.Len() != tt.wantClasses {
				t.Errorf("Classes.Len() = %d, want %d", env.Classes.Len(), tt.wantClasses)
			}
			if env.Students.Len() != tt.wantStudents {
				t.Errorf("Students.Len() = %d, want %d", env.Students.Len(), tt.wantStudents)
			}
			if env.Today() != "2026-10-17" {
				t.Errorf("Today() = %q", env.Today())
			}
		})
	}
}
