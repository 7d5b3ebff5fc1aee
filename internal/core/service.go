package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultRetention is how long finished runs stay queryable.
const DefaultRetention = 30 * time.Minute

// DefaultMaxFileSize caps uploads when no limit is configured.
const DefaultMaxFileSize int64 = 10 << 20

// ServiceOptions tunes a Service. Zero values fall back to defaults.
type ServiceOptions struct {
	MaxFileSize           int64
	MaxConcurrent         int
	MaxWait               time.Duration
	Retention             time.Duration
	DefaultEnrollmentYear string
	Logger                *slog.Logger
	Now                   func() time.Time
}

// Service runs imports against a Store. It tracks every run by ID so
// callers can follow progress and fetch the outcome once it finishes.
type Service struct {
	store    Store
	opts     ServiceOptions
	limiter  *ImportLimiter
	validate *validator.Validate
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*importRun
}

type importRun struct {
	id       string
	kind     Kind
	fileName string
	tenantID string

	mu        sync.Mutex
	progress  Progress
	outcome   *ImportOutcome
	err       error
	listeners []chan Progress
	done      chan struct{}
}

// NewService creates a Service writing to store.
func NewService(store Store, opts ServiceOptions) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:    store,
		opts:     opts,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		validate: newRequestValidator(),
		logger:   opts.Logger,
		runs:     make(map[string]*importRun),
	}
}

// Templates returns every registered template in display order.
func (s *Service) Templates() []ImportTemplate {
	defs := All()
	out := make([]ImportTemplate, len(defs))
	for i, def := range defs {
		out[i] = def.Template
	}
	return out
}

// Template returns the template of one kind.
func (s *Service) Template(kind Kind) (ImportTemplate, error) {
	tmpl, ok := GetTemplate(kind)
	if !ok {
		return ImportTemplate{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return tmpl, nil
}

// StartImport checks the request, decodes the file and validates its
// headers before returning a run ID. Rows are then processed in the
// background; cancelling ctx after StartImport returns does not stop them.
//
// Batch-fatal problems are returned directly: *RequestError,
// ErrFileTooLarge, *DecodeError, *MissingColumnsError, ErrTooManyImports.
func (s *Service) StartImport(ctx context.Context, req ImportRequest) (string, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return "", err
	}
	if int64(len(req.Data)) > s.opts.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(req.Data), s.opts.MaxFileSize)
	}

	def, ok := Get(req.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	sheet, err := Decode(req.FileName, req.Data)
	if err != nil {
		runsFinished.WithLabelValues(string(req.Kind), string(PhaseFailed)).Inc()
		return "", err
	}
	if err := ValidateHeaders(sheet.Headers, def.Template); err != nil {
		runsFinished.WithLabelValues(string(req.Kind), string(PhaseFailed)).Inc()
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	env, err := s.rowEnv(ctx, req)
	if err != nil {
		s.limiter.Release()
		return "", err
	}

	run := &importRun{
		id:       uuid.New().String(),
		kind:     req.Kind,
		fileName: req.FileName,
		tenantID: req.TenantID,
		progress: Progress{Kind: req.Kind, Phase: PhaseIdle, FileName: req.FileName},
		done:     make(chan struct{}),
	}
	run.progress.RunID = run.id

	s.mu.Lock()
	s.runs[run.id] = run
	s.mu.Unlock()

	s.logger.Info("import started",
		"run_id", run.id,
		"kind", run.kind,
		"tenant", run.tenantID,
		"file", run.fileName,
		"rows", len(sheet.Rows),
		"client_ip", IPAddressFromContext(ctx),
	)

	importer := NewImporter(def, s.store, s.logger)
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in import run",
					"run_id", run.id,
					"kind", run.kind,
					"panic", r,
				)
				s.finish(run, nil, fmt.Errorf("internal error: %v", r))
			}
		}()

		outcome, err := importer.Run(runCtx, ImportJob{
			RunID:      run.id,
			FileName:   req.FileName,
			Sheet:      sheet,
			Env:        env,
			OnProgress: run.update,
		})
		s.finish(run, outcome, err)
	}()

	return run.id, nil
}

// RunImport starts an import and waits for its outcome.
func (s *Service) RunImport(ctx context.Context, req ImportRequest) (*ImportOutcome, error) {
	runID, err := s.StartImport(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Wait(ctx, runID)
}

// rowEnv loads the reference lists the kind resolves rows against.
func (s *Service) rowEnv(ctx context.Context, req ImportRequest) (*RowEnv, error) {
	now := s.opts.Now()

	env := &RowEnv{
		TenantID:       req.TenantID,
		EnrollmentYear: req.EnrollmentYear,
		Now:            now,
	}
	if env.EnrollmentYear == "" {
		env.EnrollmentYear = s.opts.DefaultEnrollmentYear
	}
	if env.EnrollmentYear == "" {
		env.EnrollmentYear = AcademicYear(now)
	}

	switch req.Kind {
	case KindStudents:
		classes, err := s.store.ListClasses(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("load classes: %w", err)
		}
		env.Classes = NewClassIndex(classes)
	case KindGrades:
		students, err := s.store.ListStudents(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("load students: %w", err)
		}
		env.Students = NewStudentIndex(students)
	}

	return env, nil
}

// finish records the run's end state, wakes waiters and schedules eviction.
func (s *Service) finish(run *importRun, outcome *ImportOutcome, err error) {
	run.mu.Lock()
	select {
	case <-run.done:
		run.mu.Unlock()
		return
	default:
	}

	run.outcome = outcome
	run.err = err
	if err != nil {
		run.progress.Phase = PhaseFailed
		run.progress.Error = err.Error()
	} else {
		run.progress.Phase = PhaseComplete
	}
	run.broadcastLocked()
	for _, ch := range run.listeners {
		close(ch)
	}
	run.listeners = nil
	close(run.done)
	phase := run.progress.Phase
	run.mu.Unlock()

	runsFinished.WithLabelValues(string(run.kind), string(phase)).Inc()

	time.AfterFunc(s.opts.Retention, func() {
		s.mu.Lock()
		delete(s.runs, run.id)
		s.mu.Unlock()
	})
}

func (s *Service) lookup(runID string) (*importRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Progress returns the latest progress of a run without blocking.
func (s *Service) Progress(runID string) (Progress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return Progress{}, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.progress, nil
}

// SubscribeProgress returns a channel of progress updates. The current
// state is sent first and the channel is closed when the run finishes.
// Updates are dropped for a subscriber that falls behind.
func (s *Service) SubscribeProgress(runID string) (<-chan Progress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Progress, 16)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	select {
	case <-run.done:
		close(ch)
	default:
		run.listeners = append(run.listeners, ch)
	}
	return ch, nil
}

// RunTenant returns the tenant a run imports for.
func (s *Service) RunTenant(runID string) (string, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return "", err
	}
	return run.tenantID, nil
}

// Result returns the outcome of a finished run, or ErrRunInProgress.
func (s *Service) Result(runID string) (*ImportOutcome, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.done:
		return run.result()
	default:
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, runID)
	}
}

// Wait blocks until the run finishes or ctx is done.
func (s *Service) Wait(ctx context.Context, runID string) (*ImportOutcome, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.done:
		return run.result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Shutdown waits for in-flight runs to finish writing their rows.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// update is the importer's progress callback.
func (r *importRun) update(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = p
	r.broadcastLocked()
}

// broadcastLocked sends the current progress to every listener without
// blocking. r.mu must be held.
func (r *importRun) broadcastLocked() {
	for _, ch := range r.listeners {
		select {
		case ch <- r.progress:
		default:
		}
	}
}

func (r *importRun) result() (*ImportOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.outcome.clone(), nil
}
