package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"orderreturns/internal/operations"
)

// MockStep is a configurable implementation of operations.Step.
type MockStep struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string

	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	mu            sync.Mutex
	executeCalls  int
	validateCalls int
	executedAt    []time.Time
}

// NewMockStep creates a mock step that succeeds.
func NewMockStep(id string, deps ...string) *MockStep {
	return &MockStep{IDValue: id, NameValue: id, DependenciesValue: deps}
}

// ID returns the step ID
func (m *MockStep) ID() string { return m.IDValue }

// Name returns the step name
func (m *MockStep) Name() string { return m.NameValue }

// GetDependencies returns the step dependencies
func (m *MockStep) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute records the call and runs ExecuteFunc.
func (m *MockStep) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.executeCalls++
	m.executedAt = append(m.executedAt, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate records the call and runs ValidateFunc.
func (m *MockStep) Validate(state *operations.OperationState) error {
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// ExecuteCalls returns the number of Execute calls
func (m *MockStep) ExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeCalls
}

// ValidateCalls returns the number of Validate calls
func (m *MockStep) ValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

// FailTimes returns an ExecuteFunc that fails with err n times, then succeeds.
func FailTimes(n int, err error) func(context.Context, *operations.OperationState) error {
	var mu sync.Mutex
	calls := 0
	return func(context.Context, *operations.OperationState) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= n {
			return err
		}
		return nil
	}
}

// BlockUntilDone returns an ExecuteFunc that waits for ctx to end.
func BlockUntilDone() func(context.Context, *operations.OperationState) error {
	return func(ctx context.Context, _ *operations.OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	}
}

// LogRecord is a captured slog record.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that keeps every record in memory.
type CaptureHandler struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewCaptureLogger returns a logger writing into a CaptureHandler.
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(h), h
}

// Enabled reports true for every level.
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores r.
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	rec := LogRecord{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

// WithAttrs returns a handler sharing the same record buffer.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &CaptureHandler{mu: h.mu, records: h.records, attrs: merged}
}

// WithGroup is a no-op.
func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records.
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// Messages returns the captured messages in order.
func (h *CaptureHandler) Messages() []string {
	records := h.Records()
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Message
	}
	return out
}
