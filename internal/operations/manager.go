package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orderreturns/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a manager over the steps in registry
func NewManager(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	tracer, err := NewOperationTracer(nil)
	if err != nil {
		logger.Warn("operation tracing disabled", slog.String("error", err.Error()))
	}
	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		logger:   logger,
	}
}

// SetTracer replaces the tracer, for instance one bound to a dedicated meter
func (m *Manager) SetTracer(tracer *OperationTracer) {
	m.tracer = tracer
}

// GetRegistry returns the registry of this manager
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs every registered step in dependency order
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)

	state := NewOperationState(req.ID)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state, req, nil), err
	}

	order := make([]string, len(steps))
	for i, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
		order[i] = step.ID()
	}

	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", req.ID),
		slog.String("type", req.Type),
		slog.Int("step_count", len(steps)))

	ctx, span := m.tracer.StartOperation(ctx, req.ID, req.Type)
	state.Start()
	start := time.Now()

	err = m.executeSequential(ctx, state, steps, req.Type)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	m.tracer.EndOperation(ctx, span, req.Type, time.Since(start), err)

	if err != nil {
		m.logOperationError(ctx, req.ID, err)
	} else {
		m.logger.InfoContext(ctx, "operation_complete",
			slog.String("operation_id", req.ID),
			slog.String("type", req.Type),
			slog.Duration("duration", state.Duration()))
	}
	return m.createResponse(state, req, order), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step, operationType string) error {
	var firstErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			for _, rest := range steps[i:] {
				if ss := state.GetStep(rest.ID()); ss.GetStatus() == StepStatusPending {
					ss.Skip("operation cancelled")
				}
			}
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStep(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "step_start",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step, operationType); err != nil {
			m.logger.ErrorContext(ctx, "step_error",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			m.skipDependentSteps(state, step.ID())
			if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// executeStep executes a single step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, operationType string) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		verr.Cause = err
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		stepState.Start()
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		spanCtx, span := m.tracer.StartStep(stepCtx, state.ID, step.ID())

		start := time.Now()
		err := step.Execute(spanCtx, state)
		duration := time.Since(start)
		timedOut := errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()

		switch {
		case err == nil:
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), ctx.Err())
		case timedOut:
			err = NewTimeoutError(step.ID(), timeout.String())
		}
		m.tracer.EndStep(spanCtx, span, operationType, step.ID(), duration, err)

		if err == nil {
			stepState.Complete()
			m.logger.InfoContext(ctx, "step_complete",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Duration("duration", duration))
			return nil
		}

		if !IsRetryable(err) || attempt >= retry.MaxAttempts {
			wrapped := WrapError(err, step.ID(), "step execution failed")
			stepState.Fail(wrapped)
			return wrapped
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "step_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			cerr := NewCancellationError(step.ID(), ctx.Err())
			stepState.Fail(cerr)
			return cerr
		}
	}
}

// skipDependentSteps marks every pending step downstream of failedID as skipped
func (m *Manager) skipDependentSteps(state *OperationState, failedID string) {
	for _, id := range m.registry.GetDependents(failedID) {
		ss := state.GetStep(id)
		if ss != nil && ss.GetStatus() == StepStatusPending {
			ss.Skip(fmt.Sprintf("dependency %s failed", failedID))
			m.skipDependentSteps(state, id)
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay calculates the delay before next retry
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func (m *Manager) createResponse(state *OperationState, req OperationRequest, order []string) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Type:     req.Type,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
		Order:    order,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	m.logger.ErrorContext(ctx, "operation_error",
		slog.String("operation_id", operationID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()))
}
