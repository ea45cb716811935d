package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/executor"
	"github.com/sakif/codecraft/internal/language"
	"github.com/sakif/codecraft/internal/metrics"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// ExecutionService gates, runs and records code executions.
type ExecutionService struct {
	execs  repository.ExecutionRepository
	users  userLookup
	runner executor.Executor
	logger *slog.Logger
}

// NewExecutionService wires the execution log. runner may be nil when the
// server only records client-side runs; Run then fails with ErrUpstream.
func NewExecutionService(execs repository.ExecutionRepository, users userLookup, runner executor.Executor, logger *slog.Logger) *ExecutionService {
	return &ExecutionService{execs: execs, users: users, runner: runner, logger: logger}
}

// checkTier enforces the subscription gate: the free language is open to any
// authenticated caller, every other language needs a user row with IsPro.
func (s *ExecutionService) checkTier(ctx context.Context, callerID, lang string) error {
	if !language.RequiresSubscription(lang) {
		return nil
	}
	user, err := s.users.Current(ctx, callerID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("service/execution: resolving caller: %w", err)
		}
		user = nil
	}
	if user == nil || !user.IsPro {
		metrics.TierGateRejections.WithLabelValues(lang).Inc()
		return apperror.SubscriptionRequired(lang)
	}
	return nil
}

// Record appends an execution outcome for callerID. output and errMsg are
// stored as given; either, both or neither may be set.
func (s *ExecutionService) Record(ctx context.Context, callerID, lang, code string, output, errMsg *string) (*model.Execution, error) {
	if callerID == "" {
		return nil, apperror.Unauthenticated()
	}
	if err := s.checkTier(ctx, callerID, lang); err != nil {
		return nil, err
	}

	exec := &model.Execution{
		UserID:   callerID,
		Language: lang,
		Code:     code,
		Output:   output,
		Error:    errMsg,
	}
	if err := s.execs.CreateExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("service/execution: recording: %w", err)
	}

	outcome := "success"
	if errMsg != nil && *errMsg != "" {
		outcome = "error"
	}
	metrics.ExecutionsRecorded.WithLabelValues(lang, outcome).Inc()
	return exec, nil
}

// List returns one page of userID's executions, newest first.
func (s *ExecutionService) List(ctx context.Context, userID, cursor string, limit int) (*model.ExecutionPage, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	page, err := s.execs.ListExecutions(ctx, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("service/execution: listing for %s: %w", userID, err)
	}
	return page, nil
}

// Run executes code on the server's backend after the tier gate and records
// the outcome. A failed program is a normal Result; only an unreachable
// backend is an error, and nothing is recorded then.
func (s *ExecutionService) Run(ctx context.Context, callerID, lang, code string) (*executor.Result, error) {
	if callerID == "" {
		return nil, apperror.Unauthenticated()
	}
	rt, ok := language.Lookup(lang)
	if !ok {
		return nil, apperror.ValidationFailed("language", fmt.Sprintf("unsupported language %q", lang))
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("code", "please enter some code")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code", fmt.Sprintf("code must be at most %d bytes", MaxCodeLength))
	}
	if err := s.checkTier(ctx, callerID, lang); err != nil {
		return nil, err
	}
	if s.runner == nil {
		return nil, apperror.Upstream("executor", errors.New("no execution backend configured"))
	}

	result, err := s.runner.Execute(ctx, executor.Request{Language: rt.Runtime, Version: rt.Version, Code: code})
	if err != nil {
		s.logger.Error("execution backend failed",
			slog.String("language", lang),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	metrics.ExecutionDuration.WithLabelValues(lang).Observe(result.Duration.Seconds())

	var output, errMsg *string
	if result.Failed() {
		errMsg = &result.Error
	} else {
		output = &result.Output
	}
	if _, err := s.Record(ctx, callerID, lang, code, output, errMsg); err != nil {
		return nil, err
	}
	return result, nil
}
