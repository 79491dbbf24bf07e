package gemini

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/smartingest/internal/patterns"
)

// Outcome is the terminal state of one generation run.
type Outcome string

const (
	// OutcomeSucceeded indicates a non-empty pattern set was produced.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed indicates the retry budget was exhausted without patterns.
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted indicates the backend refused the request; no retry can succeed.
	OutcomeAborted Outcome = "aborted"
)

const (
	// defaultBaseDelay is the first backoff delay; it doubles after each
	// transport failure (1s, 2s, 4s, ...).
	defaultBaseDelay = time.Second

	attemptLogMessage          = "calling generation backend"
	refusalLogMessage          = "generation backend refused the prompt"
	transportFailureLogMessage = "generation backend call failed"
	validationFailureMessage   = "generation response failed validation"
	emptyResponseLogMessage    = "generation backend returned an empty pattern list"
	budgetExhaustedLogMessage  = "no valid exclusion patterns after all attempts"
	missingBackendLogMessage   = "generation backend is not configured"

	attemptFieldName = "attempt"
	retriesFieldName = "retries"
)

// Generator orchestrates backend calls with validation, retries, and backoff.
//
// Transport failures back off exponentially before the next attempt. Empty or
// malformed responses consume an attempt without backoff. A refusal aborts
// immediately. The generator never returns an error for ordinary failures;
// callers read the Outcome.
type Generator struct {
	backend       Backend
	retries       int
	logger        *zap.Logger
	baseDelay     time.Duration
	sleepFunction func(time.Duration)
}

// NewGenerator constructs a Generator with the given retry budget.
func NewGenerator(backend Backend, retries int, logger *zap.Logger) *Generator {
	if retries <= 0 {
		retries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		backend:       backend,
		retries:       retries,
		logger:        logger,
		baseDelay:     defaultBaseDelay,
		sleepFunction: time.Sleep,
	}
}

// WithSleepFunction overrides the backoff delay mechanism, enabling
// deterministic tests without real waiting.
func (generator *Generator) WithSleepFunction(sleepFunction func(time.Duration)) *Generator {
	if sleepFunction != nil {
		generator.sleepFunction = sleepFunction
	}
	return generator
}

// WithBaseDelay overrides the initial backoff delay.
func (generator *Generator) WithBaseDelay(baseDelay time.Duration) *Generator {
	if baseDelay > 0 {
		generator.baseDelay = baseDelay
	}
	return generator
}

// Generate turns a tree rendering into a validated pattern set.
func (generator *Generator) Generate(ctx context.Context, treeRendering string) (patterns.Set, Outcome) {
	if generator.backend == nil {
		generator.logger.Warn(missingBackendLogMessage)
		return nil, OutcomeAborted
	}

	prompt := BuildPrompt(treeRendering)
	backoffDelay := generator.baseDelay

	for attempt := 1; attempt <= generator.retries; attempt++ {
		generator.logger.Info(attemptLogMessage, zap.Int(attemptFieldName, attempt), zap.Int(retriesFieldName, generator.retries))

		responseText, backendError := generator.backend.GenerateContent(ctx, prompt)
		if backendError != nil {
			var refusal *RefusalError
			if errors.As(backendError, &refusal) {
				generator.logger.Warn(refusalLogMessage, zap.Int(attemptFieldName, attempt), zap.Error(refusal))
				return nil, OutcomeAborted
			}
			generator.logger.Warn(transportFailureLogMessage, zap.Int(attemptFieldName, attempt), zap.Error(backendError))
			if attempt < generator.retries {
				generator.sleepFunction(backoffDelay)
				backoffDelay *= 2
			}
			continue
		}

		normalizedPatterns, validationError := patterns.Normalize(patterns.TextPayload(responseText))
		if validationError != nil {
			generator.logger.Warn(validationFailureMessage, zap.Int(attemptFieldName, attempt), zap.Error(validationError))
			continue
		}
		if len(normalizedPatterns) == 0 {
			generator.logger.Warn(emptyResponseLogMessage, zap.Int(attemptFieldName, attempt))
			continue
		}

		return patterns.NewSet(normalizedPatterns...), OutcomeSucceeded
	}

	generator.logger.Warn(budgetExhaustedLogMessage, zap.Int(retriesFieldName, generator.retries))
	return nil, OutcomeFailed
}
