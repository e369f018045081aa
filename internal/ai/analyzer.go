package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AttemptState is the position of an analysis in its retry loop.
type AttemptState int

const (
	StateAttempting AttemptState = iota
	StateSucceeded
	StateFailed
)

func (s AttemptState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const DefaultMaxAttempts = 3

// Outcome is the terminal result of Analyze. Decision is set only when
// State is StateSucceeded; Reason only when it is StateFailed.
type Outcome struct {
	State    AttemptState
	Decision map[string]any
	Reason   string
	Attempts int
}

func (o Outcome) Succeeded() bool { return o.State == StateSucceeded }

// ErrorPayload is the structured body stored and returned for a failed analysis.
func (o Outcome) ErrorPayload() map[string]any {
	return map[string]any{
		"error":    fmt.Sprintf("invalid model response after %d attempts: %s", o.Attempts, o.Reason),
		"reason":   o.Reason,
		"attempts": o.Attempts,
	}
}

// AttemptRecorder observes each model call. metrics.Metrics satisfies it.
type AttemptRecorder interface {
	RecordModelAttempt(outcome string)
}

// Analyzer runs the prompt/validate/retry loop against a Generator.
type Analyzer struct {
	generator   Generator
	validator   *Validator
	maxAttempts int
	recorder    AttemptRecorder
	logger      *zap.Logger
}

type AnalyzerOption func(*Analyzer)

func WithMaxAttempts(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func WithRecorder(r AttemptRecorder) AnalyzerOption {
	return func(a *Analyzer) { a.recorder = r }
}

func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAnalyzer(generator Generator, validator *Validator, opts ...AnalyzerOption) *Analyzer {
	if validator == nil {
		validator = MustValidator()
	}
	a := &Analyzer{
		generator:   generator,
		validator:   validator,
		maxAttempts: DefaultMaxAttempts,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never returns an error: every failure mode ends in StateFailed
// with the attempt count and the last reason.
func (a *Analyzer) Analyze(ctx context.Context, details string) Outcome {
	base := BuildClaimPrompt(details)
	out := Outcome{State: StateAttempting}

	for out.State == StateAttempting {
		if err := ctx.Err(); err != nil {
			out.State = StateFailed
			if out.Reason != "" {
				out.Reason = "analysis cancelled: " + err.Error() + "; last reason: " + out.Reason
			} else {
				out.Reason = "analysis cancelled: " + err.Error()
			}
			break
		}

		prompt := base
		if out.Attempts > 0 {
			prompt = RetryPrompt(base)
		}
		out.Attempts++

		raw, err := a.generator.Generate(ctx, prompt)
		if err != nil {
			a.record("error")
			out.Reason = "model call failed: " + err.Error()
			a.logger.Warn("model call failed",
				zap.Int("attempt", out.Attempts),
				zap.Error(err),
			)
		} else if decision, reason, ok := a.validator.Validate(raw); ok {
			a.record("valid")
			out.State = StateSucceeded
			out.Decision = decision
			out.Reason = ""
			break
		} else {
			a.record("invalid")
			out.Reason = reason
			a.logger.Warn("model response rejected",
				zap.Int("attempt", out.Attempts),
				zap.String("reason", reason),
			)
		}

		if out.Attempts >= a.maxAttempts {
			out.State = StateFailed
		}
	}
	return out
}

func (a *Analyzer) record(outcome string) {
	if a.recorder != nil {
		a.recorder.RecordModelAttempt(outcome)
	}
}
