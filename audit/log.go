package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/schema"
	"github.com/3r453r/math-courses-sub001/types"
)

// DefaultRetention is how long sensitive persisted payloads live before
// the retention sweep may purge them.
const DefaultRetention = 30 * 24 * time.Hour

// Info is the identifying context of one generation attempt.
type Info struct {
	GenerationType string
	SchemaName     string
	Model          string
	Provider       string
	UserID         string
	CourseID       string
	ItemID         string
	Language       string
	Difficulty     string
	Prompt         string
}

// Option configures a Log.
type Option func(*Log)

// WithInlineThreshold overrides the redaction inline threshold.
func WithInlineThreshold(n int) Option {
	return func(l *Log) { l.inlineThreshold = n }
}

// WithRetention overrides the sensitive-payload retention window.
func WithRetention(d time.Duration) Option {
	return func(l *Log) { l.retention = d }
}

// Log observes the repair layers invoked during one generation attempt
// and finalizes one audit record. Record-calls may arrive in any order,
// at most one per layer plus at most one failure; Finalize is idempotent
// and must never fail the generation it observes.
type Log struct {
	mu sync.Mutex

	info   Info
	rec    AttemptRecord
	sink   Sink
	logger *zap.Logger

	rawOutput    string
	envelopeKind string
	layer2Model  string
	failureMsg   string
	violations   []schema.Violation
	diagnostics  []schema.Diagnostic

	inlineThreshold int
	retention       time.Duration

	start     time.Time
	finalized bool
}

// NewLog starts observing a generation attempt.
func NewLog(info Info, sink Sink, logger *zap.Logger, opts ...Option) *Log {
	l := &Log{
		info:            info,
		sink:            sink,
		logger:          logger.With(zap.String("component", "outcome_logger")),
		inlineThreshold: DefaultInlineThreshold,
		retention:       DefaultRetention,
		start:           time.Now(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordLayer0 records the in-flight repair hook firing.
func (l *Log) RecordLayer0(report *llm.HookReport, raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer0Invoked = true
	if report != nil {
		l.rec.Layer0Result = report.Result
		l.envelopeKind = report.EnvelopeKind
	}
	if raw != "" {
		l.rawOutput = raw
	}
}

// RecordInvocationSuccess records the invoker's explicit acceptance
// signal. Required before layer-0 repair can resolve to repaired_layer0.
func (l *Log) RecordInvocationSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.InvocationSucceeded = true
}

// RecordLayer1 records the direct-coercion layer.
func (l *Log) RecordLayer1(success bool, raw string, envelopeKind string, violations []schema.Violation, diags []schema.Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer1Invoked = true
	l.rec.Layer1Success = success
	if raw != "" {
		l.rawOutput = raw
	}
	if envelopeKind != "" {
		l.envelopeKind = envelopeKind
	}
	l.violations = append(l.violations, violations...)
	l.diagnostics = append(l.diagnostics, diags...)
}

// RecordLayer2 records the assisted-repack layer.
func (l *Log) RecordLayer2(success bool, model string, violations []schema.Violation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer2Invoked = true
	l.rec.Layer2Success = success
	l.layer2Model = model
	l.violations = append(l.violations, violations...)
}

// RecordFailure records a hard failure (no repair layer applicable).
func (l *Log) RecordFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.FailureRecorded = true
	if err != nil {
		l.failureMsg = err.Error()
		if raw, ok := types.RawTextOf(err); ok && l.rawOutput == "" {
			l.rawOutput = raw
		}
	}
}

// Outcome resolves the current outcome without finalizing.
func (l *Log) Outcome() types.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ResolveOutcome(l.rec)
}

// Finalize resolves the outcome, applies the redaction policy, and
// appends the audit record. A second call is a no-op; sink failures are
// logged and swallowed.
func (l *Log) Finalize(ctx context.Context) types.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := ResolveOutcome(l.rec)
	if l.finalized {
		return outcome
	}
	l.finalized = true

	rec := l.buildRecord(outcome)
	if l.sink != nil {
		if err := l.sink.Append(ctx, rec); err != nil {
			l.logger.Warn("audit append failed, swallowed",
				zap.String("record_id", rec.ID),
				zap.Error(err),
			)
		}
	}

	l.logger.Debug("generation attempt finalized",
		zap.String("record_id", rec.ID),
		zap.String("generation_type", l.info.GenerationType),
		zap.String("outcome", string(outcome)),
		zap.Int64("duration_ms", rec.DurationMS),
	)
	return outcome
}

func (l *Log) buildRecord(outcome types.Outcome) *Record {
	rec := &Record{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now(),
		GenerationType: l.info.GenerationType,
		SchemaName:     l.info.SchemaName,
		Model:          l.info.Model,
		Provider:       l.info.Provider,
		UserID:         l.info.UserID,
		CourseID:       l.info.CourseID,
		ItemID:         l.info.ItemID,
		Language:       l.info.Language,
		Difficulty:     l.info.Difficulty,
		Outcome:        string(outcome),
		Layer0Invoked:  l.rec.Layer0Invoked,
		Layer0Result:   string(l.rec.Layer0Result),
		Layer1Invoked:  l.rec.Layer1Invoked,
		Layer1Success:  l.rec.Layer1Success,
		Layer2Invoked:  l.rec.Layer2Invoked,
		Layer2Success:  l.rec.Layer2Success,
		Layer2Model:    l.layer2Model,
		EnvelopeKind:   l.envelopeKind,
		FailureMessage: l.failureMsg,
		DurationMS:     time.Since(l.start).Milliseconds(),
	}

	if l.rawOutput != "" {
		text, hash, redacted := sanitize(l.rawOutput, l.inlineThreshold, false)
		rec.RawOutput = text
		rec.RawOutputLen = len(l.rawOutput)
		rec.RawOutputHash = hash
		rec.RawOutputRedacted = redacted
	}

	// The prompt hash is always kept; full text only has diagnostic value
	// for non-success outcomes.
	rec.PromptHash = HashText(l.info.Prompt)
	rec.PromptTokenCount = PromptTokens(l.info.Prompt)
	if outcome != types.OutcomeSuccess && l.info.Prompt != "" {
		text, _, redacted := sanitize(l.info.Prompt, l.inlineThreshold, true)
		rec.PromptText = text
		rec.PromptRedacted = redacted
	}

	if len(l.violations) > 0 {
		if b, err := json.Marshal(l.violations); err == nil {
			rec.Violations = string(b)
		}
	}
	if len(l.diagnostics) > 0 {
		if b, err := json.Marshal(l.diagnostics); err == nil {
			rec.Diagnostics = string(b)
		}
	}

	// Sensitive payloads persisted in clear get an expiry for the
	// retention sweep.
	if rec.RawOutput != "" || rec.PromptText != "" {
		exp := rec.CreatedAt.Add(l.retention)
		rec.ExpiresAt = &exp
	}

	return rec
}
