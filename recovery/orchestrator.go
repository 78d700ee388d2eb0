package recovery

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/3r453r/math-courses-sub001/audit"
	"github.com/3r453r/math-courses-sub001/internal/metrics"
	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/schema"
	"github.com/3r453r/math-courses-sub001/textrepair"
	"github.com/3r453r/math-courses-sub001/types"
)

// Request describes one generation attempt.
type Request struct {
	Prompt         string
	Schema         *schema.Schema
	Provider       llm.Provider
	Model          string
	MaxTokens      int
	Temperature    float32
	GenerationType string
	Credentials    *llm.Credentials

	// Optional identifying context for the audit record.
	UserID     string
	CourseID   string
	ItemID     string
	Language   string
	Difficulty string
}

// Orchestrator runs a single generation attempt through the three
// escalating repair layers and finalizes exactly one audit record per
// attempt.
type Orchestrator struct {
	invoker   llm.Invoker
	sink      audit.Sink
	logger    *zap.Logger
	collector *metrics.Collector
	logOpts   []audit.Option
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// WithLogOptions passes options through to every audit log.
func WithLogOptions(opts ...audit.Option) Option {
	return func(o *Orchestrator) { o.logOpts = opts }
}

// New creates a recovery orchestrator.
func New(invoker llm.Invoker, sink audit.Sink, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker: invoker,
		sink:    sink,
		logger:  logger.With(zap.String("component", "recovery")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs one attempt: invocation with the layer-0 hook, then
// direct coercion, then assisted repack. On success the validated value
// is returned; on failure the original invocation error is returned and
// the full diagnostic trail lives in the audit record.
func (o *Orchestrator) Generate(ctx context.Context, req *Request) (any, error) {
	log := audit.NewLog(audit.Info{
		GenerationType: req.GenerationType,
		SchemaName:     req.Schema.Name,
		Model:          req.Model,
		Provider:       string(req.Provider),
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		ItemID:         req.ItemID,
		Language:       req.Language,
		Difficulty:     req.Difficulty,
		Prompt:         req.Prompt,
	}, o.sink, o.logger, o.logOpts...)
	start := time.Now()
	defer o.finish(ctx, req, log, start)

	baseHook := llm.NewRepairHook(req.Schema)
	hook := func(raw string, parseErr error) (any, *llm.HookReport) {
		v, report := baseHook(raw, parseErr)
		log.RecordLayer0(report, raw)
		o.observeLayer(0, string(report.Result))
		return v, report
	}

	res, err := o.invoker.Invoke(ctx, &llm.InvokeRequest{
		Prompt:      req.Prompt,
		Schema:      req.Schema,
		Provider:    req.Provider,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		RepairHook:  hook,
	})
	if err == nil {
		log.RecordInvocationSuccess()
		return res.Value, nil
	}

	// Repair only applies to malformed-but-present output. Hard failures
	// with no raw text skip layers 1-2 entirely.
	raw, hasRaw := types.RawTextOf(err)
	if !hasRaw {
		log.RecordFailure(err)
		return nil, err
	}

	if value, ok := o.layer1(raw, req.Schema, log); ok {
		return value, nil
	}
	if value, ok := o.layer2(ctx, raw, req, log); ok {
		return value, nil
	}

	// All layers exhausted: re-raise the original error; diagnostics are
	// already attached to the audit record.
	return nil, err
}

// layer1 parses the captured raw text directly, unwraps known envelopes,
// and runs schema coercion.
func (o *Orchestrator) layer1(raw string, s *schema.Schema, log *audit.Log) (any, bool) {
	parsed, err := textrepair.LenientParse(raw)
	if err != nil {
		log.RecordLayer1(false, raw, "", nil, nil)
		o.observeLayer(1, "parse_failed")
		return nil, false
	}

	parsed, envelopeKind, _ := textrepair.UnwrapEnvelope(parsed)

	coerced, diags := schema.Coerce(parsed, s)
	violations := schema.Validate(coerced, s)
	ok := len(violations) == 0
	log.RecordLayer1(ok, raw, envelopeKind, violations, diags)
	if ok {
		o.observeLayer(1, "success")
		return coerced, true
	}
	o.observeLayer(1, "invalid")
	return nil, false
}

// layer2 asks the cheapest credentialed model to repack the malformed
// output: structure fixes only, content preserved.
func (o *Orchestrator) layer2(ctx context.Context, raw string, req *Request, log *audit.Log) (any, bool) {
	choice, ok := llm.CheapestAvailable(req.Credentials, llm.RepackModels)
	if !ok {
		log.RecordLayer2(false, "", nil)
		o.observeLayer(2, "no_credentials")
		return nil, false
	}

	// Temperature stays zero: repacking is structure fixing, not writing.
	res, err := o.invoker.Invoke(ctx, &llm.InvokeRequest{
		Prompt:    buildRepackPrompt(req.Schema, raw),
		Schema:    req.Schema,
		Provider:  choice.Provider,
		Model:     choice.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		log.RecordLayer2(false, choice.Model, nil)
		o.observeLayer(2, "invoke_failed")
		return nil, false
	}

	coerced, _ := schema.Coerce(res.Value, req.Schema)
	violations := schema.Validate(coerced, req.Schema)
	ok = len(violations) == 0
	log.RecordLayer2(ok, choice.Model, violations)
	if ok {
		o.observeLayer(2, "success")
		return coerced, true
	}
	o.observeLayer(2, "invalid")
	return nil, false
}

func (o *Orchestrator) finish(ctx context.Context, req *Request, log *audit.Log, start time.Time) {
	outcome := log.Finalize(ctx)
	if o.collector != nil {
		o.collector.ObserveGeneration(req.GenerationType, string(req.Provider), string(outcome))
		o.collector.ObserveGenerationDuration(req.GenerationType, time.Since(start))
	}
}

func (o *Orchestrator) observeLayer(layer int, result string) {
	if o.collector != nil {
		o.collector.ObserveRepairLayer(layer, result)
	}
}

// buildRepackPrompt asks a model to fix structural issues only,
// preserving all content, conforming to the schema.
func buildRepackPrompt(s *schema.Schema, raw string) string {
	schemaJSON, err := s.ToJSONIndent()
	if err != nil {
		schemaJSON = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("The following output was produced for a JSON schema but is structurally invalid.\n\n")
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Fix structural issues ONLY: quoting, nesting, truncation, field casing.\n")
	sb.WriteString("2. Preserve ALL content exactly; do not rewrite, summarize, or invent text.\n")
	sb.WriteString("3. Respond with valid JSON conforming to the schema below.\n")
	sb.WriteString("4. Do NOT wrap the JSON in markdown code blocks or add any other text.\n\n")
	sb.WriteString("Schema:\n```json\n")
	sb.Write(schemaJSON)
	sb.WriteString("\n```\n\nMalformed output:\n```\n")
	sb.WriteString(raw)
	sb.WriteString("\n```\n")
	return sb.String()
}
