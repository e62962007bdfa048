package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

func testConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences: domain.Preferences{
			DefaultModel: "local",
		},
		Models: []domain.ModelDefinition{
			{Name: "local", Endpoint: "http://localhost:11434/v1", ModelID: "codellama:7b"},
			{Name: "alt", Endpoint: "http://localhost:11434/v1", ModelID: "qwen:7b"},
		},
		Debounce: domain.DebounceSettings{DelayMS: 1},
		Cache:    domain.CacheSettings{TTL: "5m", MaxEntries: 100},
		Retry:    domain.RetrySettings{Count: 2, BaseDelayMS: 1, MaxDelayMS: 5},
		History:  domain.HistorySettings{MaxDepth: 100},
	}
}

func testRequest() domain.CompletionRequest {
	return domain.CompletionRequest{
		Context: context.Background(),
		Completion: domain.CompletionContext{
			FilePath:       "internal/math/add.go",
			Language:       "go",
			Position:       domain.Position{Line: 3, Column: 1},
			PrecedingLines: []string{"func Add(a, b int) int {"},
		},
	}
}

type stubConfigProvider struct {
	cfg domain.Config
	err error
}

func (s *stubConfigProvider) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubProvider struct {
	model      domain.ModelDefinition
	calls      int
	failBefore int // fail the first n attempts
	failWith   error
	suggestion domain.Suggestion
}

func (p *stubProvider) Name() string                  { return "stub" }
func (p *stubProvider) Model() domain.ModelDefinition { return p.model }

func (p *stubProvider) Complete(ctx context.Context, req ports.ProviderRequest) (domain.Suggestion, error) {
	p.calls++
	if p.calls <= p.failBefore {
		return domain.Suggestion{}, p.failWith
	}
	return p.suggestion, nil
}

func (p *stubProvider) CompleteStream(ctx context.Context, req ports.ProviderRequest, w domain.StreamWriter) (domain.Suggestion, error) {
	suggestion, err := p.Complete(ctx, req)
	if err != nil {
		return domain.Suggestion{}, err
	}
	w.WriteChunk(suggestion.Text)
	w.Done()
	return suggestion, nil
}

type stubFactory struct {
	provider *stubProvider
	err      error
}

func (f *stubFactory) ForModel(m domain.ModelDefinition) (ports.CompletionProvider, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.provider.model = m
	return f.provider, nil
}

// stubSanitizer passes everything through unless toggled.
type stubSanitizer struct {
	rejectOutbound bool
	rejectSize     bool
	inboundIssues  []domain.SanitizationIssue
}

func (s *stubSanitizer) ValidateOutboundContext(domain.CompletionContext) domain.ValidationResult {
	if s.rejectOutbound {
		return domain.ValidationResult{Issues: []domain.SanitizationIssue{domain.IssueCredentialPattern}}
	}
	return domain.ValidationResult{Valid: true}
}

func (s *stubSanitizer) ValidateInboundSuggestion(string) domain.ValidationResult {
	if len(s.inboundIssues) > 0 {
		return domain.ValidationResult{Issues: s.inboundIssues}
	}
	return domain.ValidationResult{Valid: true}
}

func (s *stubSanitizer) Sanitize(text string) string { return text }
func (s *stubSanitizer) IsPathSafe(string) bool      { return true }

func (s *stubSanitizer) CheckSize(domain.CompletionContext) domain.ValidationResult {
	if s.rejectSize {
		return domain.ValidationResult{
			Issues:  []domain.SanitizationIssue{domain.IssueOversizedContext},
			Message: "context is 128000 bytes, limit is 65536",
		}
	}
	return domain.ValidationResult{Valid: true}
}

type stubCache struct {
	entries map[string]domain.Suggestion
	setTTL  time.Duration
}

func (c *stubCache) TryGet(key string) (domain.Suggestion, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *stubCache) Set(key string, value domain.Suggestion, ttl time.Duration) {
	if c.entries == nil {
		c.entries = map[string]domain.Suggestion{}
	}
	c.entries[key] = value
	c.setTTL = ttl
}

func (c *stubCache) Close() {}

type stubTracker struct {
	recorded []domain.HistoryEntry
}

func (t *stubTracker) Record(e domain.HistoryEntry)                       { t.recorded = append(t.recorded, e) }
func (t *stubTracker) Recent(int) []domain.HistoryEntry                   { return t.recorded }
func (t *stubTracker) ForFile(string, int) []domain.HistoryEntry          { return nil }
func (t *stubTracker) SetMaxDepth(int)                                    {}
func (t *stubTracker) Clear()                                             { t.recorded = nil }

// immediateScheduler runs the work synchronously, as the winning caller
// would observe it.
type immediateScheduler struct{}

func (immediateScheduler) Schedule(ctx context.Context, key string, delay time.Duration, fn func(context.Context) error) error {
	return fn(ctx)
}
func (immediateScheduler) Cancel(string) bool  { return false }
func (immediateScheduler) CancelAll()          {}
func (immediateScheduler) PendingCount() int   { return 0 }

// supersededScheduler never runs the work, as a replaced caller observes.
type supersededScheduler struct{}

func (supersededScheduler) Schedule(context.Context, string, time.Duration, func(context.Context) error) error {
	return nil
}
func (supersededScheduler) Cancel(string) bool { return false }
func (supersededScheduler) CancelAll()         {}
func (supersededScheduler) PendingCount() int  { return 0 }

type stubRecovery struct {
	handled bool
	calls   int
	lastErr error
}

func (r *stubRecovery) Handle(_ context.Context, err error, _ string, _ map[string]interface{}) bool {
	r.calls++
	r.lastErr = err
	return r.handled
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

type fixture struct {
	service   *CompletionService
	provider  *stubProvider
	sanitizer *stubSanitizer
	cache     *stubCache
	tracker   *stubTracker
	recovery  *stubRecovery
}

func newFixture() *fixture {
	provider := &stubProvider{
		suggestion: domain.Suggestion{Text: "\treturn a + b\n}", Confidence: 0.9, Model: "codellama:7b"},
	}
	f := &fixture{
		provider:  provider,
		sanitizer: &stubSanitizer{},
		cache:     &stubCache{},
		tracker:   &stubTracker{},
		recovery:  &stubRecovery{},
	}
	f.service = &CompletionService{
		ConfigProvider:  &stubConfigProvider{cfg: testConfig()},
		ProviderFactory: &stubFactory{provider: provider},
		Sanitizer:       f.sanitizer,
		Cache:           f.cache,
		History:         f.tracker,
		Scheduler:       immediateScheduler{},
		Recovery:        f.recovery,
		Logger:          nopLogger{},
	}
	return f
}

func TestRequestCompletionHappyPath(t *testing.T) {
	f := newFixture()

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v", err)
	}
	if result.Skipped {
		t.Fatalf("result skipped with reason %q, want a suggestion", result.SkipReason)
	}
	if result.Suggestion.Text != "\treturn a + b\n}" {
		t.Fatalf("Text = %q, want provider suggestion", result.Suggestion.Text)
	}
	if result.FromCache {
		t.Fatal("FromCache = true on first request")
	}
	if result.CorrelationID == "" {
		t.Fatal("CorrelationID was not assigned")
	}
	if f.provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", f.provider.calls)
	}
	if len(f.cache.entries) != 1 {
		t.Fatalf("cache entries = %d, want the response stored", len(f.cache.entries))
	}
	if f.cache.setTTL != 5*time.Minute {
		t.Fatalf("cache TTL = %v, want configured 5m", f.cache.setTTL)
	}
}

func TestRequestCompletionRecordsHistory(t *testing.T) {
	f := newFixture()
	req := testRequest()

	if _, err := f.service.RequestCompletion(req); err != nil {
		t.Fatalf("RequestCompletion error = %v", err)
	}
	if len(f.tracker.recorded) != 1 {
		t.Fatalf("history entries = %d, want 1", len(f.tracker.recorded))
	}
	entry := f.tracker.recorded[0]
	if entry.FilePath != req.Completion.FilePath {
		t.Fatalf("FilePath = %q, want request path", entry.FilePath)
	}
	if entry.Kind != domain.ChangeCompletion || !entry.FromSuggestion {
		t.Fatalf("entry = %+v, want completion kind from suggestion", entry)
	}
	if strings.Contains(entry.Snippet, "\n") {
		t.Fatalf("Snippet = %q, want first line only", entry.Snippet)
	}
	if diff := cmp.Diff(req.Completion.Position, entry.Position); diff != "" {
		t.Fatalf("Position mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestCompletionServesFromCache(t *testing.T) {
	f := newFixture()
	req := testRequest()

	if _, err := f.service.RequestCompletion(req); err != nil {
		t.Fatalf("first request error = %v", err)
	}
	result, err := f.service.RequestCompletion(req)
	if err != nil {
		t.Fatalf("second request error = %v", err)
	}
	if !result.FromCache {
		t.Fatal("second identical request missed the cache")
	}
	if f.provider.calls != 1 {
		t.Fatalf("provider calls = %d, want the cached path to skip the backend", f.provider.calls)
	}
}

func TestRequestCompletionFingerprintVariesByModel(t *testing.T) {
	f := newFixture()
	req := testRequest()

	if _, err := f.service.RequestCompletion(req); err != nil {
		t.Fatalf("first request error = %v", err)
	}
	req.ModelOverride = "alt"
	if _, err := f.service.RequestCompletion(req); err != nil {
		t.Fatalf("override request error = %v", err)
	}
	if f.provider.calls != 2 {
		t.Fatalf("provider calls = %d, want a second call for the other model", f.provider.calls)
	}
}

func TestRequestCompletionSkipsOnSanitizerRejection(t *testing.T) {
	f := newFixture()
	f.sanitizer.rejectOutbound = true

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v, want silent skip", err)
	}
	if !result.Skipped || result.SkipReason != SkipSanitization {
		t.Fatalf("result = %+v, want skipped for sanitization", result)
	}
	if f.provider.calls != 0 {
		t.Fatal("rejected context still reached the backend")
	}
	if len(f.tracker.recorded) != 0 {
		t.Fatal("skipped request recorded history")
	}
}

func TestRequestCompletionSkipsOnOversizedContext(t *testing.T) {
	f := newFixture()
	f.sanitizer.rejectSize = true

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v, want silent skip", err)
	}
	if !result.Skipped || result.SkipReason != SkipOversized {
		t.Fatalf("result = %+v, want skipped for size", result)
	}
	if f.provider.calls != 0 {
		t.Fatal("oversized context still reached the backend")
	}
}

func TestRequestCompletionFlagsInboundIssues(t *testing.T) {
	f := newFixture()
	f.sanitizer.inboundIssues = []domain.SanitizationIssue{domain.IssueDangerousCommand}

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v", err)
	}
	if result.Skipped {
		t.Fatal("flagged suggestion was dropped, want it returned with issues")
	}
	if diff := cmp.Diff([]domain.SanitizationIssue{domain.IssueDangerousCommand}, result.Issues); diff != "" {
		t.Fatalf("Issues mismatch (-want +got):\n%s", diff)
	}
	if result.Suggestion.Text == "" {
		t.Fatal("suggestion text was stripped, flagging must not modify it")
	}
}

func TestRequestCompletionRetriesThenSucceeds(t *testing.T) {
	f := newFixture()
	f.provider.failBefore = 2
	f.provider.failWith = &domain.ConnectionError{Endpoint: "http://localhost:11434", Err: errors.New("refused")}

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v, want retry success", err)
	}
	if result.Skipped {
		t.Fatalf("result skipped with reason %q after retries succeeded", result.SkipReason)
	}
	if f.provider.calls != 3 {
		t.Fatalf("provider calls = %d, want initial + 2 retries", f.provider.calls)
	}
	if f.recovery.calls != 0 {
		t.Fatal("recovery invoked even though retries succeeded")
	}
}

func TestRequestCompletionRecoveredFailureSkips(t *testing.T) {
	f := newFixture()
	f.provider.failBefore = 10
	f.provider.failWith = &domain.ConnectionError{Endpoint: "http://localhost:11434", Err: errors.New("refused")}
	f.recovery.handled = true

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v, want recovered skip", err)
	}
	if !result.Skipped || result.SkipReason != string(domain.KindConnection) {
		t.Fatalf("result = %+v, want skipped with connection reason", result)
	}
	if f.recovery.calls != 1 {
		t.Fatalf("recovery calls = %d, want 1", f.recovery.calls)
	}
	if f.provider.calls != 3 {
		t.Fatalf("provider calls = %d, want retry budget exhausted first", f.provider.calls)
	}
}

func TestRequestCompletionUnrecoveredFailureSurfaces(t *testing.T) {
	f := newFixture()
	f.provider.failBefore = 10
	f.provider.failWith = &domain.ModelError{Model: "codellama:7b", Err: errors.New("overloaded")}
	f.recovery.handled = false

	_, err := f.service.RequestCompletion(testRequest())
	var modelErr *domain.ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("error = %v, want the provider's *domain.ModelError", err)
	}
	if len(f.cache.entries) != 0 {
		t.Fatal("failed request was cached")
	}
	if len(f.tracker.recorded) != 0 {
		t.Fatal("failed request recorded history")
	}
}

func TestRequestCompletionSupersededCallerGetsSkip(t *testing.T) {
	f := newFixture()
	f.service.Scheduler = supersededScheduler{}

	result, err := f.service.RequestCompletion(testRequest())
	if err != nil {
		t.Fatalf("RequestCompletion error = %v, want nil for superseded caller", err)
	}
	if !result.Skipped || result.SkipReason != SkipSuperseded {
		t.Fatalf("result = %+v, want superseded skip", result)
	}
	if result.CorrelationID == "" {
		t.Fatal("superseded result lost its correlation ID")
	}
}

func TestRequestCompletionRejectsUnknownModelOverride(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.ModelOverride = "no-such-model"

	_, err := f.service.RequestCompletion(req)
	var captureErr *domain.ContextCaptureError
	if !errors.As(err, &captureErr) {
		t.Fatalf("error = %v, want configuration failure", err)
	}
}

func TestRequestCompletionRejectsEmptyFilePath(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.Completion.FilePath = ""

	if _, err := f.service.RequestCompletion(req); err == nil {
		t.Fatal("empty file path accepted, want error")
	}
}

func TestRequestCompletionStreamsThroughWriter(t *testing.T) {
	f := newFixture()
	writer := &recordingWriter{}
	req := testRequest()
	req.Stream = true
	req.StreamWriter = writer

	result, err := f.service.RequestCompletion(req)
	if err != nil {
		t.Fatalf("RequestCompletion error = %v", err)
	}
	if !writer.done {
		t.Fatal("stream writer Done was not called")
	}
	if strings.Join(writer.chunks, "") != result.Suggestion.Text {
		t.Fatalf("streamed %q, final %q, want them to agree", strings.Join(writer.chunks, ""), result.Suggestion.Text)
	}
}

type recordingWriter struct {
	chunks []string
	done   bool
}

func (w *recordingWriter) WriteChunk(text string) { w.chunks = append(w.chunks, text) }
func (w *recordingWriter) Done()                  { w.done = true }
