// Package security implements the content-sanitization gate between the
// editor and the inference backend.
//
// Outbound editor context is screened for credentials and PII before it may
// leave the process; inbound suggestions are screened for dangerous command
// patterns. Screening flags content, redaction rewrites it; what to do with a
// flagged suggestion is the caller's policy, not this package's.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// Gate implements the ports.Sanitizer port. Construct with NewGate; the zero
// value has no compiled patterns and rejects everything.
type Gate struct {
	dangerRules     []compiledRule
	maxRequestBytes int
}

// NewGate compiles the pattern sets. Danger rules come from the YAML rules
// file (or compiled-in defaults when missing); redaction patterns are fixed.
func NewGate(settings domain.SanitizerSettings) (*Gate, error) {
	rules, err := loadRules(settings.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load sanitizer rules: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules.Rules.DangerPatterns))
	for _, rule := range rules.Rules.DangerPatterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile danger pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, rule: rule})
	}

	maxKB := settings.MaxRequestSizeKB
	if maxKB <= 0 {
		maxKB = domain.DefaultMaxRequestSizeKB
	}

	return &Gate{
		dangerRules:     compiled,
		maxRequestBytes: maxKB * 1024,
	}, nil
}

// ValidateOutboundContext scans every text field of the context against the
// credential/PII pattern library. Any match adds an issue; the context is
// invalid if issues is non-empty. Never panics: an internal failure yields a
// conservative invalid result.
func (g *Gate) ValidateOutboundContext(ctx domain.CompletionContext) (result domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ValidationResult{
				Valid:   false,
				Issues:  []domain.SanitizationIssue{domain.IssueCredentialPattern},
				Message: "outbound validation failed internally; rejecting conservatively",
			}
		}
	}()

	seen := make(map[domain.SanitizationIssue]bool)
	var issues []domain.SanitizationIssue
	add := func(issue domain.SanitizationIssue) {
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}

	for _, field := range ctx.TextFields() {
		if field == "" {
			continue
		}
		for _, red := range redactions {
			if red.re.MatchString(field) {
				add(red.issue)
			}
		}
	}
	if ctx.FilePath != "" {
		if issue, unsafe := pathIssue(ctx.FilePath); unsafe {
			add(issue)
		}
	}

	if len(issues) == 0 {
		return domain.ValidationResult{Valid: true}
	}
	return domain.ValidationResult{
		Valid:   false,
		Issues:  issues,
		Message: fmt.Sprintf("context rejected: %s", joinIssues(issues)),
	}
}

// ValidateInboundSuggestion scans suggestion text for dangerous command
// substrings. Matches are flagged, never stripped.
func (g *Gate) ValidateInboundSuggestion(text string) (result domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ValidationResult{
				Valid:   false,
				Issues:  []domain.SanitizationIssue{domain.IssueDangerousCommand},
				Message: "inbound validation failed internally; flagging conservatively",
			}
		}
	}()

	if text == "" {
		return domain.ValidationResult{Valid: true}
	}

	var messages []string
	for _, rule := range g.dangerRules {
		if rule.re.MatchString(text) {
			messages = append(messages, rule.rule.Message)
		}
	}
	if len(messages) == 0 {
		return domain.ValidationResult{Valid: true}
	}

	issues := make([]domain.SanitizationIssue, len(messages))
	for i := range messages {
		issues[i] = domain.IssueDangerousCommand
	}
	return domain.ValidationResult{
		Valid:   false,
		Issues:  issues,
		Message: fmt.Sprintf("suggestion flagged: %s", strings.Join(messages, "; ")),
	}
}

// Sanitize performs best-effort redaction and never panics. Credentials keep
// their key with a fixed-length mask; emails, IPs and tokens become fixed
// placeholders; URLs lose their host. Idempotent: sanitizing already
// sanitized text is a no-op. Any internal failure returns the sentinel
// rather than the original, possibly sensitive, text.
func (g *Gate) Sanitize(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.SanitizedSentinel
		}
	}()

	out = text
	for _, red := range redactions {
		out = red.re.ReplaceAllString(out, red.replace)
	}
	return out
}

// IsPathSafe rejects traversal sequences, environment expansions, system
// directories, and sensitive directory names. Conservative-deny: an empty or
// unparseable path is unsafe.
func (g *Gate) IsPathSafe(path string) bool {
	_, unsafe := pathIssue(path)
	return !unsafe
}

// pathIssue classifies why a path is unsafe. Traversal sequences get their
// own issue tag; every other rejection reports a generic unsafe path.
func pathIssue(path string) (domain.SanitizationIssue, bool) {
	if strings.TrimSpace(path) == "" {
		return domain.IssueUnsafePath, true
	}
	if pathTraversalRe.MatchString(path) {
		return domain.IssuePathTraversal, true
	}
	if envExpansionRe.MatchString(path) {
		return domain.IssueUnsafePath, true
	}

	lower := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	for _, prefix := range systemDirPrefixes {
		normalized := strings.ReplaceAll(prefix, "\\", "/")
		if strings.HasPrefix(lower, normalized) || lower == strings.TrimSuffix(normalized, "/") {
			return domain.IssueUnsafePath, true
		}
	}
	for _, segment := range strings.Split(lower, "/") {
		for _, name := range sensitiveDirNames {
			if segment == name {
				return domain.IssueUnsafePath, true
			}
		}
	}
	return "", false
}

// CheckSize rejects contexts whose total UTF-8 size exceeds the configured
// ceiling. Rejection, not truncation: the measured size is reported for
// diagnostics.
func (g *Gate) CheckSize(ctx domain.CompletionContext) domain.ValidationResult {
	total := 0
	for _, field := range ctx.TextFields() {
		total += len(field)
	}
	if total <= g.maxRequestBytes {
		return domain.ValidationResult{Valid: true}
	}
	return domain.ValidationResult{
		Valid:   false,
		Issues:  []domain.SanitizationIssue{domain.IssueOversizedContext},
		Message: fmt.Sprintf("context size %d bytes exceeds ceiling %d bytes", total, g.maxRequestBytes),
	}
}

func joinIssues(issues []domain.SanitizationIssue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = string(issue)
	}
	return strings.Join(parts, ", ")
}

var _ ports.Sanitizer = (*Gate)(nil)
