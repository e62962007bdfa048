package domain

// SanitizationIssue tags why content was rejected or what was redacted.
type SanitizationIssue string

const (
	IssueCredentialPattern SanitizationIssue = "credential-pattern"
	IssueEmailAddress      SanitizationIssue = "email-address"
	IssueIPAddress         SanitizationIssue = "ip-address"
	IssueURL               SanitizationIssue = "url"
	IssueHighEntropyToken  SanitizationIssue = "high-entropy-token"
	IssuePathTraversal     SanitizationIssue = "path-traversal"
	IssueUnsafePath        SanitizationIssue = "unsafe-path"
	IssueDangerousCommand  SanitizationIssue = "dangerous-command"
	IssueOversizedContext  SanitizationIssue = "oversized-context"
)

// ValidationResult aggregates sanitizer findings for one piece of content.
// Content is valid only when Issues is empty.
type ValidationResult struct {
	Valid   bool
	Issues  []SanitizationIssue
	Message string
}

// SanitizedSentinel replaces content when redaction itself fails. Returning
// the sentinel is always preferred over returning possibly sensitive text.
const SanitizedSentinel = "[CONTENT_SANITIZED]"
