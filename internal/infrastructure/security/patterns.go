package security

import (
	"regexp"

	"github.com/doeshing/suggest-go/internal/domain"
)

// redaction pairs a detector with its replacement. Replacements are chosen so
// that re-running Sanitize over already-redacted text is a no-op: no
// placeholder matches its own (or any other) detector.
type redaction struct {
	issue   domain.SanitizationIssue
	re      *regexp.Regexp
	replace string
}

// Ordered: structural secrets (PEM, SSH) before token-shaped ones, so a key
// block is not partially eaten by the generic matchers first.
var redactions = []redaction{
	{
		issue:   domain.IssueCredentialPattern,
		re:      regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]*?-----END [A-Z ]+-----`),
		replace: "[PEM_REDACTED]",
	},
	{
		issue:   domain.IssueCredentialPattern,
		re:      regexp.MustCompile(`\bssh-(?:rsa|ed25519|dss|ecdsa[A-Za-z0-9\-]*)\s+[A-Za-z0-9+/=]{16,}`),
		replace: "[SSH_KEY_REDACTED]",
	},
	{
		issue:   domain.IssueCredentialPattern,
		re:      regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`),
		replace: "Bearer [REDACTED]",
	},
	{
		issue:   domain.IssueCredentialPattern,
		re:      regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api[_-]?key|apikey|auth|credential|access[_-]?key|private[_-]?key)(\s*[:=]\s*)(\S+)`),
		replace: "${1}${2}********",
	},
	{
		issue:   domain.IssueURL,
		re:      regexp.MustCompile(`\bhttps?://[^\s"'<>]+`),
		replace: "https://[HOST]",
	},
	{
		issue:   domain.IssueEmailAddress,
		re:      regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		replace: "[EMAIL]",
	},
	{
		issue:   domain.IssueIPAddress,
		re:      regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		replace: "[IP_ADDR]",
	},
	{
		issue:   domain.IssueHighEntropyToken,
		re:      regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`),
		replace: "[HEX_TOKEN]",
	},
	{
		issue:   domain.IssueHighEntropyToken,
		re:      regexp.MustCompile(`\b[A-Z0-9]{24,}\b`),
		replace: "[TOKEN]",
	},
}

// Path safety denylists. Conservative: anything ambiguous is unsafe.
var (
	pathTraversalRe = regexp.MustCompile(`(^|[\\/])\.\.([\\/]|$)`)
	envExpansionRe  = regexp.MustCompile(`\$\{?[A-Za-z_][A-Za-z0-9_]*\}?|%[A-Za-z_][A-Za-z0-9_]*%|^~`)

	systemDirPrefixes = []string{
		"/etc/", "/sys/", "/proc/", "/dev/", "/boot/", "/root/",
		`c:\windows`, `c:\program files`, `c:\programdata`,
	}

	sensitiveDirNames = []string{
		".ssh", ".aws", ".gnupg", ".gpg", ".kube", ".docker",
		".git", ".svn", ".hg",
		"credentials", "secrets",
		"id_rsa", "id_ed25519", ".netrc", ".npmrc", ".pypirc",
	}
)
