package security

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/suggest-go/internal/pkg/filesystem"
)

// DangerPattern describes a regex rule applied to inbound suggestions.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root for sanitizer rules.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

type compiledRule struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// loadRules reads danger patterns from disk, falling back to compiled-in
// defaults when the file is missing or empty.
func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	data, err := os.ReadFile(expandRulesPath(path))
	if err != nil {
		rules.Rules.DangerPatterns = defaultDangerPatterns()
		return rules, nil
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	if len(rules.Rules.DangerPatterns) == 0 {
		rules.Rules.DangerPatterns = defaultDangerPatterns()
	}
	return rules, nil
}

func expandRulesPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.ConfigDir(), "sanitizer.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Join(filesystem.UserHomeDir(), path)
}

func defaultDangerPatterns() []DangerPattern {
	return []DangerPattern{
		{Pattern: `\b(?:ba|z|fi)?sh\s+-c\b`, Message: "Shell invocation"},
		{Pattern: `\bcmd(?:\.exe)?\s+/c\b`, Message: "Windows shell invocation"},
		{Pattern: `(?i)\bpowershell(?:\.exe)?\b.*-(?:enc|encodedcommand)\b`, Message: "Encoded PowerShell payload"},
		{Pattern: `\bos/exec\b|\bexec\.Command\b`, Message: "Process execution API"},
		{Pattern: `\bProcess\.Start\b|\bsubprocess\.(?:run|call|Popen)\b`, Message: "Process execution API"},
		{Pattern: `\beval\s*\(`, Message: "Dynamic code evaluation"},
		{Pattern: `\brm\s+-[a-z]*r[a-z]*f\b|\brm\s+-[a-z]*f[a-z]*r\b`, Message: "Recursive force delete"},
		{Pattern: `\bdel\s+/[sq]\b`, Message: "Recursive Windows delete"},
		{Pattern: `\bmkfs\.|\bdd\s+if=`, Message: "Destructive disk operation"},
		{Pattern: `(?:curl|wget)[^|\n]*\|\s*(?:ba|z)?sh\b`, Message: "Piping remote script to shell"},
		{Pattern: `\bnc\s+(?:-[a-z]*e|\S+\s+\d+\s*<)`, Message: "Netcat remote execution"},
		{Pattern: `\bchmod\s+777\b`, Message: "Overly permissive chmod"},
		{Pattern: `:\(\)\s*\{\s*:\|\s*:\s*&\s*\}\s*;\s*:`, Message: "Fork bomb"},
	}
}
