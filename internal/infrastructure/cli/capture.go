package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/suggest-go/internal/app"
	"github.com/doeshing/suggest-go/internal/domain"
)

// captureContext assembles a CompletionContext from a file on disk or from
// stdin. The path is vetted by the sanitizer gate before anything is read.
func captureContext(container *app.Container, file string, line, column int, language string, fromStdin bool, stdin io.Reader) (domain.CompletionContext, error) {
	if !container.Sanitizer.IsPathSafe(file) {
		return domain.CompletionContext{}, &domain.ContextCaptureError{
			FilePath: file,
			Err:      fmt.Errorf("path rejected by security gate"),
		}
	}

	var source string
	if fromStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return domain.CompletionContext{}, &domain.ContextCaptureError{FilePath: file, Err: err}
		}
		source = string(data)
	} else {
		data, err := os.ReadFile(file)
		if err != nil {
			return domain.CompletionContext{}, &domain.ContextCaptureError{FilePath: file, Err: err}
		}
		source = string(data)
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if line < 1 || line > len(lines) {
		return domain.CompletionContext{}, &domain.ContextCaptureError{
			FilePath: file,
			Err:      fmt.Errorf("line %d out of range, file has %d lines", line, len(lines)),
		}
	}
	if column < 1 {
		column = 1
	}

	if language == "" {
		language = inferLanguage(file)
	}

	return domain.CompletionContext{
		FilePath:       file,
		Language:       language,
		Position:       domain.Position{Line: line, Column: column},
		CurrentLine:    lines[line-1],
		PrecedingLines: lines[:line-1],
		FollowingLines: lines[line:],
	}, nil
}

func inferLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".cs":
		return "csharp"
	case ".py":
		return "python"
	case ".js", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".hpp":
		return "cpp"
	case ".rb":
		return "ruby"
	case ".sh":
		return "shell"
	default:
		return ""
	}
}

// resolveStream picks the streaming mode: an explicit --stream flag wins,
// otherwise the config preference applies.
func resolveStream(flagSet, flagValue, configDefault bool) bool {
	if flagSet {
		return flagValue
	}
	return configDefault
}

// renderResult prints the completion outcome. In streaming mode the chunks
// have already been written, so only diagnostics remain.
func renderResult(out, errOut io.Writer, result domain.CompletionResult, streamed bool) {
	if result.Skipped {
		fmt.Fprintf(errOut, "no suggestion (%s)\n", result.SkipReason)
		return
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(errOut, "warning: suggestion flagged: %s\n", issue)
	}
	if !streamed {
		fmt.Fprintln(out, result.Suggestion.Text)
	}
	if result.FromCache {
		fmt.Fprintln(errOut, "served from cache")
	}
}
