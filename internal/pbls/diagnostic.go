package pbls

import (
	"bytes"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// diagnosticLineRe matches a protoc-style stderr line:
// "path/to/file.proto:12:3: message text."
var diagnosticLineRe = regexp.MustCompile(`^.+\.proto:(\d+):(\d+):\s*(.+)\.\s*$`)

// RunDiagnostics invokes the external Proto compiler over uri's file and
// the configured search roots, per spec.md §4.5. A missing or
// unexecutable compiler degrades to an empty diagnostic list with a
// warning log line rather than failing the caller (didOpen/didSave never
// crash the server over this).
func RunDiagnostics(cfg Config, fileURI, text string, logger *zap.Logger) []Diagnostic {
	path, err := uriToPath(fileURI)
	if err != nil {
		logger.Warn("diagnostics: cannot resolve file path", zap.String("uri", fileURI), zap.Error(err))
		return nil
	}

	compiler := cfg.CompilerPath
	if compiler == "" {
		compiler = "protoc"
	}

	var args []string
	for _, root := range cfg.Roots {
		args = append(args, "--proto_path="+root)
	}
	args = append(args, path)

	cmd := exec.Command(compiler, args...)
	if len(cfg.Roots) > 0 {
		cmd.Dir = cfg.Roots[0]
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, notFound := err.(*exec.Error); notFound {
			logger.Warn("diagnostics: external compiler unavailable, skipping",
				zap.String("compiler", compiler), zap.Error(err))
			return nil
		}
		// A non-zero exit is the normal way protoc reports compile errors;
		// fall through and parse whatever it wrote to stderr.
	}

	return parseDiagnostics(stderr.String(), text)
}

func parseDiagnostics(stderr, text string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		m := diagnosticLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNum, err := strconv.Atoi(m[1])
		if err != nil || lineNum < 1 {
			continue
		}
		zeroLine := lineNum - 1
		lineText := lineAt(text, zeroLine)
		out = append(out, Diagnostic{
			Range: Range{
				Start: Position{Line: zeroLine, Character: 0},
				End:   Position{Line: zeroLine, Character: utf16Len(lineText)},
			},
			Severity: SeverityError,
			Source:   "pbls",
			Message:  strings.TrimSpace(m[3]),
		})
	}
	return out
}

func lineAt(text string, line int) string {
	start, ok := lineStartByte(text, line)
	if !ok {
		return ""
	}
	return text[start:lineEndByte(text, start)]
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
