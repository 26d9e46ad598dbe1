package pbls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiagnosticsMatchesProtocLine(t *testing.T) {
	stderr := "foo/bar.proto:3:5: \"Baz\" is not defined.\n"
	text := "syntax = \"proto3\";\npackage foo;\nmessage Baz2 { Baz b = 1; }\n"

	diags := parseDiagnostics(stderr, text)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, 2, d.Range.Start.Line)
	assert.Equal(t, 0, d.Range.Start.Character)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "pbls", d.Source)
	assert.Equal(t, `"Baz" is not defined`, d.Message)
}

func TestParseDiagnosticsSkipsUnmatchedLines(t *testing.T) {
	stderr := "protoc: some unrelated banner line\nfoo.proto:1:1: bad thing.\n"
	diags := parseDiagnostics(stderr, "bad thing here\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "bad thing", diags[0].Message)
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 5, utf16Len("hello"))
	assert.Equal(t, 2, utf16Len("\U0001F600"))
}

func TestRunDiagnosticsUnresolvableURIReturnsNil(t *testing.T) {
	cfg := Config{}
	diags := RunDiagnostics(cfg, "not-a-uri", "syntax = \"proto3\";", testLogger())
	assert.Nil(t, diags)
}
