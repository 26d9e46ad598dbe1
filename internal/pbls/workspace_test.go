package pbls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func writeProtoFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWorkspaceOpenRecursivelyLoadsImports(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "other.proto", `syntax = "proto3";
package shared;
message Other {}
`)
	mainPath := writeProtoFile(t, dir, "main.proto", `syntax = "proto3";
package main;
import "other.proto";
message Main {}
`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	mainURI := fileURIForPath(mainPath)
	require.NoError(t, ws.Open(mainURI, mustRead(t, mainPath)))

	otherURI := fileURIForPath(filepath.Join(dir, "other.proto"))
	_, ok := ws.File(otherURI)
	assert.True(t, ok, "expected transitively imported file to be loaded")
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWorkspaceOpenRejectsNonFileScheme(t *testing.T) {
	ws := NewWorkspace(Config{}, testLogger())
	err := ws.Open("http://example.com/foo.proto", "syntax = \"proto3\";")
	require.Error(t, err)
}

func TestWorkspaceEditUnknownFileErrors(t *testing.T) {
	ws := NewWorkspace(Config{}, testLogger())
	err := ws.Edit("file:///nope.proto", nil)
	require.Error(t, err)
}

func TestWorkspaceSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeProtoFile(t, dir, "a.proto", `message Foo { message Bar {} }`)
	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	uri := fileURIForPath(path)
	require.NoError(t, ws.Open(uri, mustRead(t, path)))

	syms, err := ws.Symbols(uri)
	require.NoError(t, err)
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Foo", "Foo.Bar"}, names)
}

func TestWorkspaceAllSymbolsLoadsEntireRoot(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "a.proto", `message Alpha {}`)
	writeProtoFile(t, dir, "sub/b.proto", `message Beta {}`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	matches := ws.AllSymbols("alp")
	require.Len(t, matches, 1)
	assert.Equal(t, "Alpha", matches[0].Symbol.Name)

	all := ws.AllSymbols("")
	var names []string
	for _, m := range all {
		names = append(names, m.Symbol.Name)
	}
	assert.ElementsMatch(t, []string{"Alpha", "Beta"}, names)
}

func TestWorkspaceGotoCrossFileWithPackageQualifier(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "common.proto", `syntax = "proto3";
package acme.common;
message Money {}
`)
	mainPath := writeProtoFile(t, dir, "main.proto", `syntax = "proto3";
package acme.orders;
import "common.proto";
message Order {
  common.Money price = 1;
}
`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	mainURI := fileURIForPath(mainPath)
	require.NoError(t, ws.Open(mainURI, mustRead(t, mainPath)))

	// "common.Money" sits on line 4 (0-based), starting at column 2.
	loc, err := ws.Goto(mainURI, 4, 10)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, fileURIForPath(filepath.Join(dir, "common.proto")), loc.URI)
}

func TestWorkspaceGotoImport(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "other.proto", `message Other {}`)
	mainPath := writeProtoFile(t, dir, "main.proto", `import "other.proto";`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	mainURI := fileURIForPath(mainPath)
	require.NoError(t, ws.Open(mainURI, mustRead(t, mainPath)))

	loc, err := ws.Goto(mainURI, 0, 9)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, fileURIForPath(filepath.Join(dir, "other.proto")), loc.URI)
}

func TestWorkspaceReferencesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "common.proto", `syntax = "proto3";
package acme.common;
message Money {}
`)
	usagePath := writeProtoFile(t, dir, "usage.proto", `syntax = "proto3";
package acme.orders;
import "common.proto";
message Order {
  common.Money a = 1;
  common.Money b = 2;
}
`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	usageURI := fileURIForPath(usagePath)
	require.NoError(t, ws.Open(usageURI, mustRead(t, usagePath)))

	refs, err := ws.References(usageURI, 4, 10)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestWorkspaceCompleteOptionContext(t *testing.T) {
	dir := t.TempDir()
	path := writeProtoFile(t, dir, "a.proto", `option go_pack`)
	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	uri := fileURIForPath(path)
	require.NoError(t, ws.Open(uri, mustRead(t, path)))

	items, err := ws.Complete(uri, 0, 14)
	require.NoError(t, err)
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "go_package")
}

func TestWorkspaceCompleteImportContext(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "other.proto", `message Other {}`)
	mainPath := writeProtoFile(t, dir, "main.proto", `import "`)

	ws := NewWorkspace(Config{Roots: []string{dir}}, testLogger())
	uri := fileURIForPath(mainPath)
	require.NoError(t, ws.Open(uri, mustRead(t, mainPath)))

	items, err := ws.Complete(uri, 0, 8)
	require.NoError(t, err)
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "other.proto")
}
