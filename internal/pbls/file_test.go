package pbls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePackageAndImports(t *testing.T) {
	f := NewFile(`syntax = "proto3";
package foo.bar;

import "other.proto";
import "fo

message Person {
  string name = 1;
}
`)
	pkg, ok := f.Package()
	require.True(t, ok)
	assert.Equal(t, "foo.bar", pkg)

	// The truncated second import is skipped; only the terminated one
	// survives.
	assert.Equal(t, []string{"other.proto"}, f.Imports())
}

func TestFileSymbolsNestedAndDotted(t *testing.T) {
	f := NewFile(`
message Person {
  message Address {
    string city = 1;
  }
}

enum Status {
  UNKNOWN = 0;
}
`)
	syms := f.Symbols()
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Person", "Person.Address", "Status"}, names)
}

func TestFileRelativeSymbols(t *testing.T) {
	f := NewFile(`
message Person {
  message Address {
    string city = 1;
  }
}
`)
	rel := f.RelativeSymbols("Person")
	var names []string
	for _, s := range rel {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Person", "Address"}, names)
}

func TestFileEditAppliesUTF16Range(t *testing.T) {
	f := NewFile(`message Foo {}
`)
	// Replace "Foo" (line 0, chars 8-11) with "Bar".
	err := f.Edit([]TextEdit{
		{
			Range: &Range{
				Start: Position{Line: 0, Character: 8},
				End:   Position{Line: 0, Character: 11},
			},
			Text: "Bar",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, f.Text(), "message Bar {}")
}

func TestFileEditMissingRangeFails(t *testing.T) {
	f := NewFile(`message Foo {}`)
	err := f.Edit([]TextEdit{{Text: "x"}})
	require.Error(t, err)
}

func TestFileEditHandlesAstralRunes(t *testing.T) {
	// U+1F600 takes 2 UTF-16 code units; confirm column arithmetic after
	// it lands on the right byte.
	f := NewFile("message \U0001F600 {}\n")
	err := f.Edit([]TextEdit{
		{
			Range: &Range{
				Start: Position{Line: 0, Character: 10},
				End:   Position{Line: 0, Character: 10},
			},
			Text: "X",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "message \U0001F600X {}\n", f.Text())
}

func TestCompletionContextEmptyBufferIsSyntax(t *testing.T) {
	f := NewFile("")
	ctx, ok := f.CompletionContext(0, 0)
	require.True(t, ok)
	assert.Equal(t, CompletionSyntax, ctx.Kind)
}

func TestCompletionContextImport(t *testing.T) {
	f := NewFile(`import "foo.proto";`)
	ctx, ok := f.CompletionContext(0, 9)
	require.True(t, ok)
	assert.Equal(t, CompletionImport, ctx.Kind)
}

func TestCompletionContextMessageBody(t *testing.T) {
	f := NewFile(`message Foo {
  string name = 1;
}
`)
	// cursor inside the field type "string" on line 1, col 3 (just after the 's')
	ctx, ok := f.CompletionContext(1, 3)
	require.True(t, ok)
	assert.Equal(t, CompletionMessage, ctx.Kind)
	assert.Equal(t, "Foo", ctx.Parent)
}

func TestTypeAtMessageName(t *testing.T) {
	f := NewFile(`message Foo {
  Bar b = 1;
}
message Bar {}
`)
	ctx, ok := f.TypeAt(0, 9)
	require.True(t, ok)
	assert.Equal(t, GotoType, ctx.Kind)
	assert.Equal(t, "Foo", ctx.Type.Name)
}

func TestTypeAtFieldTypeReference(t *testing.T) {
	f := NewFile(`message Foo {
  Bar b = 1;
}
message Bar {}
`)
	ctx, ok := f.TypeAt(1, 3)
	require.True(t, ok)
	assert.Equal(t, GotoType, ctx.Kind)
	assert.Equal(t, "Bar", ctx.Type.Name)
	require.NotNil(t, ctx.Type.Parent)
	assert.Equal(t, "Foo", *ctx.Type.Parent)
}

func TestTypeAtImportString(t *testing.T) {
	f := NewFile(`import "other.proto";`)
	ctx, ok := f.TypeAt(0, 9)
	require.True(t, ok)
	assert.Equal(t, GotoImport, ctx.Kind)
	assert.Equal(t, "other.proto", ctx.ImportPath)
}

func TestTypeReferencesFindsFieldUsage(t *testing.T) {
	f := NewFile(`message Foo {
  Bar b = 1;
  Bar c = 2;
}
message Bar {}
`)
	refs := f.TypeReferences(nil, "Bar")
	assert.Len(t, refs, 2)
}

func TestImportReferencesFindsStringLiteral(t *testing.T) {
	f := NewFile(`import "a.proto";
import "b.proto";
`)
	refs := f.ImportReferences("a.proto")
	assert.Len(t, refs, 1)
}
