package pbls

import "github.com/protobuf-lsp/pbls/internal/cst"

// SymbolKind distinguishes the two symbol-producing node kinds.
type SymbolKind int

const (
	SymbolMessage SymbolKind = iota
	SymbolEnum
)

func (k SymbolKind) String() string {
	if k == SymbolEnum {
		return "enum"
	}
	return "message"
}

// Symbol is a message or enum declaration, named by its full dotted path.
// It carries a reference into the FileModel's text and must not outlive it.
type Symbol struct {
	Kind       SymbolKind
	Name       string
	ByteRange  cst.ByteRange
	PointRange cst.PointRange
}

// CompletionKind is the variant tag of a CompletionContext.
type CompletionKind int

const (
	CompletionNone CompletionKind = iota
	CompletionMessage
	CompletionEnum
	CompletionRPC
	CompletionImport
	CompletionKeyword
	CompletionSyntax
	CompletionOption
)

// CompletionContext is the cursor's syntactic context for completion
// purposes. Parent is populated only for CompletionMessage/CompletionEnum,
// and holds the dotted name of the enclosing message/enum (possibly empty
// for a top-level one).
type CompletionContext struct {
	Kind   CompletionKind
	Parent string
}

// GotoKind is the variant tag of a GotoContext.
type GotoKind int

const (
	GotoNone GotoKind = iota
	GotoType
	GotoImport
)

// GotoTypeContext is a type reference at a cursor position: the dotted name
// as written, and the dotted name of the enclosing message, if any. Parent
// is nil when the reference appears at top level (e.g. an RPC signature)
// and when the cursor is on a message or enum declaration's own name.
type GotoTypeContext struct {
	Name   string
	Parent *string
}

// GotoContext is the result of resolving what a cursor position refers to.
type GotoContext struct {
	Kind       GotoKind
	Type       GotoTypeContext
	ImportPath string
}

// Position is an LSP-style zero-based (line, UTF-16 column) position.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span of Positions.
type Range struct {
	Start, End Position
}

// TextEdit is one LSP content change. Range nil is a translation error (see
// spec.md §4.2/§7): every change this server applies is range-based.
type TextEdit struct {
	Range *Range
	Text  string
}

// DiagnosticSeverity mirrors the handful of LSP severities the diagnostics
// bridge produces.
type DiagnosticSeverity int

const (
	SeverityError DiagnosticSeverity = 1
)

// Diagnostic is one compiler-reported problem, in LSP coordinates.
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Source   string
	Message  string
}

// Location pairs a URI with an LSP range, as returned by goto/references.
type Location struct {
	URI   string
	Range Range
}

// CompletionItem is a single completion candidate.
type CompletionItem struct {
	Label      string
	InsertText string
}

// SymbolMatch pairs a Symbol with the URI of the file that declares it, as
// returned by Workspace.AllSymbols.
type SymbolMatch struct {
	URI    string
	Symbol Symbol
}
