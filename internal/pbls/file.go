package pbls

import (
	"strings"
	"unicode/utf8"

	"github.com/protobuf-lsp/pbls/internal/cst"
)

// File owns the text and parse tree of one Proto document. It exclusively
// owns both; Symbol, CompletionContext, and GotoContext values it returns
// carry references into its text and must not outlive it.
type File struct {
	text        string
	tree        *cst.Tree
	diagnostics []Diagnostic
}

// NewFile parses text and constructs a File over it.
func NewFile(text string) *File {
	return &File{text: text, tree: cst.Parse(text)}
}

// Text returns the file's current text.
func (f *File) Text() string { return f.text }

// Tree returns the file's current parse tree.
func (f *File) Tree() *cst.Tree { return f.tree }

// Diagnostics returns the last diagnostics batch computed for this file by
// the Diagnostics Bridge. Between saves this is whatever the previous save
// (or open) computed; spec.md §4.5 diagnostics are only recomputed on save.
func (f *File) Diagnostics() []Diagnostic { return f.diagnostics }

// SetDiagnostics replaces the stored diagnostics batch. Called by the
// workspace after running the external compiler.
func (f *File) SetDiagnostics(d []Diagnostic) { f.diagnostics = d }

// Edit applies a sequence of LSP change events in order, left to right,
// then re-parses once. It fails only when a change event lacks a range or
// the range cannot be resolved against the text at the time it is applied.
func (f *File) Edit(edits []TextEdit) error {
	text := f.text
	for _, e := range edits {
		if e.Range == nil {
			return &errMissingEditRange{}
		}
		start, err := bytePosition(text, e.Range.Start)
		if err != nil {
			return err
		}
		end, err := bytePosition(text, e.Range.End)
		if err != nil {
			return err
		}
		text = text[:start] + e.Text + text[end:]
	}
	f.text = text
	f.tree = cst.Parse(text)
	return nil
}

// -- byte/UTF-16 translation --

// lineStartByte returns the byte offset of the start of the given
// zero-based line, counting \n-terminated lines of text.
func lineStartByte(text string, line int) (int, bool) {
	if line == 0 {
		return 0, true
	}
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			count++
			if count == line {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func lineEndByte(text string, startByte int) int {
	idx := strings.IndexByte(text[startByte:], '\n')
	if idx < 0 {
		return len(text)
	}
	return startByte + idx
}

// columnToByte advances through the scalar values of text[startByte:endByte],
// summing their UTF-16 code-unit weight, until that weight equals col.
// Columns past end-of-line clamp to endByte.
func columnToByte(text string, startByte, endByte, col int) int {
	weight := 0
	i := startByte
	for i < endByte {
		r, size := utf8.DecodeRuneInString(text[i:])
		w := 1
		if r > 0xFFFF {
			w = 2
		}
		if weight+w > col {
			break
		}
		weight += w
		i += size
	}
	return i
}

// bytePosition translates an LSP (line, UTF-16 column) position into a byte
// offset into text.
func bytePosition(text string, pos Position) (int, error) {
	startByte, ok := lineStartByte(text, pos.Line)
	if !ok {
		return 0, &errInvalidEditPosition{line: pos.Line, character: pos.Character}
	}
	endByte := lineEndByte(text, startByte)
	return columnToByte(text, startByte, endByte, pos.Character), nil
}

// bytesToPosition is the inverse of bytePosition, used to render byte
// ranges (symbol locations, diagnostics) back into LSP positions.
func bytesToPosition(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col := 0
	i := lineStart
	for i < offset {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r > 0xFFFF {
			col += 2
		} else {
			col++
		}
		i += size
	}
	return Position{Line: line, Character: col}
}

func rangeFromByteRange(text string, br cst.ByteRange) Range {
	return Range{Start: bytesToPosition(text, br.Start), End: bytesToPosition(text, br.End)}
}

// -- string literal helpers --

// isTerminatedStringLit reports whether a strLit token's raw text (quotes
// included) has a matching closing quote. An unterminated literal (the tail
// of a truncated import, mid-keystroke) is never a usable import path.
func isTerminatedStringLit(text string) bool {
	if len(text) < 2 {
		return false
	}
	q := text[0]
	if q != '"' && q != '\'' {
		return false
	}
	return text[len(text)-1] == q
}

func unquoteText(s string) string {
	if len(s) == 0 {
		return s
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return s
	}
	s = s[1:]
	return strings.TrimSuffix(s, string(q))
}

func fullIdentText(n *cst.Node) string {
	var parts []string
	for _, c := range n.NamedChildren() {
		if c.Kind() == cst.KindIdent {
			parts = append(parts, c.Text())
		}
	}
	return strings.Join(parts, ".")
}

// dottedPathTo walks from n up through its message/enum ancestors
// (inclusive of n itself, if n is one) collecting messageName/enumName
// text in root-to-leaf order.
func dottedPathTo(n *cst.Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case cst.KindMessage:
			if name := cur.ChildByKind(cst.KindMessageName); name != nil && !name.IsMissing() {
				parts = append([]string{name.Text()}, parts...)
			}
		case cst.KindEnum:
			if name := cur.ChildByKind(cst.KindEnumName); name != nil && !name.IsMissing() {
				parts = append([]string{name.Text()}, parts...)
			}
		}
	}
	return strings.Join(parts, ".")
}

// -- structural accessors --

// Package returns the file's package declaration, if any. The first
// package declaration wins; subsequent ones are ignored.
func (f *File) Package() (string, bool) {
	for _, c := range f.tree.Root().NamedChildren() {
		if c.Kind() == cst.KindPackage {
			name := c.ChildByKind(cst.KindFullIdent)
			if name == nil {
				return "", false
			}
			return fullIdentText(name), true
		}
	}
	return "", false
}

// Imports returns the file's import paths, quotes stripped, in source
// order. A truncated (unterminated) import statement is skipped.
func (f *File) Imports() []string {
	var out []string
	for _, c := range f.tree.Root().NamedChildren() {
		if c.Kind() != cst.KindImport {
			continue
		}
		str := c.ChildByKind(cst.KindStrLit)
		if str == nil || str.IsMissing() {
			continue
		}
		if !isTerminatedStringLit(str.Text()) {
			continue
		}
		out = append(out, unquoteText(str.Text()))
	}
	return out
}

// Symbols returns every message and enum declaration, named by its dotted
// path of enclosing message names, in document order. Services do not
// nest names: rpc methods never appear here.
func (f *File) Symbols() []Symbol {
	var out []Symbol
	var walk func(n *cst.Node, prefix []string)
	walk = func(n *cst.Node, prefix []string) {
		for _, c := range n.NamedChildren() {
			switch c.Kind() {
			case cst.KindMessage:
				name := c.ChildByKind(cst.KindMessageName)
				if name == nil || name.IsMissing() {
					continue
				}
				dotted := append(append([]string{}, prefix...), name.Text())
				out = append(out, Symbol{
					Kind: SymbolMessage, Name: strings.Join(dotted, "."),
					ByteRange: c.ByteRange(), PointRange: c.PointRange(),
				})
				if body := c.ChildByKind(cst.KindMessageBody); body != nil {
					walk(body, dotted)
				}
			case cst.KindEnum:
				name := c.ChildByKind(cst.KindEnumName)
				if name == nil || name.IsMissing() {
					continue
				}
				dotted := append(append([]string{}, prefix...), name.Text())
				out = append(out, Symbol{
					Kind: SymbolEnum, Name: strings.Join(dotted, "."),
					ByteRange: c.ByteRange(), PointRange: c.PointRange(),
				})
			}
		}
	}
	walk(f.tree.Root(), nil)
	return out
}

// RelativeSymbols returns the same set as Symbols, with each name rewritten
// relative to base via RelativeName.
func (f *File) RelativeSymbols(base string) []Symbol {
	syms := f.Symbols()
	out := make([]Symbol, len(syms))
	for i, s := range syms {
		out[i] = s
		out[i].Name = RelativeName(base, s.Name)
	}
	return out
}

// -- positional queries --

func isOptionContext(n *cst.Node) bool {
	if n.Kind() == cst.KindOption {
		return true
	}
	if n.Kind() == cst.KindIdent {
		if p := n.Parent(); p != nil && p.Kind() == cst.KindFullIdent {
			if pp := p.Parent(); pp != nil && pp.Kind() == cst.KindOptionName {
				if ppp := pp.Parent(); ppp != nil && ppp.Kind() == cst.KindOption {
					return true
				}
			}
		}
	}
	if anc := n.AncestorByKind(cst.KindError); anc != nil && strings.HasPrefix(anc.Text(), "option ") {
		return true
	}
	return false
}

func isImportContext(n *cst.Node) bool {
	if anc := n.AncestorByKind(cst.KindError); anc != nil && strings.HasPrefix(anc.Text(), "import ") {
		return true
	}
	if n.Kind() == cst.KindStrLit {
		if p := n.Parent(); p != nil && p.Kind() == cst.KindImport {
			return true
		}
	}
	return false
}

// messageOrEnumContext implements rule 5 of completion_context. applicable
// reports whether the rule's preconditions held at all (ident/type node,
// not a oneof name-slot); when applicable is true the caller must stop,
// using ctx only if matched is also true.
func messageOrEnumContext(n *cst.Node) (ctx CompletionContext, applicable, matched bool) {
	if n.Kind() != cst.KindIdent && n.Kind() != cst.KindType {
		return CompletionContext{}, false, false
	}
	if p := n.Parent(); p != nil && p.Kind() == cst.KindOneofName {
		return CompletionContext{}, false, false
	}
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case cst.KindFieldName:
			return CompletionContext{}, true, false
		case cst.KindMessageBody:
			return CompletionContext{Kind: CompletionMessage, Parent: dottedPathTo(cur.Parent())}, true, true
		case cst.KindEnumBody:
			return CompletionContext{Kind: CompletionEnum, Parent: dottedPathTo(cur.Parent())}, true, true
		case cst.KindServiceBody:
			return CompletionContext{Kind: CompletionRPC}, true, true
		}
	}
	return CompletionContext{}, true, false
}

func isTopLevelErrorOrMissing(n *cst.Node) bool {
	cur := n
	for cur != nil && (cur.Kind() == cst.KindError || cur.IsMissing()) {
		if p := cur.Parent(); p != nil && p.Kind() == cst.KindSourceFile {
			return true
		}
		cur = cur.Parent()
	}
	return false
}

// sourceFileLineContext implements rule 7: the descendant is source_file
// itself, so fall back to inspecting the raw line text up to the cursor.
func (f *File) sourceFileLineContext(row, col int) (CompletionContext, bool) {
	lineStart, ok := lineStartByte(f.text, row)
	if !ok {
		return CompletionContext{}, false
	}
	lineEnd := lineEndByte(f.text, lineStart)
	curByte, err := bytePosition(f.text, Position{Line: row, Character: col})
	if err != nil || curByte > lineEnd {
		curByte = lineEnd
	}
	prefix := strings.TrimLeft(f.text[lineStart:curByte], " \t")
	if strings.HasPrefix(prefix, "option ") {
		return CompletionContext{Kind: CompletionOption}, true
	}
	if len(strings.Fields(prefix)) <= 1 {
		return CompletionContext{Kind: CompletionKeyword}, true
	}
	return CompletionContext{}, false
}

// CompletionContext computes the syntactic completion context at (row,
// col), per spec.md §4.2's priority-ordered rules.
func (f *File) CompletionContext(row, col int) (CompletionContext, bool) {
	if f.tree.Root().Kind() != cst.KindSourceFile {
		return CompletionContext{Kind: CompletionSyntax}, true
	}
	if strings.TrimSpace(f.text) == "" {
		return CompletionContext{Kind: CompletionSyntax}, true
	}

	lookupCol := col - 1
	if lookupCol < 0 {
		lookupCol = 0
	}
	offset, err := bytePosition(f.text, Position{Line: row, Character: lookupCol})
	if err != nil {
		return CompletionContext{}, false
	}
	n := f.tree.NamedDescendantForByte(offset)
	if n == nil {
		return CompletionContext{}, false
	}

	if isOptionContext(n) {
		return CompletionContext{Kind: CompletionOption}, true
	}
	if isImportContext(n) {
		return CompletionContext{Kind: CompletionImport}, true
	}
	if ctx, applicable, matched := messageOrEnumContext(n); applicable {
		if matched {
			return ctx, true
		}
		return CompletionContext{}, false
	}
	if isTopLevelErrorOrMissing(n) {
		return CompletionContext{Kind: CompletionKeyword}, true
	}
	if n.Kind() == cst.KindSourceFile {
		return f.sourceFileLineContext(row, col)
	}
	return CompletionContext{}, false
}

// TypeAt resolves what the exact cursor point (row, col) refers to, per
// spec.md §4.2.
func (f *File) TypeAt(row, col int) (GotoContext, bool) {
	offset, err := bytePosition(f.text, Position{Line: row, Character: col})
	if err != nil {
		return GotoContext{}, false
	}
	n := f.tree.NamedDescendantForByte(offset)
	if n == nil {
		return GotoContext{}, false
	}

	if n.Kind() == cst.KindStrLit {
		if p := n.Parent(); p != nil && p.Kind() == cst.KindImport {
			return GotoContext{Kind: GotoImport, ImportPath: unquoteText(n.Text())}, true
		}
	}
	if n.Kind() == cst.KindEnumName || n.Kind() == cst.KindMessageName {
		return GotoContext{Kind: GotoType, Type: GotoTypeContext{Name: n.Text()}}, true
	}
	if n.Kind() == cst.KindIdent || n.Kind() == cst.KindEnumMessageType {
		typeNode := n
		for typeNode != nil && typeNode.Kind() != cst.KindType && typeNode.Kind() != cst.KindEnumMessageType {
			typeNode = typeNode.Parent()
		}
		if typeNode == nil {
			return GotoContext{}, false
		}
		name := typeNodeText(typeNode)
		parent := dottedPathTo(typeNode.Parent())
		var parentPtr *string
		if parent != "" {
			parentPtr = &parent
		}
		return GotoContext{Kind: GotoType, Type: GotoTypeContext{Name: name, Parent: parentPtr}}, true
	}
	return GotoContext{}, false
}

func typeNodeText(n *cst.Node) string {
	if n.Kind() == cst.KindType {
		return n.Text()
	}
	var parts []string
	leadingDot := false
	for i, c := range n.Children() {
		if c.Kind() == cst.KindIdent {
			parts = append(parts, c.Text())
		} else if i == 0 && c.Kind() == cst.Kind(".") {
			leadingDot = true
		}
	}
	text := strings.Join(parts, ".")
	if leadingDot {
		text = "." + text
	}
	return text
}

func matchesTypeRef(text string, pkg *string, typeName string) bool {
	if text == typeName {
		return true
	}
	if pkg != nil && *pkg != "" && text == *pkg+"."+typeName {
		return true
	}
	return false
}

// TypeReferences returns the byte ranges of every type-reference node under
// a field whose text equals typeName, or (if pkg is non-nil and non-empty)
// "<pkg>.<typeName>".
func (f *File) TypeReferences(pkg *string, typeName string) []cst.ByteRange {
	var out []cst.ByteRange
	var walk func(n *cst.Node)
	walk = func(n *cst.Node) {
		for _, c := range n.Children() {
			if (c.Kind() == cst.KindType || c.Kind() == cst.KindEnumMessageType) && c.AncestorByKind(cst.KindField) != nil {
				if matchesTypeRef(typeNodeText(c), pkg, typeName) {
					out = append(out, c.ByteRange())
				}
			}
			walk(c)
		}
	}
	walk(f.tree.Root())
	return out
}

// ImportReferences returns the byte ranges of every import string literal
// whose unquoted contents equal path.
func (f *File) ImportReferences(path string) []cst.ByteRange {
	var out []cst.ByteRange
	for _, c := range f.tree.Root().NamedChildren() {
		if c.Kind() != cst.KindImport {
			continue
		}
		str := c.ChildByKind(cst.KindStrLit)
		if str == nil || str.IsMissing() || !isTerminatedStringLit(str.Text()) {
			continue
		}
		if unquoteText(str.Text()) == path {
			out = append(out, str.ByteRange())
		}
	}
	return out
}
