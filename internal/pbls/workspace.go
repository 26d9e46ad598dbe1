package pbls

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Workspace owns a set of open files, keyed by URI, and an ordered list of
// import search roots. It exclusively owns its Files and is the only thing
// allowed to mutate the file map; spec.md §5 models the whole thing as
// single-threaded, but the mutex still guards against whatever concurrency
// the transport layer introduces around request dispatch.
type Workspace struct {
	mu     sync.Mutex
	config Config
	logger *zap.Logger
	files  map[string]*File
	watch  *rootWatcher
}

// NewWorkspace constructs an empty Workspace over the given configuration.
func NewWorkspace(cfg Config, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		config: cfg,
		logger: logger.With(zap.String("component", "workspace")),
		files:  make(map[string]*File),
	}
}

// File returns the File for uri, if open.
func (w *Workspace) File(uri string) (*File, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	return f, ok
}

// Open computes diagnostics for text, stores a new File for uri, then
// recursively opens its transitive imports from the search roots.
func (w *Workspace) Open(uri, text string) error {
	if err := validateFileScheme(uri); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f := NewFile(text)
	f.SetDiagnostics(RunDiagnostics(w.config, uri, text, w.logger))
	w.files[uri] = f
	for _, imp := range f.Imports() {
		w.openImportLocked(imp)
	}
	return nil
}

// openImportLocked resolves name to the first existing root/name across
// search roots and, if not already loaded, reads, parses, and inserts it,
// then recurses into its own imports. Missing imports are silently
// ignored: the external compiler reports them as diagnostics. Already-
// loaded imports stop recursion, which is what breaks import cycles.
func (w *Workspace) openImportLocked(name string) {
	path, ok := w.resolveImportPathLocked(name)
	if !ok {
		return
	}
	uri := fileURIForPath(path)
	if _, exists := w.files[uri]; exists {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read import", zap.String("path", path), zap.Error(err))
		return
	}
	f := NewFile(string(data))
	w.files[uri] = f
	for _, imp := range f.Imports() {
		w.openImportLocked(imp)
	}
}

func (w *Workspace) resolveImportPathLocked(name string) (string, bool) {
	for _, root := range w.config.Roots {
		p := filepath.Join(root, filepath.FromSlash(name))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Edit applies changes to the named file and re-opens any import that
// newly appears in its text.
func (w *Workspace) Edit(uri string, edits []TextEdit) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return &errUnknownFile{uri: uri}
	}
	if err := f.Edit(edits); err != nil {
		return err
	}
	for _, imp := range f.Imports() {
		w.openImportLocked(imp)
	}
	return nil
}

// Save re-runs diagnostics over the named file's current text.
func (w *Workspace) Save(uri string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return &errUnknownFile{uri: uri}
	}
	f.SetDiagnostics(RunDiagnostics(w.config, uri, f.Text(), w.logger))
	return nil
}

// CloseFile drops uri from the workspace. Not required by spec.md (eviction is
// "permitted but not required"), but useful on didClose.
func (w *Workspace) CloseFile(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, uri)
}

// Symbols returns the named file's symbols.
func (w *Workspace) Symbols(uri string) ([]Symbol, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return nil, &errUnknownFile{uri: uri}
	}
	return f.Symbols(), nil
}

// loadAllLocked scans every search root for *.proto files and inserts any
// not already loaded, per spec.md §4.4 "load_all".
func (w *Workspace) loadAllLocked() {
	for _, root := range w.config.Roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			uri := fileURIForPath(path)
			if _, exists := w.files[uri]; exists {
				return nil
			}
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				w.logger.Warn("load_all: failed to read", zap.String("path", path), zap.Error(readErr))
				return nil
			}
			w.files[uri] = NewFile(string(data))
			return nil
		})
	}
}

// buildQueryMatchers splits query on whitespace and turns each token into
// a case-insensitive "fuzzy" regex joining the token's characters with
// ".*", per spec.md §4.4. If query contains any uppercase character,
// matching is case-sensitive instead.
func buildQueryMatchers(query string) []*regexp.Regexp {
	caseSensitive := strings.ToLower(query) != query
	var out []*regexp.Regexp
	for _, tok := range strings.Fields(query) {
		var sb strings.Builder
		for i, r := range tok {
			if i > 0 {
				sb.WriteString(".*")
			}
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
		pattern := sb.String()
		if !caseSensitive {
			pattern = "(?i)" + pattern
		}
		out = append(out, regexp.MustCompile(pattern))
	}
	return out
}

func matchesAllTokens(name string, matchers []*regexp.Regexp) bool {
	for _, m := range matchers {
		if !m.MatchString(name) {
			return false
		}
	}
	return true
}

// AllSymbols triggers a one-shot load_all, then filters symbols across the
// whole file map by query.
func (w *Workspace) AllSymbols(query string) []SymbolMatch {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadAllLocked()

	matchers := buildQueryMatchers(query)
	var out []SymbolMatch
	for uri, f := range w.files {
		for _, s := range f.Symbols() {
			if matchesAllTokens(s.Name, matchers) {
				out = append(out, SymbolMatch{URI: uri, Symbol: s})
			}
		}
	}
	return out
}

func locationForSymbol(uri string, f *File, s Symbol) Location {
	return Location{URI: uri, Range: rangeFromByteRange(f.Text(), s.ByteRange)}
}

func findSymbolByName(f *File, name string) (Symbol, bool) {
	for _, s := range f.Symbols() {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// findSymbolLocked implements find_symbol (spec.md §4.4), in priority
// order: an exact parent.name match in file, then an exact name match in
// file, then a package-qualifier-aware search over file's direct imports.
func (w *Workspace) findSymbolLocked(uri string, f *File, t GotoTypeContext) *Location {
	if t.Parent != nil {
		if sym, ok := findSymbolByName(f, *t.Parent+"."+t.Name); ok {
			loc := locationForSymbol(uri, f, sym)
			return &loc
		}
	}
	if sym, ok := findSymbolByName(f, t.Name); ok {
		loc := locationForSymbol(uri, f, sym)
		return &loc
	}

	srcPkg, srcHasPkg := f.Package()
	for _, impName := range f.Imports() {
		path, ok := w.resolveImportPathLocked(impName)
		if !ok {
			continue
		}
		impURI := fileURIForPath(path)
		impFile, ok := w.files[impURI]
		if !ok {
			continue
		}
		impPkg, impHasPkg := impFile.Package()

		switch {
		case impHasPkg == srcHasPkg && impPkg == srcPkg:
			if sym, ok := findSymbolByName(impFile, t.Name); ok {
				loc := locationForSymbol(impURI, impFile, sym)
				return &loc
			}
		case impHasPkg:
			toPkg := ""
			if srcHasPkg {
				toPkg = srcPkg
			}
			for _, q := range PossibleQualifiers(impPkg, toPkg) {
				var candidate string
				if q == "" {
					candidate = t.Name
				} else if strings.HasPrefix(t.Name, q+".") {
					candidate = strings.TrimPrefix(t.Name, q+".")
				} else {
					continue
				}
				if sym, ok := findSymbolByName(impFile, candidate); ok {
					loc := locationForSymbol(impURI, impFile, sym)
					return &loc
				}
			}
		default:
			if sym, ok := findSymbolByName(impFile, t.Name); ok {
				loc := locationForSymbol(impURI, impFile, sym)
				return &loc
			}
		}
	}
	return nil
}

// Goto dispatches on type_at: Import resolves to a file and the (0,0) zero
// range; Type invokes find_symbol.
func (w *Workspace) Goto(uri string, row, col int) (*Location, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return nil, &errUnknownFile{uri: uri}
	}
	ctx, ok := f.TypeAt(row, col)
	if !ok {
		return nil, nil
	}
	switch ctx.Kind {
	case GotoImport:
		path, ok := w.resolveImportPathLocked(ctx.ImportPath)
		if !ok {
			return nil, nil
		}
		return &Location{URI: fileURIForPath(path)}, nil
	case GotoType:
		return w.findSymbolLocked(uri, f, ctx.Type), nil
	default:
		return nil, nil
	}
}

// References forces a load_all, dispatches on type_at, and aggregates
// matches across every loaded file.
func (w *Workspace) References(uri string, row, col int) ([]Location, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return nil, &errUnknownFile{uri: uri}
	}
	w.loadAllLocked()

	ctx, ok := f.TypeAt(row, col)
	if !ok {
		return nil, nil
	}

	switch ctx.Kind {
	case GotoImport:
		var out []Location
		for u, other := range w.files {
			for _, br := range other.ImportReferences(ctx.ImportPath) {
				out = append(out, Location{URI: u, Range: rangeFromByteRange(other.Text(), br)})
			}
		}
		return out, nil
	case GotoType:
		loc := w.findSymbolLocked(uri, f, ctx.Type)
		if loc == nil {
			return nil, nil
		}
		defFile, ok := w.files[loc.URI]
		if !ok {
			return nil, nil
		}
		defPkg, defHasPkg := defFile.Package()
		var pkgPtr *string
		if defHasPkg {
			pkgPtr = &defPkg
		}
		var out []Location
		for u, other := range w.files {
			for _, br := range other.TypeReferences(pkgPtr, ctx.Type.Name) {
				out = append(out, Location{URI: u, Range: rangeFromByteRange(other.Text(), br)})
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

// keywordCompletionSet is the small set offered for a bare top-level
// CompletionKeyword context (spec.md §4.4's Complete, not §6's larger
// type-completion keyword set).
var keywordCompletionSet = []string{"message", "enum", "import", "option"}

func itemsFrom(names []string) []CompletionItem {
	out := make([]CompletionItem, len(names))
	for i, n := range names {
		out[i] = CompletionItem{Label: n, InsertText: n}
	}
	return out
}

func (w *Workspace) importCompletionsLocked(uri string, f *File) []CompletionItem {
	alreadyImported := make(map[string]bool)
	for _, imp := range f.Imports() {
		alreadyImported[imp] = true
	}
	currentPath, _ := uriToPath(uri)

	seen := make(map[string]bool)
	var out []CompletionItem
	for _, root := range w.config.Roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			if path == currentPath {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if alreadyImported[rel] || seen[rel] {
				return nil
			}
			seen[rel] = true
			out = append(out, CompletionItem{Label: rel, InsertText: rel + `";`})
			return nil
		})
	}
	return out
}

func (w *Workspace) symbolCompletionsLocked(f *File, base string) []CompletionItem {
	var out []CompletionItem
	for _, s := range f.RelativeSymbols(base) {
		out = append(out, CompletionItem{Label: s.Name, InsertText: s.Name})
	}

	srcPkg, srcHasPkg := f.Package()
	for _, impName := range f.Imports() {
		path, ok := w.resolveImportPathLocked(impName)
		if !ok {
			continue
		}
		impFile, ok := w.files[fileURIForPath(path)]
		if !ok {
			continue
		}
		impPkg, impHasPkg := impFile.Package()
		unqualified := !impHasPkg || (srcHasPkg && impPkg == srcPkg)
		for _, s := range impFile.Symbols() {
			name := s.Name
			if !unqualified {
				name = impPkg + "." + name
			}
			out = append(out, CompletionItem{Label: name, InsertText: name})
		}
	}

	out = append(out, itemsFrom(protoPrimitiveTypes)...)
	out = append(out, itemsFrom(protoKeywordSet)...)
	return out
}

// Complete switches on the file's completion_context at (row, col), per
// spec.md §4.4.
func (w *Workspace) Complete(uri string, row, col int) ([]CompletionItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[uri]
	if !ok {
		return nil, &errUnknownFile{uri: uri}
	}
	ctx, ok := f.CompletionContext(row, col)
	if !ok {
		return nil, nil
	}
	switch ctx.Kind {
	case CompletionSyntax:
		return []CompletionItem{
			{Label: `syntax = "proto3";`, InsertText: `syntax = "proto3";`},
			{Label: `syntax = "proto2";`, InsertText: `syntax = "proto2";`},
		}, nil
	case CompletionKeyword:
		return itemsFrom(keywordCompletionSet), nil
	case CompletionImport:
		return w.importCompletionsLocked(uri, f), nil
	case CompletionOption:
		return itemsFrom(wellKnownOptionNames), nil
	case CompletionMessage:
		return w.symbolCompletionsLocked(f, ctx.Parent), nil
	case CompletionEnum, CompletionRPC:
		// Enum completion is an open question left unimplemented by
		// spec.md §9; Rpc completion has no defined response either.
		return nil, nil
	default:
		return nil, nil
	}
}
