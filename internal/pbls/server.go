package pbls

import (
	"context"
	"runtime/debug"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Server is an implementation of protocol.Server backed by a Workspace.
// It embeds nopServer so every LSP method this server does not implement
// returns a uniform "not implemented" error instead of panicking.
type Server struct {
	nopServer

	ws     *Workspace
	conn   jsonrpc2.Conn
	logger *zap.Logger
}

// NewServer constructs a Server over ws. conn is used to push
// textDocument/publishDiagnostics notifications back to the client; it
// may be filled in after construction, since Serve creates the conn and
// the server together.
func NewServer(ws *Workspace, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{ws: ws, logger: logger}
}

// -- Lifecycle --

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	info := &protocol.ServerInfo{Name: "pbls"}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Version = buildInfo.Main.Version
	}
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Edits come in as incremental ranges (see File.Edit /
			// spec.md §4.2), so completion and goto stay accurate
			// while the client is mid-keystroke.
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
				Save:      &protocol.SaveOptions{IncludeText: false},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", "\""},
			},
			DefinitionProvider:     true,
			ReferencesProvider:     true,
			DocumentSymbolProvider: true,
			WorkspaceSymbolProvider: true,
		},
		ServerInfo: info,
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.ws.Close()
}

func (s *Server) Exit(ctx context.Context) error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	return nil
}

// -- Text document synchronization --

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := s.ws.Open(uri, params.TextDocument.Text); err != nil {
		s.logger.Warn("didOpen failed", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	s.publishDiagnostics(ctx, uri)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	edits := make([]TextEdit, 0, len(params.ContentChanges))
	for _, c := range params.ContentChanges {
		edits = append(edits, contentChangeToTextEdit(c))
	}
	if err := s.ws.Edit(uri, edits); err != nil {
		s.logger.Warn("didChange failed", zap.String("uri", uri), zap.Error(err))
	}
	return nil
}

func contentChangeToTextEdit(c protocol.TextDocumentContentChangeEvent) TextEdit {
	if c.Range == nil {
		return TextEdit{Text: c.Text}
	}
	return TextEdit{
		Range: &Range{
			Start: Position{Line: int(c.Range.Start.Line), Character: int(c.Range.Start.Character)},
			End:   Position{Line: int(c.Range.End.Line), Character: int(c.Range.End.Character)},
		},
		Text: c.Text,
	}
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if err := s.ws.Save(uri); err != nil {
		s.logger.Warn("didSave failed", zap.String("uri", uri), zap.Error(err))
		return nil
	}
	s.publishDiagnostics(ctx, uri)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.ws.CloseFile(string(params.TextDocument.URI))
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri string) {
	if s.conn == nil {
		return
	}
	f, ok := s.ws.File(uri)
	if !ok {
		return
	}
	diags := make([]protocol.Diagnostic, 0, len(f.Diagnostics()))
	for _, d := range f.Diagnostics() {
		diags = append(diags, protocol.Diagnostic{
			Range:    rangeToProtocol(d.Range),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: diags,
	}); err != nil {
		s.logger.Warn("publishDiagnostics notify failed", zap.Error(err))
	}
}

func rangeToProtocol(r Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},
	}
}

// -- Language functionality --

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	uri := string(params.TextDocument.URI)
	items, err := s.ws.Complete(uri, int(params.Position.Line), int(params.Position.Character))
	if err != nil {
		return nil, err
	}
	list := &protocol.CompletionList{Items: make([]protocol.CompletionItem, 0, len(items))}
	for _, it := range items {
		list.Items = append(list.Items, protocol.CompletionItem{
			Label:      it.Label,
			InsertText: it.InsertText,
		})
	}
	return list, nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	uri := string(params.TextDocument.URI)
	loc, err := s.ws.Goto(uri, int(params.Position.Line), int(params.Position.Character))
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, nil
	}
	return []protocol.Location{{URI: protocol.DocumentURI(loc.URI), Range: rangeToProtocol(loc.Range)}}, nil
}

func (s *Server) References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := string(params.TextDocument.URI)
	locs, err := s.ws.References(uri, int(params.Position.Line), int(params.Position.Character))
	if err != nil {
		return nil, err
	}
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, protocol.Location{URI: protocol.DocumentURI(loc.URI), Range: rangeToProtocol(loc.Range)})
	}
	return out, nil
}

func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]interface{}, error) {
	uri := string(params.TextDocument.URI)
	syms, err := s.ws.Symbols(uri)
	if err != nil {
		return nil, err
	}
	f, _ := s.ws.File(uri)
	out := make([]interface{}, 0, len(syms))
	for _, sym := range syms {
		r := protocol.Range{}
		if f != nil {
			r = rangeToProtocol(rangeFromByteRange(f.Text(), sym.ByteRange))
		}
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           symbolKindToProtocol(sym.Kind),
			Range:          r,
			SelectionRange: r,
		})
	}
	return out, nil
}

func symbolKindToProtocol(k SymbolKind) protocol.SymbolKind {
	if k == SymbolEnum {
		return protocol.SymbolKindEnum
	}
	return protocol.SymbolKindClass
}

// Symbols implements workspace/symbol (spec.md §4.4's all_symbols).
func (s *Server) Symbols(ctx context.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	matches := s.ws.AllSymbols(params.Query)
	out := make([]protocol.SymbolInformation, 0, len(matches))
	for _, m := range matches {
		f, ok := s.ws.File(m.URI)
		if !ok {
			continue
		}
		out = append(out, protocol.SymbolInformation{
			Name: m.Symbol.Name,
			Kind: symbolKindToProtocol(m.Symbol.Kind),
			Location: protocol.Location{
				URI:   protocol.DocumentURI(m.URI),
				Range: rangeToProtocol(rangeFromByteRange(f.Text(), m.Symbol.ByteRange)),
			},
		})
	}
	return out, nil
}
