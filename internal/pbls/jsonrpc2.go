package pbls

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Serve wires a Server over stream and runs the jsonrpc2 dispatch loop in
// the background, mirroring buflsp's Serve entry point. It returns once
// the connection is established; callers wait on conn.Done() for the
// session to end.
func Serve(ctx context.Context, cfg Config, stream jsonrpc2.Stream, logger *zap.Logger) (jsonrpc2.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := NewWorkspace(cfg, logger)
	srv := NewServer(ws, logger)

	// protocol.NewServer wires srv to a jsonrpc2.Conn over stream and
	// starts the dispatch loop (conn.Go) itself; callers just wait on
	// conn.Done().
	ctx, conn, _ := protocol.NewServer(ctx, srv, stream, logger)
	srv.conn = conn

	if err := ws.WatchRoots(ctx); err != nil {
		logger.Warn("failed to start root watcher", zap.Error(err))
	}

	return conn, nil
}
