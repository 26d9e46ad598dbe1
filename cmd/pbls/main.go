// Command pbls is a Language Server for the Protocol Buffers IDL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/protobuf-lsp/pbls/internal/pbls"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pbls",
		Short:         "A language server for Protocol Buffers .proto files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	return root
}

type serveFlags struct {
	pipePath string
	roots    []string
	compiler string
	watch    bool
}

func newServeCommand() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the language server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.pipePath, "pipe", "", "path to a UNIX socket to listen on; uses stdio if not specified")
	cmd.Flags().StringSliceVar(&flags.roots, "root", nil, "import search root (repeatable); defaults to the current directory")
	cmd.Flags().StringVar(&flags.compiler, "compiler", "", "protoc-compatible binary used for diagnostics (default: protoc on PATH)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "watch search roots and evict stale files as they change on disk")
	return cmd
}

func runServe(ctx context.Context, flags *serveFlags) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	transport, err := dial(flags.pipePath)
	if err != nil {
		return err
	}

	roots := flags.roots
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		roots = []string{wd}
	}

	cfg := pbls.Config{
		Roots:        roots,
		CompilerPath: flags.compiler,
		WatchRoots:   flags.watch,
	}

	conn, err := pbls.Serve(ctx, cfg, jsonrpc2.NewStream(transport), logger)
	if err != nil {
		return err
	}
	<-conn.Done()
	return conn.Err()
}

// dial opens the transport the LSP client will talk over: a UNIX socket
// if --pipe is set, stdio otherwise, matching how editors normally launch
// a language server subprocess.
func dial(pipePath string) (io.ReadWriteCloser, error) {
	if pipePath != "" {
		conn, err := net.Dial("unix", pipePath)
		if err != nil {
			return nil, fmt.Errorf("could not open IPC socket %q: %w", pipePath, err)
		}
		return conn, nil
	}
	return stdioReadWriteCloser{}, nil
}

// stdioReadWriteCloser composes os.Stdin/os.Stdout into a single stream;
// closing it is a no-op since the process owns neither descriptor
// exclusively.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.New("failed to construct logger: " + err.Error())
	}
	return logger, nil
}
