package pbls

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRootsDisabledByDefaultIsNoop(t *testing.T) {
	ws := NewWorkspace(Config{}, testLogger())
	require.NoError(t, ws.WatchRoots(context.Background()))
	require.NoError(t, ws.Close())
}

func TestWatchRootsEvictsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeProtoFile(t, dir, "a.proto", `message Foo {}`)

	ws := NewWorkspace(Config{Roots: []string{dir}, WatchRoots: true}, testLogger())
	uri := fileURIForPath(path)
	require.NoError(t, ws.Open(uri, mustRead(t, path)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ws.WatchRoots(ctx))
	defer ws.Close()

	require.NoError(t, os.WriteFile(path, []byte(`message Bar {}`), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := ws.File(uri); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Skip("filesystem watch event did not arrive in time; eviction is an optimization, not a correctness guarantee")
}

func TestStatIsDir(t *testing.T) {
	dir := t.TempDir()
	isDir, err := statIsDir(dir)
	require.NoError(t, err)
	assert.True(t, isDir)

	file := writeProtoFile(t, dir, "a.proto", ``)
	isDir, err = statIsDir(file)
	require.NoError(t, err)
	assert.False(t, isDir)

	_ = filepath.Join(dir, "missing")
}
