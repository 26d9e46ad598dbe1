package pbls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePathToURIRoundTrip(t *testing.T) {
	u := FilePathToURI("/tmp/foo/bar.proto")
	assert.Equal(t, "file:///tmp/foo/bar.proto", u)

	path, err := uriToPath(u)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/foo/bar.proto", path)
}

func TestFilePathToURIEscapesAtAndColon(t *testing.T) {
	u := FilePathToURI("/tmp/user@host:8080/bar.proto")
	assert.Contains(t, u, "%40")
	assert.Contains(t, u, "%3A")
}

func TestValidateFileScheme(t *testing.T) {
	assert.NoError(t, validateFileScheme("file:///tmp/foo.proto"))

	err := validateFileScheme("http://example.com/foo.proto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}
