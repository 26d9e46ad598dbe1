package pbls

import (
	"net/url"
	"strings"

	"go.lsp.dev/uri"
)

// FilePathToURI converts a filesystem path to a normalized file:// URI
// string, matching buflsp's FilePathToURI/normalizeURI exactly (VS Code's
// microsoft/vscode-uri encoding: '@' and ':' always percent-encoded, Windows
// drive letters lowercased).
func FilePathToURI(path string) string {
	return string(normalizeURI(uri.File(path)))
}

func normalizeURI(u uri.URI) uri.URI {
	str := string(u)

	after, found := strings.CutPrefix(str, "file:///")
	if !found {
		return uri.URI(strings.ReplaceAll(str, "@", "%40"))
	}

	segments := strings.Split(after, "/")
	for i, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			decoded = segment
		}
		encoded := url.PathEscape(decoded)
		encoded = strings.ReplaceAll(encoded, "@", "%40")
		encoded = strings.ReplaceAll(encoded, ":", "%3A")
		segments[i] = encoded
	}

	if len(segments[0]) == 4 &&
		segments[0][0] >= 'A' && segments[0][0] <= 'Z' &&
		segments[0][1:] == "%3A" {
		segments[0] = string(segments[0][0]+32) + "%3A"
	}

	return uri.URI("file:///" + strings.Join(segments, "/"))
}

// fileURIForPath is the internal helper used throughout the workspace to
// turn a resolved filesystem path into the map key File operations are
// stored under.
func fileURIForPath(path string) string {
	return FilePathToURI(path)
}

// uriToPath converts a file:// URI back to a filesystem path.
func uriToPath(rawURI string) (string, error) {
	parsed, err := uri.Parse(rawURI)
	if err != nil {
		return "", err
	}
	return parsed.Filename(), nil
}

// validateFileScheme rejects any URI that is not a file:// URI, per
// spec.md §7 "Unsupported URL scheme: reject non-file:// URLs on open."
func validateFileScheme(rawURI string) error {
	if !strings.HasPrefix(rawURI, "file://") {
		scheme := rawURI
		if idx := strings.Index(rawURI, "://"); idx >= 0 {
			scheme = rawURI[:idx]
		}
		return &errUnsupportedScheme{scheme: scheme}
	}
	return nil
}
