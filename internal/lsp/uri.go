package lsp

import (
	"net/url"
	"strings"
)

// uriToPath converts a file:// URI to a filesystem path, decoding percent
// escapes. Anything that is not a file URI is returned as-is.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

// pathToURI converts an absolute filesystem path to a file:// URI.
func pathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
