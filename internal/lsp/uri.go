package lsp

import (
	"net/url"
	"path/filepath"
)

// UriToPath returns the local path of a file URI, or "" for any other
// scheme.
func UriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI is the inverse of UriToPath for absolute paths.
func PathToURI(absPath string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()
}
