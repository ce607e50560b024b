package controllers

import (
	"net/http"
	"os"
	"strings"
)

// MediaFiles serves files under root at prefix. Directory listings are
// disabled.
func MediaFiles(prefix, root string) http.Handler {
	fs := http.FileServer(noListing{http.Dir(root)})
	return http.StripPrefix(strings.TrimSuffix(prefix, "/"), fs)
}

type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
