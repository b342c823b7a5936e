package server

import (
	"embed"
	"io/fs"
)

//go:embed web
var webFS embed.FS

// staticAssets returns the embedded dashboard assets rooted at the web
// directory.
func staticAssets() fs.FS {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return sub
}
