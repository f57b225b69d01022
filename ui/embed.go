package ui

import (
	"embed"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// FileSystem returns the console shell rooted at dist
func FileSystem() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
