package static

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var StaticFS embed.FS

// Assets returns the embedded assets rooted at the static directory, ready to
// be served under /static.
func Assets() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
