// Package web holds the embedded templates and static assets served by the
// application in release mode. In debug mode the same files are read from
// disk so template edits take effect without a rebuild.
package web

import "embed"

// EmbeddedFS contains all templates and static assets.
//
//go:embed templates static
var EmbeddedFS embed.FS
