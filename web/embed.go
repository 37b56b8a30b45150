// Package web holds the embedded page and form templates.
package web

import "embed"

// Templates contains layout.html, pages/ and forms/.
//
//go:embed templates
var Templates embed.FS
