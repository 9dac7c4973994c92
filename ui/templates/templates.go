package templates

import "embed"

// FS contains the server-rendered HTML templates.
//
//go:embed *.html
var FS embed.FS
