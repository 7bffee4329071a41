// Package web bundles the HTML page and email templates and the static
// assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates/layouts templates/partials templates/pages templates/email
	templates embed.FS

	//go:embed static/css
	assets embed.FS
)

var (
	// TemplateFS holds templates/{layouts,partials,pages,email}. Paths keep
	// the templates/ prefix.
	TemplateFS fs.FS = templates

	// StaticFS is served under /static/, so file paths start with static/.
	StaticFS fs.FS = assets
)
