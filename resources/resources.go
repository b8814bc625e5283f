// Package resources embeds the HTML templates into the binary.
package resources

import "embed"

// Views holds views/*.html. Every page defines "title" and "content" and is
// rendered inside views/layout.html.
//
//go:embed views/*.html
var Views embed.FS
