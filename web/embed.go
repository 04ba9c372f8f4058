// Package web provides the embedded chat page.
package web

import "embed"

// FS contains the embedded chat page (index.html, static/chat.css, static/chat.js).
//
//go:embed index.html static
var FS embed.FS
