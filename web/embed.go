// Package web embeds the page templates and static assets.
package web

import "embed"

// TemplatesFS holds layout.html plus one file per page; each page defines
// a "content" block.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
