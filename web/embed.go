package web

import "embed"

// TemplatesFS embeds the calculator page and its summary partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and script loaded by the page.
//
//go:embed static/*
var StaticFS embed.FS
