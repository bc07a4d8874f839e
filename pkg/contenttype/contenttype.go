// Package contenttype classifies HTTP content types and asset URLs for the
// provenance noise filter.
package contenttype

import (
	"mime"
	"path"
	"strings"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	HTML   Category = "html"
	Script Category = "script"
	Text   Category = "text"
	Binary Category = "binary"
)

// Classify returns the broad content category for a content-type header value.
// Uses mime.ParseMediaType to strip parameters (charset, boundary, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Returns Binary for empty content-type strings.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	// JSON: application/json, application/vnd.*+json, any containing "json"
	if strings.Contains(mediaType, "json") {
		return JSON
	}

	// Script assets: javascript, css, wasm
	if strings.Contains(mediaType, "javascript") ||
		strings.Contains(mediaType, "ecmascript") ||
		strings.Contains(mediaType, "css") ||
		strings.Contains(mediaType, "wasm") {
		return Script
	}

	// HTML: text/html, application/xhtml+xml
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		return HTML
	}

	// XML: application/xml, text/xml, application/vnd.*+xml
	if strings.Contains(mediaType, "xml") {
		return XML
	}

	// Text: text/*, form encodings
	if strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/x-www-form-urlencoded" {
		return Text
	}

	return Binary
}

// IsHTML reports whether the content type is an HTML document.
func IsHTML(contentType string) bool {
	return Classify(contentType) == HTML
}

// IsJSON returns true if the content type indicates JSON (case-insensitive).
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// assetExtensions maps file extensions that indicate static assets.
var assetExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".css": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".webp": true, ".avif": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".map": true,
	".mp4": true, ".webm": true, ".mp3": true, ".ogg": true,
	".pdf": true,
}

// IsAssetURL reports whether the URL points at a static asset (script,
// stylesheet, image, font) by extension or by common framework static dirs.
// Matches on such a URL are decorative, not real data dependencies.
func IsAssetURL(rawURL string) bool {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if assetExtensions[strings.ToLower(path.Ext(trimmed))] {
		return true
	}

	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "/static/") ||
		strings.Contains(lower, "/assets/") ||
		strings.Contains(lower, "/dist/") ||
		strings.Contains(lower, "/_next/") ||
		strings.Contains(lower, "/chunks/")
}
