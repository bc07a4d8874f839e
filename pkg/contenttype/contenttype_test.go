package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Category
	}{
		{"application/json", JSON},
		{"application/json; charset=utf-8", JSON},
		{"application/vnd.api+json", JSON},
		{"text/html", HTML},
		{"text/html; charset=utf-8", HTML},
		{"application/xhtml+xml", HTML},
		{"application/javascript", Script},
		{"text/css", Script},
		{"application/wasm", Script},
		{"application/xml", XML},
		{"text/plain", Text},
		{"application/x-www-form-urlencoded", Text},
		{"image/png", Binary},
		{"", Binary},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html; charset=utf-8"))
	assert.False(t, IsHTML("application/json"))
	assert.False(t, IsHTML(""))
}

func TestIsAssetURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/app.js", true},
		{"https://example.com/app.js?v=123", true},
		{"https://example.com/styles.css", true},
		{"https://example.com/logo.png", true},
		{"https://example.com/font.woff2", true},
		{"https://example.com/static/config", true},
		{"https://example.com/_next/data/page", true},
		{"https://example.com/assets/bundle", true},
		{"https://example.com/api/orders", false},
		{"https://example.com/login", false},
		{"https://example.com/jsonrpc", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAssetURL(tt.url))
		})
	}
}
