package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

const truncationMarker = "\n[... Content truncated due to size limits ...]"

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	tests := []struct {
		name    string
		text    string
		maxSize int
		want    string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"no limit", "hello", 0, "hello"},
		{"cut on ascii", "hello world", 5, "hello" + truncationMarker},
		{"cut inside a rune", "héllo", 2, "h" + truncationMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tp.TruncateText(tt.text, tt.maxSize)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(nil)

	assert.Equal(t, "plain", tp.SanitizeUTF8("plain"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
}

func TestNormalize(t *testing.T) {
	tp := NewTextProcessor(nil)

	assert.Equal(t, "caf\u00e9", tp.Normalize("  cafe\u0301\n"))
	assert.Equal(t, "", tp.Normalize(" \t "))
}

func TestPrintable(t *testing.T) {
	tp := NewTextProcessor(nil)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain text", "Password expiry", "Password expiry"},
		{"newline and tab kept", "a\n\tb", "a\n\tb"},
		{"csi sequence", "\x1b[2JHi", "\uFFFD[2JHi"},
		{"osc title", "\x1b]0;pwned\x07", "\uFFFD]0;pwned\uFFFD"},
		{"c1 control", "a\u009bb", "a\uFFFDb"},
		{"carriage return", "ok\rfake", "ok\uFFFDfake"},
		{"bidi override", "invoice\u202Efdp.exe", "invoice\uFFFDfdp.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tp.Printable(tt.text)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "\x1b")
		})
	}
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(nil)

	got := tp.ProcessText(strings.Repeat("a", 20)+"\xff", 10)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 10)))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.True(t, utf8.ValidString(got))
}
