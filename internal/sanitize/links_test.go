package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCensorLinks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Trailing comma preserved",
			input:    "Click http://evil.example/a?x=1, now!",
			expected: "Click [link censored], now!",
		},
		{
			name:     "HTTPS with trailing period",
			input:    "Sign in at https://login.example.com/reset.",
			expected: "Sign in at [link censored].",
		},
		{
			name:     "Parenthesised link",
			input:    "Docs (https://docs.example.com/x) attached",
			expected: "Docs ([link censored]) attached",
		},
		{
			name:     "Multiple links keep line breaks",
			input:    "one http://a.example/1\n\ttwo HTTPS://b.example/2\r\nend",
			expected: "one [link censored]\n\ttwo [link censored]\r\nend",
		},
		{
			name:     "Scheme inside a larger word is left alone",
			input:    "xhttp://not.a.link and myhttps://nope.example",
			expected: "xhttp://not.a.link and myhttps://nope.example",
		},
		{
			name:     "Scheme after a non-ASCII letter is left alone",
			input:    "éhttp://evil.example and простоhttps://evil.example",
			expected: "éhttp://evil.example and простоhttps://evil.example",
		},
		{
			name:     "Link after non-ASCII punctuation",
			input:    "¡http://evil.example/a now",
			expected: "¡[link censored] now",
		},
		{
			name:     "Link at start of text",
			input:    "http://evil.example/a is bad",
			expected: "[link censored] is bad",
		},
		{
			name:     "No links",
			input:    "  plain   text\n\nwith spacing  ",
			expected: "  plain   text\n\nwith spacing  ",
		},
		{
			name:     "Bare scheme is not a link",
			input:    "type http:// into the bar",
			expected: "type http:// into the bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CensorLinks(tt.input))
		})
	}
}

func TestCensorLinks_MarkerCountMatchesLinkCount(t *testing.T) {
	inputs := []string{
		"",
		"no links here",
		"http://a.example",
		"see http://a.example/x and https://b.example/y?z=1; also http://c.example.",
		"[http://a.example] <https://b.example> (http://c.example)",
	}

	for _, input := range inputs {
		k := CountLinks(input)
		out := CensorLinks(input)
		assert.Equal(t, k, strings.Count(out, LinkMarker), "input=%q", input)
		assert.Zero(t, CountLinks(out), "input=%q", input)
	}
}

func TestCensorLinks_Idempotent(t *testing.T) {
	input := "Reset at https://evil.example/reset?token=abc, or http://other.example!"
	once := CensorLinks(input)
	assert.Equal(t, once, CensorLinks(once))
	assert.NotContains(t, strings.ToLower(once), "http")
}
