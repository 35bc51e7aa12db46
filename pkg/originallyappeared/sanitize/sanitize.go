// Package sanitize reduces submitted form values to single-line plain text.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	whitespaceRun = regexp.MustCompile(`[\r\n\t ]+`)
	spaceRun      = regexp.MustCompile(` +`)
	percentOctet  = regexp.MustCompile(`(?i)%[a-f0-9]{2}`)
)

// TextSanitizer strips markup, control whitespace and percent-encoded octets.
type TextSanitizer struct {
	policy     *bluemonday.Policy
	keepOctets bool
}

// Option configures a TextSanitizer
type Option func(*TextSanitizer)

// KeepPercentEncoding leaves %XX sequences in place. By default they are removed.
func KeepPercentEncoding() Option {
	return func(s *TextSanitizer) {
		s.keepOctets = true
	}
}

// New creates a sanitizer backed by a strict bluemonday policy.
func New(opts ...Option) *TextSanitizer {
	s := &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SanitizeText returns in as plain text: invalid UTF-8 yields "", tags and
// their script/style bodies are removed, runs of whitespace collapse to one
// space and the result is trimmed. The result is unescaped text, not HTML.
func (s *TextSanitizer) SanitizeText(in string) string {
	if !utf8.ValidString(in) {
		return ""
	}

	out := s.stripMarkup(in)

	out = strings.TrimSpace(whitespaceRun.ReplaceAllString(out, " "))

	if !s.keepOctets {
		found := false
		for percentOctet.MatchString(out) {
			out = percentOctet.ReplaceAllString(out, "")
			found = true
		}
		if found {
			out = strings.TrimSpace(spaceRun.ReplaceAllString(out, " "))
		}
	}

	return out
}

// stripMarkup alternates tag removal and entity decoding until neither changes
// the text, so markup hidden behind any number of encoding layers is removed.
// Passes are bounded by the input length; text that has not settled by then
// loses its angle brackets outright.
func (s *TextSanitizer) stripMarkup(in string) string {
	out := in
	for i := 0; i <= len(in); i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return out
		}
		out = next
	}
	return strings.NewReplacer("<", "", ">", "").Replace(out)
}
