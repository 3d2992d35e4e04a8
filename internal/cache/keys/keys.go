// Package keys builds cache keys for conversion results.
package keys

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Version is bumped whenever the cached payload changes shape.
const Version = "v2"

const prefix = "dxf2gml"

// Conversion keys the result of converting data under code. The drawing is
// keyed by its SHA-256 digest; opts is the fingerprint of the conversion
// options. Equal inputs give equal keys.
func Conversion(code string, data []byte, opts string) string {
	codeSafe := sanitizeForKey(strings.TrimSpace(code))
	return fmt.Sprintf("%s:%s:%s:%x:o=%016x",
		prefix, Version, codeSafe, sha256.Sum256(data), xxhash.Sum64String(normalizeOptions(opts)))
}

// Prefix matches every conversion key of the current version.
func Prefix() string {
	return prefix + ":" + Version + ":"
}

func normalizeOptions(s string) string {
	return collapseASCIIWhitespace(strings.TrimSpace(s))
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case isSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// separators and non-ASCII collapse to '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if isSpace(r) {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
