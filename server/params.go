package server

import (
	"strings"

	"github.com/RIZZZIOM/TinyFlaw/modules"
)

// ParseQuery extracts parameters from a raw query string.
// Repeated keys are joined with commas in order of appearance; tokens
// without '=' are skipped and empty values are kept.
func ParseQuery(raw string) modules.Params {
	params := make(modules.Params)

	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return params
	}

	for _, token := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(token, "=")
		if !ok || key == "" {
			continue
		}

		key = unquote(key)
		value = unquote(value)

		if prev, exists := params[key]; exists {
			params[key] = prev + "," + value
		} else {
			params[key] = value
		}
	}

	return params
}

// unquote percent-decodes s. Malformed escapes are kept literally and '+' is not a space.
func unquote(s string) string {
	if strings.IndexByte(s, '%') == -1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
