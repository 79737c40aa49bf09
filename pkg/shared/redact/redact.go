package redact

import (
	"strings"

	"github.com/rs/zerolog"
)

var sensitiveHeaders = []string{"authorization", "proxy-authorization", "cookie", "set-cookie", "x-api-key", "www-authenticate"}

// Header is the minimal shape of a header line.
type Header struct {
	Name  string
	Value string
}

// Headers returns the headers as "Name: value" strings with the values of
// sensitive headers masked. Order is preserved.
func Headers(headers []Header) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		v := h.Value
		if IsSensitive(h.Name) {
			v = "***"
		}
		out = append(out, h.Name+": "+v)
	}
	return out
}

// Array wraps Headers for structured logging.
func Array(headers []Header) *zerolog.Array {
	arr := zerolog.Arr()
	for _, s := range Headers(headers) {
		arr.Str(s)
	}
	return arr
}

func IsSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, s := range sensitiveHeaders {
		if name == s {
			return true
		}
	}
	return false
}
