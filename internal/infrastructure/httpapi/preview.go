package httpapi

import "unicode/utf8"

// previewMaxBytes bounds how much of a body is copied into debug logs.
const previewMaxBytes = 256

// bodyPreview returns the start of b as text when it is valid UTF-8 and as
// a short hexdump otherwise (compressed or re-encoded bodies).
func bodyPreview(b []byte) string {
	n := len(b)
	if n > previewMaxBytes {
		n = previewMaxBytes
	}
	if utf8.Valid(b[:n]) {
		return string(b[:n])
	}
	return formatBinaryPreview(b, n)
}

// formatBinaryPreview returns a short hexdump-like preview for binary data.
func formatBinaryPreview(b []byte, max int) string {
	if max <= 0 || max > len(b) {
		max = len(b)
	}
	if max > 64 {
		max = 64
	}
	const hexdigits = "0123456789ABCDEF"
	n := max
	out := make([]byte, 0, n*3+16)
	for i := 0; i < n; i++ {
		v := b[i]
		out = append(out, hexdigits[v>>4], hexdigits[v&0x0F])
		if i+1 < n {
			out = append(out, ' ')
		}
	}
	return string(out)
}
