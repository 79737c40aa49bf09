package asis

import (
	"io"

	"asis-server/internal/domain"
)

const crlf = "\r\n"

// Render serializes resp: the status line, each header as "Name: value" in
// order, a blank line and the body, with CRLF line endings.
func Render(resp domain.Response) []byte {
	n := len(resp.StatusLine) + len(crlf) + len(crlf) + len(resp.Body)
	for _, h := range resp.Headers {
		n += len(h.Name) + len(": ") + len(h.Value) + len(crlf)
	}

	b := make([]byte, 0, n)
	b = append(b, resp.StatusLine...)
	b = append(b, crlf...)
	for _, h := range resp.Headers {
		b = append(b, h.Name...)
		b = append(b, ": "...)
		b = append(b, h.Value...)
		b = append(b, crlf...)
	}
	b = append(b, crlf...)
	b = append(b, resp.Body...)
	return b
}

// WriteTo writes the rendered form of resp to w.
func WriteTo(w io.Writer, resp domain.Response) (int64, error) {
	n, err := w.Write(Render(resp))
	return int64(n), err
}
