package asis

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"asis-server/internal/domain"
)

// Parse splits a raw document into its status line, headers and body.
//
// The status line is kept verbatim. Header lines run up to the first blank
// line, which is required. A carriage return before a newline is tolerated
// in the head so that rendered output can be parsed again. The body is
// everything after the blank line, untouched.
func Parse(raw []byte) (domain.Response, error) {
	if len(raw) == 0 {
		return domain.Response{}, malformed("empty document")
	}

	line, rest, ok := nextLine(raw)
	if !ok {
		return domain.Response{}, malformed("missing blank line after headers")
	}
	status := string(line)
	if status == "" {
		return domain.Response{}, malformed("empty status line")
	}
	if !isPrintableASCII(status) {
		return domain.Response{}, malformed("status line is not printable ASCII")
	}

	var headers domain.Headers
	for n := 2; ; n++ {
		line, rest, ok = nextLine(rest)
		if !ok {
			return domain.Response{}, malformed("missing blank line after headers")
		}
		if len(line) == 0 {
			break
		}
		h, err := parseHeader(line)
		if err != nil {
			return domain.Response{}, fmt.Errorf("%w: line %d: %s", domain.ErrMalformedDocument, n, err.Error())
		}
		headers = append(headers, h)
	}

	return domain.Response{StatusLine: status, Headers: headers, Body: rest}, nil
}

// nextLine returns the line at the start of b without its terminator and
// the bytes that follow. ok is false if b holds no newline.
func nextLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return nil, b, false
	}
	line, rest = b[:i], b[i+1:]
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, rest, true
}

func parseHeader(line []byte) (domain.Header, error) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return domain.Header{}, fmt.Errorf("no colon in header line %q", line)
	}
	name := string(line[:i])
	if !httpguts.ValidHeaderFieldName(name) {
		return domain.Header{}, fmt.Errorf("invalid header name %q", name)
	}
	value := strings.TrimLeft(string(line[i+1:]), " \t")
	if !httpguts.ValidHeaderFieldValue(value) || !isASCII(value) {
		return domain.Header{}, fmt.Errorf("invalid value for header %s", name)
	}
	return domain.Header{Name: name, Value: value}, nil
}

// ParseStatus extracts the status code and reason phrase from a status
// line. Both "HTTP/1.1 404 Not Found" and the bare "404 Not Found" form are
// accepted.
func ParseStatus(line string) (code int, reason string, err error) {
	rest := line
	if HasProtocol(line) {
		_, rest, _ = strings.Cut(line, " ")
	}
	digits, reason, _ := strings.Cut(rest, " ")
	if len(digits) != 3 {
		return 0, "", malformed(fmt.Sprintf("bad status line %q", line))
	}
	code, err = strconv.Atoi(digits)
	if err != nil || code < 100 {
		return 0, "", malformed(fmt.Sprintf("bad status code in %q", line))
	}
	return code, reason, nil
}

// HasProtocol reports whether the status line starts with an HTTP version.
func HasProtocol(statusLine string) bool {
	return strings.HasPrefix(statusLine, "HTTP/")
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedDocument, msg)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c < 0x20 && c != '\t') || c >= 0x7f {
			return false
		}
	}
	return true
}
