package asis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"

	"asis-server/internal/domain"
)

// LookupCharset returns the encoding registered under name. IANA names are
// tried first so that "iso-8859-1" means ISO-8859-1 and not its WHATWG alias
// windows-1252; WHATWG labels cover the rest.
func LookupCharset(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return nil, fmt.Errorf("%w: empty name", domain.ErrUnsupportedCharset)
	}
	if e, err := ianaindex.IANA.Encoding(n); err == nil && e != nil {
		return e, nil
	}
	if e, err := htmlindex.Get(n); err == nil && e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedCharset, name)
}

// Encode re-encodes a UTF-8 body into the named charset. Invalid UTF-8 and
// characters the target cannot represent are errors; nothing is replaced.
func Encode(body []byte, charset string) ([]byte, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", domain.ErrInvalidEncoding)
	}
	out, err := enc.NewEncoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode body as %s: %v", domain.ErrInvalidEncoding, charset, err)
	}
	return out, nil
}
