package asis

import (
	"strconv"
	"strings"

	"asis-server/internal/domain"
)

// Compression is a Content-Encoding the server knows how to apply.
type Compression string

const (
	CompressionNone    Compression = ""
	CompressionGzip    Compression = "gzip"
	CompressionDeflate Compression = "deflate"
)

// DirectiveHeader carries per-document processing switches, for example
// "Asis: no-charset; no-encoding". It is served like any other header.
const DirectiveHeader = "Asis"

const (
	directiveNoCharset  = "no-charset"
	directiveNoEncoding = "no-encoding"
)

// Plan lists the transforms a response asks for. It is derived from the
// headers only and never stored.
type Plan struct {
	Compression Compression
	// Encoding is the declared Content-Encoding value, set even when it is
	// not one we can apply.
	Encoding string
	// Charset is the target character set named by Content-Type.
	Charset string
}

// Unsupported reports whether the response declares a Content-Encoding that
// is served without compression because we do not implement it.
func (p Plan) Unsupported() bool {
	return p.Encoding != "" && p.Compression == CompressionNone
}

// PlanFor derives the transform plan from the headers of resp.
func PlanFor(resp domain.Response) Plan {
	var noCharset, noEncoding bool
	for _, v := range resp.Headers.Values(DirectiveHeader) {
		for _, d := range strings.Split(v, ";") {
			switch strings.ToLower(strings.TrimSpace(d)) {
			case directiveNoCharset:
				noCharset = true
			case directiveNoEncoding:
				noEncoding = true
			}
		}
	}

	var p Plan
	if !noCharset {
		p.Charset = contentTypeCharset(resp.Headers.Get("Content-Type"))
	}
	if !noEncoding {
		p.Encoding = strings.TrimSpace(resp.Headers.Get("Content-Encoding"))
		switch strings.ToLower(p.Encoding) {
		case "gzip":
			p.Compression = CompressionGzip
		case "deflate":
			p.Compression = CompressionDeflate
		}
	}
	return p
}

// contentTypeCharset returns the charset parameter of a Content-Type value.
func contentTypeCharset(ct string) string {
	_, params, found := strings.Cut(ct, ";")
	if !found {
		return ""
	}
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(param, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "charset") {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}

// Transform applies the transforms declared by resp's headers and returns
// the result. resp is not modified.
func Transform(resp domain.Response) (domain.Response, error) {
	return Apply(resp, PlanFor(resp))
}

// Apply runs plan against resp: charset re-encoding, then compression, then
// Content-Length recomputation. Every Content-Length header is overwritten
// with the final body length; a response without one keeps having none.
func Apply(resp domain.Response, plan Plan) (domain.Response, error) {
	out := resp.Clone()
	body := out.Body

	if plan.Charset != "" {
		b, err := Encode(body, plan.Charset)
		if err != nil {
			return domain.Response{}, err
		}
		body = b
	}

	if plan.Compression != CompressionNone {
		b, err := Compress(body, plan.Compression)
		if err != nil {
			return domain.Response{}, err
		}
		body = b
	}

	out.Body = body
	out.Headers.Replace("Content-Length", strconv.Itoa(len(body)))
	return out, nil
}
