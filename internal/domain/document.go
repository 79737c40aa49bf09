package domain

// Document is the raw content of an as-is file as read from storage.
type Document struct {
	Path string
	Raw  []byte
}

// Response is a parsed as-is document: a verbatim status line, the header
// list in file order and the body bytes.
type Response struct {
	StatusLine string
	Headers    Headers
	Body       []byte
}

// Clone returns a deep copy of r.
func (r Response) Clone() Response {
	out := Response{StatusLine: r.StatusLine, Headers: r.Headers.Clone()}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// Rendered is what the HTTP layer needs to answer a request for a document.
type Rendered struct {
	StatusCode int
	Reason     string
	Response   Response
	// Bytes is the wire form of Response (status line, CRLF headers, body).
	Bytes []byte
	// Compression and Charset describe the transforms that were applied.
	Compression string
	Charset     string
	// UnsupportedEncoding is a declared Content-Encoding that was not applied.
	UnsupportedEncoding string
}
