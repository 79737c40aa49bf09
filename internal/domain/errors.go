package domain

import "errors"

var (
	// ErrMalformedDocument reports a document without a header/body separator,
	// an empty document or a header line that cannot be parsed.
	ErrMalformedDocument = errors.New("malformed as-is document")
	// ErrNotFound reports a request path with no document beneath the root.
	ErrNotFound = errors.New("document not found")
	// ErrUnsupportedCharset reports a Content-Type charset with no known encoder.
	ErrUnsupportedCharset = errors.New("unsupported charset")
	// ErrInvalidEncoding reports a body that is not valid UTF-8 or that holds
	// characters the target charset cannot represent.
	ErrInvalidEncoding = errors.New("invalid body encoding")
)

// DocumentError ties a failure to the request path it happened on.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *DocumentError) Unwrap() error { return e.Err }

// ErrorKind returns a stable short name for err, used in metrics and API
// error codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, ErrUnsupportedCharset):
		return "unsupported_charset"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	default:
		return "internal"
	}
}
