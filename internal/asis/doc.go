// Package asis turns stored as-is documents into wire-ready HTTP responses.
//
// An as-is document is a file holding a literal HTTP response:
//
//	HTTP/1.1 200 OK\n
//	Content-Type: text/plain; charset=iso-8859-1\n
//	Content-Encoding: gzip\n
//	Content-Length: 0\n
//	\n
//	body bytes...
//
// Lines on disk end with a bare newline; the rendered response uses CRLF.
// The body on disk is always the plain UTF-8 representation. Declared
// transforms are applied at serve time, charset first and then compression,
// and every Content-Length header is rewritten to the final body length.
//
// Everything in this package is a pure function of its input and safe for
// concurrent use.
package asis
