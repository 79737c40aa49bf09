package asis

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

var (
	gzipWriterPool  objectPool[*gzip.Writer]
	flateWriterPool objectPool[*flate.Writer]
)

type objectPool[T any] struct {
	pool sync.Pool
}

func (p *objectPool[T]) get(newObject func() T) T {
	v, ok := p.pool.Get().(T)
	if ok {
		return v
	}
	return newObject()
}

func (p *objectPool[T]) put(obj T) {
	p.pool.Put(obj)
}

// Compress encodes body with c. Gzip output carries no timestamp or name so
// the same input always yields the same bytes. Deflate output is a raw
// DEFLATE stream without the zlib wrapper, which is what most clients
// expect for "Content-Encoding: deflate".
func Compress(body []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case CompressionNone:
		return body, nil
	case CompressionGzip:
		w := gzipWriterPool.get(func() *gzip.Writer {
			return gzip.NewWriter(nil)
		})
		defer gzipWriterPool.put(w)
		w.Reset(&buf)
		if err := writeAndClose(w, body); err != nil {
			return nil, err
		}
	case CompressionDeflate:
		w := flateWriterPool.get(func() *flate.Writer {
			fw, _ := flate.NewWriter(nil, flate.DefaultCompression)
			return fw
		})
		defer flateWriterPool.put(w)
		w.Reset(&buf)
		if err := writeAndClose(w, body); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown compression: %q", c)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(body []byte, c Compression) ([]byte, error) {
	var r io.ReadCloser
	switch c {
	case CompressionNone:
		return body, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r = zr
	case CompressionDeflate:
		r = flate.NewReader(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("unknown compression: %q", c)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func writeAndClose(w io.WriteCloser, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Close()
}
