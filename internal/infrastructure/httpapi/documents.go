package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"asis-server/internal/asis"
	"asis-server/internal/domain"
	"asis-server/internal/infrastructure/config"
	"asis-server/pkg/shared/redact"
)

// hop-by-hop headers net/http manages itself in structured mode
var hopHeaders = []string{"Connection", "Proxy-Connection", "Keep-Alive", "Te", "Trailer", "Transfer-Encoding", "Upgrade"}

// handleDocument answers any non-admin path with the as-is document stored
// for it.
func (d *Deps) handleDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rendered, err := d.Svc.RenderResponse(r.Context(), r.URL.Path)
	if err != nil {
		d.fail(w, r, start, err)
		return
	}

	d.Delay.Sleep(r.Context())

	bodyBytes := len(rendered.Response.Body)
	if r.Method == http.MethodHead {
		bodyBytes = 0
	}
	// recorded before writing so the entry exists once the client has the response
	d.served(r, start, rendered, bodyBytes)

	if d.useRawWrite(r, rendered) {
		err = writeRaw(w, r, rendered)
	} else {
		err = writeStructured(w, r, rendered)
	}
	if err != nil {
		// the status line may already be on the wire; nothing else to send
		d.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("write failed")
	}
}

func (d *Deps) useRawWrite(r *http.Request, rendered domain.Rendered) bool {
	if d.Cfg.WriteMode != config.WriteRaw || r.ProtoMajor != 1 {
		return false
	}
	return asis.HasProtocol(rendered.Response.StatusLine)
}

// writeRaw takes over the connection and writes the rendered bytes exactly,
// then closes it. Status line, reason phrase and header case reach the
// client untouched.
func writeRaw(w http.ResponseWriter, r *http.Request, rendered domain.Rendered) error {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return writeStructured(w, r, rendered)
	}
	conn, bufrw, err := hj.Hijack()
	if err != nil {
		return err
	}
	defer conn.Close()

	payload := rendered.Bytes
	if r.Method == http.MethodHead {
		head := rendered.Response
		head.Body = nil
		payload = asis.Render(head)
	}
	if _, err := bufrw.Write(payload); err != nil {
		return err
	}
	return bufrw.Flush()
}

// writeStructured copies the rendered response into w. Header order is kept
// but names are canonicalized by net/http and the reason phrase is lost.
func writeStructured(w http.ResponseWriter, r *http.Request, rendered domain.Rendered) error {
	h := w.Header()
	for _, f := range rendered.Response.Headers {
		if isHopHeader(f.Name) {
			continue
		}
		h.Add(f.Name, f.Value)
	}
	w.WriteHeader(rendered.StatusCode)
	if r.Method == http.MethodHead {
		return nil
	}
	_, err := w.Write(rendered.Response.Body)
	return err
}

func isHopHeader(name string) bool {
	for _, k := range hopHeaders {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func (d *Deps) fail(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	kind := domain.ErrorKind(err)
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
	}

	var ev *zerolog.Event
	switch {
	case status == http.StatusNotFound:
		ev = d.Logger.Info()
	case kind == "internal":
		ev = d.Logger.Error()
	default:
		ev = d.Logger.Warn()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Str("kind", kind).Msg("document not served")

	d.Metrics.DocumentErrors.WithLabelValues(kind).Inc()
	d.record(domain.ServedDocument{
		ID:        uuid.NewString(),
		Method:    r.Method,
		Path:      r.URL.Path,
		Status:    status,
		Error:     err.Error(),
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
	}, "document_failed")

	message := err.Error()
	if status == http.StatusNotFound {
		message = "File Not Found"
	}
	writeError(w, status, strings.ToUpper(kind), message, map[string]any{"path": r.URL.Path})
}

func (d *Deps) served(r *http.Request, start time.Time, rendered domain.Rendered, n int) {
	rec := domain.ServedDocument{
		ID:          uuid.NewString(),
		Method:      r.Method,
		Path:        r.URL.Path,
		Status:      rendered.StatusCode,
		Bytes:       n,
		Compression: rendered.Compression,
		Charset:     rendered.Charset,
		StartedAt:   start.UTC(),
		Duration:    time.Since(start),
	}

	d.Metrics.DocumentsServed.WithLabelValues(strconv.Itoa(rendered.StatusCode)).Inc()
	d.Metrics.ResponseBytes.Observe(float64(n))
	if rendered.Charset != "" {
		d.Metrics.Transforms.WithLabelValues("charset").Inc()
	}
	if rendered.Compression != "" {
		d.Metrics.Transforms.WithLabelValues(rendered.Compression).Inc()
	}

	d.Logger.Info().
		Str("method", r.Method).
		Str("path", rec.Path).
		Int("status", rec.Status).
		Int("bytes", rec.Bytes).
		Str("compression", rec.Compression).
		Str("charset", rec.Charset).
		Dur("duration", rec.Duration).
		Msg("document served")
	if rendered.UnsupportedEncoding != "" {
		d.Logger.Warn().Str("path", rec.Path).Str("encoding", rendered.UnsupportedEncoding).Msg("content encoding not supported, body sent as stored")
	}
	if e := d.Logger.Debug(); e.Enabled() {
		e.Array("headers", redact.Array(toRedact(rendered.Response.Headers))).
			Str("body", bodyPreview(rendered.Response.Body)).
			Str("path", rec.Path).
			Msg("document detail")
	}

	d.record(rec, "document_served")
}

func (d *Deps) record(rec domain.ServedDocument, eventType string) {
	// history outlives the request, so its context is not used
	if err := d.Svc.Record(context.Background(), rec); err != nil {
		d.Logger.Warn().Err(err).Msg("history append failed")
	}
	d.Monitor.Broadcast(MonitorEvent{Type: eventType, ID: rec.ID, Path: rec.Path, Status: rec.Status, Error: rec.Error})
}

func toRedact(headers domain.Headers) []redact.Header {
	out := make([]redact.Header, len(headers))
	for i, h := range headers {
		out[i] = redact.Header{Name: h.Name, Value: h.Value}
	}
	return out
}
