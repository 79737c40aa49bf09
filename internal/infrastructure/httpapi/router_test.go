package httpapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"asis-server/internal/adapters/storage/memory"
	"asis-server/internal/asis"
	"asis-server/internal/infrastructure/config"
	obs "asis-server/internal/infrastructure/observability"
	"asis-server/internal/usecase"
)

var testDocs = map[string]string{
	"/basic/basic.asis":     "HTTP/1.1 200 OK\nContent-Type: text/html\nX-lower-case: yes\nContent-Length: 22\n\n<html>test page</html>",
	"/encoding/gzip.asis":   "HTTP/1.1 200 OK\nContent-Type: text/plain\nContent-Encoding: gzip\nContent-Length: 0\n\nGzip compressed body\n",
	"/encoding/latin1.asis": "HTTP/1.1 200 OK\nContent-Type: text/plain; charset=iso-8859-1\nContent-Length: 0\n\ncafé\n",
	"/basic/teapot.asis":    "418 I'm a teapot\nContent-Length: 0\n\nshort and stout",
	"/basic/empty.asis":     "",
	"/basic/chunked.asis":   "HTTP/1.1 200 OK\nTransfer-Encoding: chunked\nConnection: keep-alive\n\nplain body",
}

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *Deps) {
	t.Helper()
	store := memory.NewStore(100, time.Hour)
	for p, raw := range testDocs {
		store.Put(p, []byte(raw))
	}
	logger := zerolog.New(io.Discard)
	deps := &Deps{
		Cfg:     cfg,
		Logger:  &logger,
		Metrics: obs.NewMetrics(),
		Svc:     usecase.NewDocumentService(store, store),
	}
	srv := httptest.NewServer(NewRouterWithDeps(deps))
	t.Cleanup(srv.Close)
	return srv, deps
}

// rawRequest sends a request line by hand and returns everything the server
// writes until it closes the connection.
func rawRequest(t *testing.T, srv *httptest.Server, method, path string) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, method+" "+path+" HTTP/1.1\r\nHost: asis.test\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return out
}

func noCompressionClient() *http.Client {
	return &http.Client{Transport: &http.Transport{DisableCompression: true}}
}

func TestRawWriteIsByteExact(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	got := rawRequest(t, srv, http.MethodGet, "/basic/basic.asis")
	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html\r\n" +
		"X-lower-case: yes\r\n" +
		"Content-Length: 22\r\n" +
		"\r\n" +
		"<html>test page</html>"
	assert.Equal(t, want, string(got))
}

func TestRawWriteHead(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	got := rawRequest(t, srv, http.MethodHead, "/basic/basic.asis")
	assert.True(t, bytes.HasSuffix(got, []byte("Content-Length: 22\r\n\r\n")), "%q", got)
}

func TestServeBasic(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	res, err := http.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "test page")
	assert.Equal(t, "yes", res.Header.Get("X-Lower-Case"))
}

func TestServeGzip(t *testing.T) {
	for _, mode := range []string{config.WriteRaw, config.WriteStructured} {
		t.Run(mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.WriteMode = mode
			srv, _ := newTestServer(t, cfg)

			res, err := noCompressionClient().Get(srv.URL + "/encoding/gzip.asis")
			require.NoError(t, err)
			defer res.Body.Close()
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
			assert.Equal(t, strconv.Itoa(len(body)), res.Header.Get("Content-Length"))
			plain, err := asis.Decompress(body, asis.CompressionGzip)
			require.NoError(t, err)
			assert.Equal(t, "Gzip compressed body\n", string(plain))
		})
	}
}

func TestServeGzipTransparentClient(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	res, err := http.Get(srv.URL + "/encoding/gzip.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, res.Uncompressed)
	assert.Equal(t, "Gzip compressed body\n", string(body))
}

func TestServeCharset(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	res, err := http.Get(srv.URL + "/encoding/latin1.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9\n"), body)
	assert.Equal(t, "5", res.Header.Get("Content-Length"))
}

func TestServeBareStatusLine(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	res, err := http.Get(srv.URL + "/basic/teapot.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, res.StatusCode)
	assert.Equal(t, "short and stout", string(body))
}

func TestStructuredDropsHopHeaders(t *testing.T) {
	cfg := config.Default()
	cfg.WriteMode = config.WriteStructured
	srv, _ := newTestServer(t, cfg)

	res, err := http.Get(srv.URL + "/basic/chunked.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "plain body", string(body))
}

func TestServeErrors(t *testing.T) {
	srv, deps := newTestServer(t, config.Default())

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{path: "/basis/alksjdlfwoieuroaksjd;lfkjas", status: http.StatusNotFound, code: "NOT_FOUND"},
		{path: "/basic/empty.asis", status: http.StatusInternalServerError, code: "MALFORMED_DOCUMENT"},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			res, err := http.Get(srv.URL + test.path)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, test.status, res.StatusCode)

			var body apiErrorBody
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, test.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}

	// the server keeps serving after errors
	res, err := http.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	items, err := deps.Svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestServeH2C(t *testing.T) {
	cfg := config.Default()
	cfg.H2C = true
	srv, _ := newTestServer(t, cfg)

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	defer client.CloseIdleConnections()
	res, err := client.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProtoMajor)
	assert.Equal(t, "<html>test page</html>", string(body))
	assert.Equal(t, "text/html", res.Header.Get("Content-Type"))
}

func TestAdminRoutes(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	res, err := http.Get(srv.URL + "/_asis/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))

	res, err = http.Get(srv.URL + "/_asis/version")
	require.NoError(t, err)
	var version map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&version))
	res.Body.Close()
	assert.Equal(t, "asis-server", version["name"])

	res, err = http.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	res.Body.Close()

	res, err = http.Get(srv.URL + "/_asis/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), `asis_documents_served_total{status="200"} 1`)

	res, err = http.Get(srv.URL + "/_asis/nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestServedHistory(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	for _, p := range []string{"/basic/basic.asis", "/encoding/gzip.asis", "/missing"} {
		res, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		res.Body.Close()
	}

	res, err := http.Get(srv.URL + "/_asis/served?limit=2")
	require.NoError(t, err)
	var out struct {
		Items []struct {
			Path        string `json:"path"`
			Status      int    `json:"status"`
			Compression string `json:"compression"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	res.Body.Close()
	require.Len(t, out.Items, 2)
	assert.Equal(t, "/missing", out.Items[0].Path)
	assert.Equal(t, http.StatusNotFound, out.Items[0].Status)
	assert.Equal(t, "gzip", out.Items[1].Compression)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/_asis/served", nil)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, err = http.Get(srv.URL + "/_asis/served?limit=x")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSettings(t *testing.T) {
	srv, deps := newTestServer(t, config.Default())

	res, err := http.Post(srv.URL+"/_asis/settings", "application/json",
		strings.NewReader(`{"responseDelay":{"enabled":true,"value":"40"}}`))
	require.NoError(t, err)
	var got settingsDTO
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	res.Body.Close()
	assert.True(t, got.ResponseDelay.Enabled)
	assert.Equal(t, "40", got.ResponseDelay.Value)
	assert.Equal(t, "40", deps.Delay.String())

	start := time.Now()
	res, err = http.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	res.Body.Close()
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	res, err = http.Post(srv.URL+"/_asis/settings", "application/json",
		strings.NewReader(`{"responseDelay":{"enabled":true,"value":"soon"}}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Post(srv.URL+"/_asis/settings", "application/json",
		strings.NewReader(`{"responseDelay":{"enabled":false}}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "", deps.Delay.String())
}

func TestMonitorWebsocket(t *testing.T) {
	srv, deps := newTestServer(t, config.Default())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_asis/monitor/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()
	require.Eventually(t, func() bool { return deps.Monitor.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := http.Get(srv.URL + "/basic/basic.asis")
	require.NoError(t, err)
	res.Body.Close()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev MonitorEvent
	require.NoError(t, c.ReadJSON(&ev))
	assert.Equal(t, "document_served", ev.Type)
	assert.Equal(t, "/basic/basic.asis", ev.Path)
	assert.Equal(t, http.StatusOK, ev.Status)
	assert.NotEmpty(t, ev.ID)
}

func TestMonitorSubscribe(t *testing.T) {
	srv, deps := newTestServer(t, config.Default())
	ch := deps.Monitor.Subscribe()
	defer deps.Monitor.Unsubscribe(ch)

	res, err := http.Get(srv.URL + "/nothing/here")
	require.NoError(t, err)
	res.Body.Close()

	select {
	case ev := <-ch:
		assert.Equal(t, "document_failed", ev.Type)
		assert.Equal(t, http.StatusNotFound, ev.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no monitor event")
	}
}

func TestServedHAR(t *testing.T) {
	srv, _ := newTestServer(t, config.Default())

	for _, p := range []string{"/basic/basic.asis", "/missing"} {
		res, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		res.Body.Close()
	}

	res, err := http.Get(srv.URL + "/_asis/served.har")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "asis_served.har")

	var out struct {
		Log struct {
			Version string `json:"version"`
			Entries []struct {
				Request struct {
					Method string `json:"method"`
					URL    string `json:"url"`
				} `json:"request"`
				Response struct {
					Status   int `json:"status"`
					BodySize int `json:"bodySize"`
				} `json:"response"`
				Comment string `json:"comment"`
			} `json:"entries"`
		} `json:"log"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "1.2", out.Log.Version)
	require.Len(t, out.Log.Entries, 2)

	first := out.Log.Entries[0]
	assert.Equal(t, http.MethodGet, first.Request.Method)
	assert.Equal(t, srv.URL+"/basic/basic.asis", first.Request.URL)
	assert.Equal(t, http.StatusOK, first.Response.Status)
	assert.Equal(t, len("<html>test page</html>"), first.Response.BodySize)

	second := out.Log.Entries[1]
	assert.Equal(t, http.StatusNotFound, second.Response.Status)
	assert.NotEmpty(t, second.Comment)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/_asis/served.har", nil)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res2.StatusCode)
}
