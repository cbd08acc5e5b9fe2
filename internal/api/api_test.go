package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/framestore"
	"github.com/Egham-7/cloudlines/internal/services/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	running bool
	stats   models.FrameStats
	sinks   []models.SinkStats
}

func (p *fakeProducer) Running() bool                 { return p.running }
func (p *fakeProducer) Stats() models.FrameStats      { return p.stats }
func (p *fakeProducer) SinkStats() []models.SinkStats { return p.sinks }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestApp(store *framestore.Store, registry *stream.Registry, producer ProducerStatus, mirror Pinger) *fiber.App {
	app := fiber.New()
	svc := stream.NewService(store, registry, models.StreamConfig{Boundary: "testframe", Interval: 5 * time.Millisecond})

	app.Get("/api/stream", NewStreamHandler(svc).Stream)
	app.Get("/api/latest", NewSnapshotHandler(store).Latest)
	app.Get("/api/stats", NewStatsHandler(producer, registry).Stats)
	app.Get("/health", NewHealthHandler(producer, registry, mirror).HealthCheck)
	return app
}

func TestLatestBeforeFirstFrame(t *testing.T) {
	app := newTestApp(framestore.New(), stream.NewRegistry(), &fakeProducer{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "private, no-cache, no-store, max-age=0", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
}

func TestLatestReturnsExactBytes(t *testing.T) {
	store := framestore.New()
	app := newTestApp(store, stream.NewRegistry(), &fakeProducer{}, nil)

	require.NoError(t, store.Publish(&models.Frame{Data: []byte("first")}))
	require.NoError(t, store.Publish(&models.Frame{Data: []byte("second-frame")}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/latest", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("second-frame"), body)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "private, no-cache, no-store, max-age=0", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "2", resp.Header.Get(headerFrameSeq))
}

func TestHealthCheck(t *testing.T) {
	registry := stream.NewRegistry()
	producer := &fakeProducer{running: true}
	app := newTestApp(framestore.New(), registry, producer, fakePinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	producer.stats.Published = 1
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	app = newTestApp(framestore.New(), registry, producer, fakePinger{err: errors.New("down")})
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"degraded"`)

	app = newTestApp(framestore.New(), registry, producer, fakePinger{})
	producer.sinks = []models.SinkStats{{Name: "redis", State: "Open"}}
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"degraded"`)
	assert.Contains(t, string(body), `"sinks":"tripped"`)

	producer.running = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestStats(t *testing.T) {
	registry := stream.NewRegistry()
	svc := stream.NewService(framestore.New(), registry, models.StreamConfig{Interval: time.Second})
	svc.Attach("10.1.1.1", "viewer")

	producer := &fakeProducer{
		running: true,
		stats:   models.FrameStats{Published: 7, LastError: "source http failed to capture", LastErrorCode: "SOURCE_CAPTURE_FAILED"},
		sinks:   []models.SinkStats{{Name: "redis", State: "Closed", Attempts: 7, Succeeded: 7}},
	}
	app := newTestApp(framestore.New(), registry, producer, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"published":7`)
	assert.Contains(t, string(body), `"active":1`)
	assert.Contains(t, string(body), `"remote_addr":"10.1.1.1"`)
	assert.Contains(t, string(body), `"last_error_code":"SOURCE_CAPTURE_FAILED"`)
	assert.Contains(t, string(body), `"name":"redis"`)
	assert.Contains(t, string(body), `"succeeded":7`)
}

func TestStreamEndToEnd(t *testing.T) {
	store := framestore.New()
	registry := stream.NewRegistry()
	app := newTestApp(store, registry, &fakeProducer{running: true}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	payload := make([]byte, 500)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, store.Publish(&models.Frame{Data: payload}))

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/stream")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, no-cache, no-store, max-age=0", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mediaType)
	assert.Equal(t, "testframe", params["boundary"])

	reader := multipart.NewReader(resp.Body, params["boundary"])
	for range 3 {
		part, err := reader.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
		assert.Equal(t, strconv.Itoa(len(payload)), part.Header.Get("Content-Length"))

		data, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	}
	assert.Equal(t, 1, registry.Len())

	require.NoError(t, resp.Body.Close())
	require.Eventually(t, func() bool { return registry.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStreamViewersLeavingBeforeFirstFrame(t *testing.T) {
	registry := stream.NewRegistry()
	app := newTestApp(framestore.New(), registry, &fakeProducer{running: true}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	const viewers = 3
	conns := make([]net.Conn, 0, viewers)
	for range viewers {
		conn, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		_, err = conn.Write([]byte("GET /api/stream HTTP/1.1\r\nHost: cast.local\r\n\r\n"))
		require.NoError(t, err)
		conns = append(conns, conn)
	}

	require.Eventually(t, func() bool { return registry.Len() == viewers }, 5*time.Second, 10*time.Millisecond)

	for _, conn := range conns {
		require.NoError(t, conn.Close())
	}

	require.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
