package writers

import (
	"bufio"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream/contracts"
	"github.com/Egham-7/cloudlines/internal/utils"

	"github.com/valyala/fasthttp"
)

const crlf = "\r\n"

// MultipartContentType is the response Content-Type for a multipart-replace stream
func MultipartContentType(boundary string) string {
	return `multipart/x-mixed-replace; boundary="` + boundary + `"`
}

// MultipartWriter writes frames as multipart/x-mixed-replace parts:
//
//	--<boundary>\r\n
//	Content-Type: <type>\r\n
//	Content-Length: <n>\r\n
//	\r\n
//	<n bytes>\r\n
type MultipartWriter struct {
	writer       *bufio.Writer
	connState    contracts.ConnectionState
	boundary     string
	subscriberID string
	totalBytes   int64
}

// NewMultipartWriter creates a new multipart part writer
func NewMultipartWriter(writer *bufio.Writer, connState contracts.ConnectionState, boundary, subscriberID string) *MultipartWriter {
	return &MultipartWriter{
		writer:       writer,
		connState:    connState,
		boundary:     boundary,
		subscriberID: subscriberID,
	}
}

// WriteFrame writes one part and flushes it to the connection
func (w *MultipartWriter) WriteFrame(frame *models.Frame) error {
	if frame == nil || len(frame.Data) == 0 {
		return nil
	}

	select {
	case <-w.connState.Closed():
		return contracts.NewClientDisconnectError(w.subscriberID)
	default:
	}
	if !w.connState.IsConnected() {
		return contracts.NewServerShutdownError(w.subscriberID)
	}

	buf := utils.Get()
	defer utils.Put(buf)

	contentType := frame.ContentType
	if contentType == "" {
		contentType = models.ContentTypeJPEG
	}

	buf.B = append(buf.B, "--"...)
	buf.B = append(buf.B, w.boundary...)
	buf.B = append(buf.B, crlf+"Content-Type: "...)
	buf.B = append(buf.B, contentType...)
	buf.B = append(buf.B, crlf+"Content-Length: "...)
	buf.B = strconv.AppendInt(buf.B, int64(len(frame.Data)), 10)
	buf.B = append(buf.B, crlf+crlf...)
	buf.B = append(buf.B, frame.Data...)
	buf.B = append(buf.B, crlf...)

	n, err := w.writer.Write(buf.B)
	if n > 0 {
		w.totalBytes += int64(n)
	}
	if err != nil {
		return w.wrap("write failed", err)
	}

	if err := w.writer.Flush(); err != nil {
		return w.wrap("flush failed", err)
	}

	return nil
}

// wrap classifies transport errors. Any write error on a stream means the
// viewer is gone, but only recognised ones are treated as expected.
func (w *MultipartWriter) wrap(message string, err error) error {
	if contracts.IsConnectionClosed(err) {
		return contracts.NewClientDisconnectError(w.subscriberID)
	}
	return contracts.NewInternalError(w.subscriberID, message, err)
}

// TotalBytes returns total bytes written
func (w *MultipartWriter) TotalBytes() int64 {
	return w.totalBytes
}

// FastHTTPConnectionState wraps FastHTTP context for connection state.
// fasthttp closes Done when the server shuts down. A vanished viewer is
// reported on Closed once WatchPeer sees its side of the socket end.
type FastHTTPConnectionState struct {
	ctx *fasthttp.RequestCtx

	closed    chan struct{}
	closeOnce sync.Once
}

// NewFastHTTPConnectionState creates connection state from FastHTTP context
func NewFastHTTPConnectionState(ctx *fasthttp.RequestCtx) *FastHTTPConnectionState {
	return &FastHTTPConnectionState{
		ctx:    ctx,
		closed: make(chan struct{}),
	}
}

// WatchPeer blocks reading conn until the viewer hangs up, then closes
// Closed. A stream client sends nothing after its request, so any data read
// is discarded and only EOF or an error ends the watch. Call it in its own
// goroutine; it returns once the server closes conn.
func (c *FastHTTPConnectionState) WatchPeer(conn net.Conn) {
	defer c.markClosed()
	if conn == nil {
		return
	}

	// The server's read timeout would otherwise end the watch on a healthy stream.
	_ = conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				_ = conn.SetReadDeadline(time.Time{})
				continue
			}
			return
		}
	}
}

func (c *FastHTTPConnectionState) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// IsConnected checks if client is still connected
func (c *FastHTTPConnectionState) IsConnected() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	case <-c.closed:
		return false
	default:
		return true
	}
}

// Done returns channel that closes when the server abandons the connection
func (c *FastHTTPConnectionState) Done() <-chan struct{} {
	if c.ctx == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.ctx.Done()
}

// Closed returns channel that closes when the viewer disconnected
func (c *FastHTTPConnectionState) Closed() <-chan struct{} {
	return c.closed
}
