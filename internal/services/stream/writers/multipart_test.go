package writers

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream/contracts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openConn struct {
	done chan struct{}
	gone chan struct{}
}

func (c openConn) IsConnected() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}
func (c openConn) Done() <-chan struct{}   { return c.done }
func (c openConn) Closed() <-chan struct{} { return c.gone }

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestMultipartContentType(t *testing.T) {
	assert.Equal(t, `multipart/x-mixed-replace; boundary="frame"`, MultipartContentType("frame"))
}

func TestWriteFrameFormatsPart(t *testing.T) {
	var out bytes.Buffer
	w := NewMultipartWriter(bufio.NewWriter(&out), openConn{done: make(chan struct{})}, "frame", "sub-1")

	require.NoError(t, w.WriteFrame(&models.Frame{Data: []byte("abc"), ContentType: "image/jpeg"}))

	want := "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: 3\r\n\r\nabc\r\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, int64(len(want)), w.TotalBytes())

	require.NoError(t, w.WriteFrame(nil))
	assert.Equal(t, want, out.String())
}

func TestWriteFrameDefaultsContentType(t *testing.T) {
	var out bytes.Buffer
	w := NewMultipartWriter(bufio.NewWriter(&out), openConn{done: make(chan struct{})}, "b", "sub-1")

	require.NoError(t, w.WriteFrame(&models.Frame{Data: []byte{1}}))
	assert.Contains(t, out.String(), "Content-Type: image/jpeg\r\n")
}

func TestWriteFrameAfterShutdown(t *testing.T) {
	done := make(chan struct{})
	close(done)
	var out bytes.Buffer
	w := NewMultipartWriter(bufio.NewWriter(&out), openConn{done: done}, "b", "sub-1")

	err := w.WriteFrame(&models.Frame{Data: []byte{1}})
	require.Error(t, err)
	assert.True(t, contracts.IsExpectedError(err))
	assert.Zero(t, out.Len())
}

func TestWriteFrameAfterViewerLeft(t *testing.T) {
	gone := make(chan struct{})
	close(gone)
	var out bytes.Buffer
	w := NewMultipartWriter(bufio.NewWriter(&out), openConn{done: make(chan struct{}), gone: gone}, "b", "sub-1")

	err := w.WriteFrame(&models.Frame{Data: []byte{1}})
	assert.True(t, contracts.IsClientDisconnect(err))
	assert.Zero(t, out.Len())
}

func TestWriteFrameClassifiesTransportErrors(t *testing.T) {
	conn := openConn{done: make(chan struct{})}
	frame := &models.Frame{Data: bytes.Repeat([]byte{1}, 8192)}

	w := NewMultipartWriter(bufio.NewWriterSize(failingWriter{errors.New("write: broken pipe")}, 16), conn, "b", "sub-1")
	err := w.WriteFrame(frame)
	assert.True(t, contracts.IsClientDisconnect(err))

	w = NewMultipartWriter(bufio.NewWriterSize(failingWriter{errors.New("disk on fire")}, 16), conn, "b", "sub-1")
	err = w.WriteFrame(frame)
	require.Error(t, err)
	assert.False(t, contracts.IsExpectedError(err))
}

func TestFastHTTPConnectionStateNil(t *testing.T) {
	c := NewFastHTTPConnectionState(nil)
	assert.False(t, c.IsConnected())
	select {
	case <-c.Done():
	default:
		t.Fatal("nil context must report done")
	}
}

func TestWatchPeerClosesOnHangUp(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	c := NewFastHTTPConnectionState(nil)
	go c.WatchPeer(server)

	// stray bytes from the viewer do not end the watch
	_, err := client.Write([]byte("x"))
	require.NoError(t, err)
	select {
	case <-c.Closed():
		t.Fatal("watch ended while the viewer was still there")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, client.Close())
	select {
	case <-c.Closed():
	case <-time.After(time.Second):
		t.Fatal("hang-up not reported")
	}
}

func TestWatchPeerNilConn(t *testing.T) {
	c := NewFastHTTPConnectionState(nil)
	c.WatchPeer(nil)

	select {
	case <-c.Closed():
	default:
		t.Fatal("nil connection must report closed")
	}
}
