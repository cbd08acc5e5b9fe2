package contracts

import "github.com/Egham-7/cloudlines/internal/models"

// FrameReader is the read side of the frame store
type FrameReader interface {
	Read() (*models.Frame, bool)
}

// FrameWriter frames and sends one image to a viewer
type FrameWriter interface {
	WriteFrame(frame *models.Frame) error
}

// ConnectionState tracks client connection status. Done closes when the
// server abandons the connection, Closed when the viewer went away.
type ConnectionState interface {
	IsConnected() bool
	Done() <-chan struct{}
	Closed() <-chan struct{}
}
