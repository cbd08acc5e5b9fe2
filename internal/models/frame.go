package models

import "time"

const ContentTypeJPEG = "image/jpeg"

// Frame is one encoded image. Data must not be modified once the frame is published.
type Frame struct {
	Data        []byte
	Seq         uint64
	CapturedAt  time.Time
	ContentType string
}

// Len returns the encoded size in bytes
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// FrameStats is the producer view exposed on /api/stats and /health
type FrameStats struct {
	Published           uint64        `json:"published"`
	Failures            uint64        `json:"failures"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSeq             uint64        `json:"last_seq"`
	LastFrameBytes      int           `json:"last_frame_bytes"`
	LastFrameAt         time.Time     `json:"last_frame_at,omitzero"`
	LastCaptureTime     time.Duration `json:"last_capture_time_ns"`
	LastEncodeTime      time.Duration `json:"last_encode_time_ns"`
	LastError           string        `json:"last_error,omitzero"`
	LastErrorCode       string        `json:"last_error_code,omitzero"`
}

// SinkStats describes a frame sink and the circuit breaker guarding it
type SinkStats struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Attempts  int64  `json:"attempts"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`
	Skipped   int64  `json:"skipped"`
	Opens     int64  `json:"opens"`
	Closes    int64  `json:"closes"`
}

// SubscriberInfo describes one connected stream viewer
type SubscriberInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	UserAgent   string    `json:"user_agent,omitzero"`
	ConnectedAt time.Time `json:"connected_at"`
	State       string    `json:"state"`
	FramesSent  uint64    `json:"frames_sent"`
	BytesSent   uint64    `json:"bytes_sent"`
}
