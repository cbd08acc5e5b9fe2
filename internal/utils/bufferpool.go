package utils

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// BufferPool recycles the scratch buffers used for JPEG encoding and multipart
// part assembly. bytebufferpool calibrates its size classes from usage, which
// suits frames that stay roughly the same size.
type BufferPool struct {
	pool *bytebufferpool.Pool
}

var (
	globalPool     *BufferPool
	globalPoolOnce sync.Once
)

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: &bytebufferpool.Pool{},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() *bytebufferpool.ByteBuffer {
	return bp.pool.Get()
}

// Put returns a buffer to the pool. The buffer must not be used afterwards.
func (bp *BufferPool) Put(buf *bytebufferpool.ByteBuffer) {
	bp.pool.Put(buf)
}

// Global returns the process-wide pool
func Global() *BufferPool {
	globalPoolOnce.Do(func() {
		globalPool = NewBufferPool()
	})
	return globalPool
}

// Get takes a buffer from the global pool
func Get() *bytebufferpool.ByteBuffer {
	return Global().Get()
}

// Put returns a buffer to the global pool
func Put(buf *bytebufferpool.ByteBuffer) {
	Global().Put(buf)
}
