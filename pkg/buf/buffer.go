// Package buf provides reference-counted, pooled byte buffers for the
// capture server's per-connection chunk reads.
//
// A capture connection reads its protocol in fixed 1024-byte chunks
// (spec.md §6) that get written to the session's capture file;
// pooling avoids a fresh heap allocation per chunk under many
// concurrent capture connections.
//
//	b := buf.NewFromPool(buf.SizeChunk)
//	defer b.Release()
//	n, err := conn.Read(b.Data())
//
// Buffers shared across goroutines (e.g. handed to a background
// flush) should Retain before the handoff and Release from both
// sides.
package buf

import "sync/atomic"

// Buffer is a reference-counted byte slice with a pluggable release
// finalizer.
type Buffer struct {
	data      []byte
	refCount  *atomic.Int32
	finalizer func([]byte)
}

// New wraps data without pool-backed recycling; the GC reclaims it
// once unreferenced.
func New(data []byte) *Buffer {
	return NewWithFinalizer(data, nil)
}

// NewFromPool returns a buffer of size bytes drawn from the tiered
// pool; Release returns it for reuse.
func NewFromPool(size int) *Buffer {
	return NewWithFinalizer(alloc(size), free)
}

// NewWithFinalizer wraps data with a custom release callback.
func NewWithFinalizer(data []byte, finalizer func([]byte)) *Buffer {
	refCount := &atomic.Int32{}
	refCount.Store(1)
	return &Buffer{data: data, refCount: refCount, finalizer: finalizer}
}

// Data returns the underlying slice.
func (b *Buffer) Data() []byte { return b.data }

// Len returns the length of the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the capacity of the underlying slice.
func (b *Buffer) Cap() int { return cap(b.data) }

// Retain increments the reference count.
func (b *Buffer) Retain() { b.refCount.Add(1) }

// Release decrements the reference count and invokes the finalizer
// once it reaches zero.
func (b *Buffer) Release() {
	if b.refCount.Add(-1) == 0 && b.finalizer != nil {
		b.finalizer(b.data)
	}
}
