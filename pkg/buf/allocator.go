package buf

import "sync"

// Predefined buffer pool sizes. SizeChunk matches the capture
// protocol's fixed 1024-byte read chunk (spec.md §6); the larger tiers
// serve any larger size passed to NewFromPool.
const (
	SizeChunk = 1 << 10 // 1 KB, one capture-protocol chunk
	Size4K    = 1 << 12
	Size16K   = 1 << 14
	Size64K   = 1 << 16
	Size256K  = 1 << 18
	Size1M    = 1 << 20
)

var (
	poolChunk = sync.Pool{New: func() any { return make([]byte, SizeChunk) }}
	pool4K    = sync.Pool{New: func() any { return make([]byte, Size4K) }}
	pool16K   = sync.Pool{New: func() any { return make([]byte, Size16K) }}
	pool64K   = sync.Pool{New: func() any { return make([]byte, Size64K) }}
	pool256K  = sync.Pool{New: func() any { return make([]byte, Size256K) }}
	pool1M    = sync.Pool{New: func() any { return make([]byte, Size1M) }}
)

// alloc returns a buffer from the smallest pool that fits size. Sizes
// above the largest tier are allocated directly.
func alloc(size int) []byte {
	switch {
	case size <= SizeChunk:
		return poolChunk.Get().([]byte)[:size]
	case size <= Size4K:
		return pool4K.Get().([]byte)[:size]
	case size <= Size16K:
		return pool16K.Get().([]byte)[:size]
	case size <= Size64K:
		return pool64K.Get().([]byte)[:size]
	case size <= Size256K:
		return pool256K.Get().([]byte)[:size]
	case size <= Size1M:
		return pool1M.Get().([]byte)[:size]
	default:
		return make([]byte, size)
	}
}

// free returns buf to the pool matching its capacity, if any.
func free(buf []byte) {
	if buf == nil {
		return
	}
	switch cap(buf) {
	case SizeChunk:
		poolChunk.Put(buf[:cap(buf)])
	case Size4K:
		pool4K.Put(buf[:cap(buf)])
	case Size16K:
		pool16K.Put(buf[:cap(buf)])
	case Size64K:
		pool64K.Put(buf[:cap(buf)])
	case Size256K:
		pool256K.Put(buf[:cap(buf)])
	case Size1M:
		pool1M.Put(buf[:cap(buf)])
	default:
		// not pool-backed, let GC reclaim it
	}
}
