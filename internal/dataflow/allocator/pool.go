// Package allocator implements the bounded, blocking-acquire buffer pool
// that backs output port payload allocation.
package allocator

import "sync"

// Handle is a pooled buffer returned by Pool.Alloc. Release must be called
// exactly once, normally by the packet payload wrapping it.
type Handle struct {
	Bytes   []byte
	pool    *Pool
}

// Release returns the handle's buffer to its pool, waking one blocked
// acquirer if the pool was exhausted.
func (h *Handle) Release() {
	if h == nil || h.pool == nil {
		return
	}
	h.pool.put(h.Bytes[:cap(h.Bytes)])
}

// Pool is a bounded pool of reusable byte buffers. When exhausted,
// Alloc blocks the calling goroutine until a buffer is returned or the
// pool is unblocked, per spec §4.2.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	free     [][]byte
	baseSize int
	maxSize  int
	outstanding int
	capacity    int
	unblocked   bool
}

// NewPool creates a pool with room for `capacity` concurrently outstanding
// buffers, each allocated with capacity maxSize and the length its Alloc
// call asks for (a maxSize below baseSize, including 0, is raised to
// baseSize).
func NewPool(capacity, baseSize, maxSize int) *Pool {
	if maxSize < baseSize {
		maxSize = baseSize
	}
	p := &Pool{
		free:     make([][]byte, 0, capacity),
		baseSize: baseSize,
		maxSize:  maxSize,
		capacity: capacity,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Alloc returns a buffer of at least hintSize bytes. If the pool is
// exhausted it blocks until a handle is returned or Unblock is called, in
// which case it returns nil.
func (p *Pool) Alloc(hintSize int) *Handle {
	if hintSize > p.maxSize {
		// Oversized request: allocate outside the pool; it is not
		// recyclable back into the bounded set.
		return &Handle{Bytes: make([]byte, hintSize)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.unblocked {
			return nil
		}
		if len(p.free) > 0 {
			buf := p.free[len(p.free)-1]
			p.free = p.free[:len(p.free)-1]
			p.outstanding++
			return &Handle{Bytes: buf[:hintSize], pool: p}
		}
		if p.outstanding < p.capacity {
			p.outstanding++
			buf := make([]byte, hintSize, p.maxSize)
			return &Handle{Bytes: buf, pool: p}
		}
		p.cond.Wait()
	}
}

// put returns a buffer to the free list and wakes one blocked Alloc call.
func (p *Pool) put(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	p.free = append(p.free, buf)
	p.cond.Signal()
}

// Unblock wakes every goroutine currently blocked in Alloc, making them
// return nil. Used at teardown so pending module goroutines can observe
// pipeline shutdown instead of blocking forever.
func (p *Pool) Unblock() {
	p.mu.Lock()
	p.unblocked = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Reset clears the unblocked flag, allowing the pool to serve allocations
// again. Used by tests that reuse a pool across scenarios.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unblocked = false
}
