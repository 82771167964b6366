package allocator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocReusesReleasedBuffer(t *testing.T) {
	p := NewPool(1, 128, 128)
	h1 := p.Alloc(64)
	require.NotNil(t, h1)

	released := make(chan struct{})
	go func() {
		h1.Release()
		close(released)
	}()
	<-released

	h2 := p.Alloc(64)
	require.NotNil(t, h2)
	assert.Len(t, h2.Bytes, 64)
}

func TestPoolAllocBlocksUntilCapacityFrees(t *testing.T) {
	p := NewPool(1, 64, 64)
	h1 := p.Alloc(64)
	require.NotNil(t, h1)

	var wg sync.WaitGroup
	wg.Add(1)
	var h2 *Handle
	go func() {
		defer wg.Done()
		h2 = p.Alloc(64)
	}()

	time.Sleep(20 * time.Millisecond) // give the goroutine a chance to block
	h1.Release()
	wg.Wait()
	assert.NotNil(t, h2)
}

func TestPoolUnblockReturnsNil(t *testing.T) {
	p := NewPool(1, 64, 64)
	h1 := p.Alloc(64)
	require.NotNil(t, h1)

	var wg sync.WaitGroup
	wg.Add(1)
	var h2 *Handle
	var gotCall bool
	go func() {
		defer wg.Done()
		h2 = p.Alloc(64)
		gotCall = true
	}()

	time.Sleep(20 * time.Millisecond)
	p.Unblock()
	wg.Wait()
	assert.True(t, gotCall)
	assert.Nil(t, h2)
}

func TestPoolOversizeBypassesBound(t *testing.T) {
	p := NewPool(1, 64, 64)
	h := p.Alloc(4096)
	require.NotNil(t, h)
	assert.Len(t, h.Bytes, 4096)
}
