package allocator

import (
	"fmt"
	"log"
	"unsafe"
)

// Config configures a Heap via the functional-options pattern below.
type Config struct {
	// ChunkSize is the minimum number of bytes requested from the
	// Extender on a placement miss.
	ChunkSize uintptr

	// MaxArena bounds the default SliceExtender's reserved capacity
	// when New is called without an explicit Extender.
	MaxArena uintptr

	// EnableDebug gates diagnostic logging in extend and in CheckHeap's
	// violation reports.
	EnableDebug bool
}

// Option mutates a Config during construction.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ChunkSize:   4096,
		MaxArena:    64 * 1024 * 1024,
		EnableDebug: false,
	}
}

// WithChunkSize overrides the arena-extension granularity.
func WithChunkSize(n uintptr) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithMaxArena overrides the default SliceExtender's reserved capacity.
func WithMaxArena(n uintptr) Option {
	return func(c *Config) { c.MaxArena = n }
}

// WithDebug toggles CheckHeap's diagnostic logging.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.EnableDebug = enabled }
}

// Heap is a segregated-fit allocator over a single Extender-backed
// arena. A Heap is not safe for concurrent use: it is strictly
// single-threaded and non-reentrant, and callers needing concurrent
// access must serialize their own calls.
type Heap struct {
	ext     Extender
	cfg     *Config
	classes [numClasses]freeList

	heapStart   uintptr
	epilogue    uintptr
	initialized bool
}

// New constructs a Heap over ext. If ext is nil, a SliceExtender
// reserving cfg.MaxArena bytes is created automatically.
func New(ext Extender, opts ...Option) (*Heap, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if ext == nil {
		se, err := NewSliceExtender(cfg.MaxArena)
		if err != nil {
			return nil, fmt.Errorf("allocator: failed to create default extender: %w", err)
		}

		ext = se
	}

	h := &Heap{ext: ext, cfg: cfg}
	for i := range h.classes {
		h.classes[i] = newFreeList()
	}

	return h, nil
}

// ptrAt converts an in-arena address into an unsafe.Pointer suitable
// for returning to the client.
func (h *Heap) ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(&h.ext.At(addr, 1)[0])
}

// addrOf recovers the in-arena address of a previously-returned payload
// pointer.
func addrOf(p unsafe.Pointer) uintptr { return uintptr(p) }

// initHeap lays down the prologue footer and epilogue header sentinels
// and extends the arena once by ChunkSize bytes to produce the initial
// free block.
func (h *Heap) initHeap() bool {
	base, err := h.ext.Extend(2 * wordSize)
	if err != nil {
		return false
	}

	prologue := base
	epilogue := base + wordSize

	h.writeTagAt(prologue, packTag(0, true, false, false))
	h.writeTagAt(epilogue, packTag(0, true, true, false))

	h.heapStart = epilogue
	h.epilogue = epilogue

	return h.extend(h.cfg.ChunkSize)
}

// extend grows the arena by n bytes (rounded to a 16-byte multiple),
// reusing the old epilogue word as the head of the new free block,
// coalescing it with whatever free block preceded it, and writing a
// fresh epilogue at the new top.
//
// The new block's total size is exactly n, not n+wordSize: it starts
// one word before the address the Extender hands back, reusing the old
// epilogue's word as its own header (which is why the Extender is only
// ever asked for n bytes even though the block plus its trailing
// epilogue span n+wordSize bytes from that start address) — the old
// epilogue's word supplies the missing wordSize. This keeps every
// block size a 16-byte multiple as long as n is, matching
// original_source/code/mm.c's extend_heap (size stays the caller's
// rounded request; the new block is written starting one word before
// the sbrk return address for exactly this reason).
func (h *Heap) extend(n uintptr) bool {
	n = roundUp(n, 16)

	oldEpilogue := h.epilogue
	prevAllocated := h.header(oldEpilogue).prevAllocated()

	if _, err := h.ext.Extend(n); err != nil {
		h.debugf("extend(%d) failed: %v", n, err)
		return false
	}

	h.debugf("extended arena by %d bytes at %#x", n, oldEpilogue)

	block := oldEpilogue
	h.writeBlock(block, n, false, prevAllocated, false)

	// The new epilogue must be in place before coalesce runs: coalesce
	// reads the tag at block's successor to decide whether it is a free
	// neighbor, and that address would otherwise be unwritten arena
	// memory beyond the high-water mark established so far. Writing it
	// first means the only possible merge partner is the (already-
	// existing) block preceding the old epilogue, exactly as intended —
	// the new block can never coalesce "forward" into the epilogue
	// itself.
	newEpilogue := block + n
	h.writeBlock(newEpilogue, 0, true, false, false)
	h.epilogue = newEpilogue

	merged := h.coalesce(block)
	mergedSize := h.header(merged).size()
	h.pushFront(classOf(mergedSize), merged)

	return true
}

// Acquire returns a 16-byte-aligned pointer to a payload of at least n
// bytes, or nil for n == 0 or on arena-extension failure. Requests of
// 8 bytes or fewer are routed through the mini-block cluster
// sub-allocator.
func (h *Heap) Acquire(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}

	if !h.initialized {
		if !h.initHeap() {
			return nil
		}

		h.initialized = true
	}

	if n <= 8 {
		p := h.acquireMini()
		if p == nilAddr {
			return nil
		}

		return h.ptrAt(p)
	}

	asize := maxUintptr(roundUp(n+wordSize, 16), minBlockSize)

	b, ok := h.acquireRawBlock(asize)
	if !ok {
		return nil
	}

	h.split(b, h.header(b).size(), asize)

	return h.ptrAt(payloadAddr(b))
}

// Release returns the payload at p, previously returned by Acquire, to
// the allocator. Releasing nil is a no-op; releasing a pointer not
// currently outstanding from this Heap is undefined behavior.
func (h *Heap) Release(p unsafe.Pointer) {
	if p == nil {
		return
	}

	addr := addrOf(p)
	b := blockFromPayload(addr)

	t := h.header(b)
	if t.cluster() {
		h.releaseMini(addr)
		return
	}

	prevAllocated := t.prevAllocated()
	h.writeBlock(b, t.size(), false, prevAllocated, false)
	h.setPrevAllocated(h.nextBlock(b), false)

	merged := h.coalesce(b)
	h.pushFront(classOf(h.header(merged).size()), merged)
}

// Resize changes the size of the allocation at p to n bytes, returning
// a (possibly different) payload pointer, or nil on extension failure
// (leaving the original allocation untouched). It is a thin
// acquire/copy/release wrapper rather than an in-place grow.
func (h *Heap) Resize(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if p == nil {
		return h.Acquire(n)
	}

	if n == 0 {
		h.Release(p)
		return nil
	}

	oldSize := h.payloadSize(p)

	newPtr := h.Acquire(n)
	if newPtr == nil {
		return nil
	}

	copySize := oldSize
	if n < copySize {
		copySize = n
	}

	copyBytes(newPtr, p, copySize)
	h.Release(p)

	return newPtr
}

// ZeroedAcquire allocates space for count elements of size bytes each,
// zero-filled, returning nil without allocating on multiplication
// overflow or on extension failure.
func (h *Heap) ZeroedAcquire(count, size uintptr) unsafe.Pointer {
	if count == 0 || size == 0 {
		return nil
	}

	total := count * size
	if total/count != size {
		return nil
	}

	p := h.Acquire(total)
	if p == nil {
		return nil
	}

	zeroBytes(p, total)

	return p
}

// payloadSize returns the usable payload size of the block backing p:
// the outer block size minus the header (and, for non-cluster blocks,
// nothing else, since allocated blocks carry no footer), or the fixed
// 8-byte mini-block payload size for a cluster slot.
func (h *Heap) payloadSize(p unsafe.Pointer) uintptr {
	addr := addrOf(p)
	b := blockFromPayload(addr)

	t := h.header(b)
	if t.cluster() {
		return 8
	}

	return t.size() - wordSize
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	d := (*[1 << 30]byte)(dst)[:n:n]
	s := (*[1 << 30]byte)(src)[:n:n]
	copy(d, s)
}

func zeroBytes(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	b := (*[1 << 30]byte)(p)[:n:n]
	for i := range b {
		b[i] = 0
	}
}

// debugf logs a diagnostic when debug mode is enabled.
func (h *Heap) debugf(format string, args ...any) {
	if h.cfg.EnableDebug {
		log.Printf("allocator: "+format, args...)
	}
}
