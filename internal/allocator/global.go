package allocator

import (
	"sync"
	"unsafe"
)

var (
	globalMu   sync.Mutex
	globalHeap *Heap
)

// Init creates the package-level Heap used by Acquire/Release/Resize/
// ZeroedAcquire/CheckHeap, replacing any previous one. A convenience
// surface for callers that want a single shared heap instead of
// threading a *Heap through their own code.
func Init(ext Extender, opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	h, err := New(ext, opts...)
	if err != nil {
		return err
	}

	globalHeap = h

	return nil
}

func ensureGlobal() *Heap {
	if globalHeap == nil {
		h, err := New(nil)
		if err != nil {
			panic(err)
		}

		globalHeap = h
	}

	return globalHeap
}

// Acquire delegates to the package-level Heap, creating one with
// default settings on first use if Init was never called.
func Acquire(n uintptr) unsafe.Pointer {
	globalMu.Lock()
	defer globalMu.Unlock()

	return ensureGlobal().Acquire(n)
}

// Release delegates to the package-level Heap.
func Release(p unsafe.Pointer) {
	globalMu.Lock()
	defer globalMu.Unlock()

	ensureGlobal().Release(p)
}

// Resize delegates to the package-level Heap.
func Resize(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	globalMu.Lock()
	defer globalMu.Unlock()

	return ensureGlobal().Resize(p, n)
}

// ZeroedAcquire delegates to the package-level Heap.
func ZeroedAcquire(count, size uintptr) unsafe.Pointer {
	globalMu.Lock()
	defer globalMu.Unlock()

	return ensureGlobal().ZeroedAcquire(count, size)
}

// CheckHeap delegates to the package-level Heap.
func CheckHeap(line int) bool {
	globalMu.Lock()
	defer globalMu.Unlock()

	return ensureGlobal().CheckHeap(line)
}
