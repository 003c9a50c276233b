package sitemap

import (
	"runtime"
	"runtime/debug"
)

// DefaultHeapLimit is the heap size above which HeapGuard forces a collection.
const DefaultHeapLimit = 100 << 20

// Relief runs after every processed entity and reports whether it released
// memory.
type Relief interface {
	Relieve() bool
}

// HeapGuard forces a collection and returns freed memory to the OS once the
// live heap exceeds Limit. Reading memory statistics stops the world, so the
// heap is only sampled every Every calls.
type HeapGuard struct {
	Limit uint64
	Every int

	calls    int
	readHeap func() uint64
	free     func()
}

func NewHeapGuard(limit uint64, every int) *HeapGuard {
	if limit == 0 {
		limit = DefaultHeapLimit
	}
	if every < 1 {
		every = 1
	}
	return &HeapGuard{
		Limit:    limit,
		Every:    every,
		readHeap: heapAlloc,
		free:     debug.FreeOSMemory,
	}
}

func (g *HeapGuard) Relieve() bool {
	g.calls++
	if g.calls%g.Every != 0 {
		return false
	}
	if g.readHeap() <= g.Limit {
		return false
	}
	g.free()
	return true
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

type noRelief struct{}

func (noRelief) Relieve() bool { return false }
