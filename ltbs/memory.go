package ltbs

import "sync"

// globalMemory is the process-wide resident-byte counter shared by every
// Store in the process (spec §4.3/§9: "acceptable systems state, not a
// design smell"). Grounded on pmtiles/server.go's totalSize bookkeeping,
// generalized from one cache to a process-wide total across instances.
// Guarded by its own mutex (lock #5 in the §5 ordering), held only for the
// counter update itself; no other lock is acquired while it is held.
var (
	globalMemoryMu sync.Mutex
	globalMemory   int64
)

// TotalProcessMemory returns the sum of resident tile bytes across every
// open Store in this process.
func TotalProcessMemory() int64 {
	globalMemoryMu.Lock()
	defer globalMemoryMu.Unlock()
	return globalMemory
}

func globalCharge(n int64) {
	globalMemoryMu.Lock()
	globalMemory += n
	globalMemoryMu.Unlock()
}

func globalDischarge(n int64) {
	globalMemoryMu.Lock()
	globalMemory -= n
	globalMemoryMu.Unlock()
}
