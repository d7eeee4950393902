package lidar

import (
	"go.uber.org/atomic"
)

// ScanBuffer holds the latest scan. One goroutine stores whole snapshots and readers load them;
// a stored scan is never modified afterwards.
type ScanBuffer struct {
	latest atomic.Pointer[Measurements]
	stores atomic.Int64
}

var _ ScanSource = &ScanBuffer{}

// NewScanBuffer returns an empty buffer.
func NewScanBuffer() *ScanBuffer {
	return &ScanBuffer{}
}

// Store replaces the latest scan with a copy of scan.
func (b *ScanBuffer) Store(scan Measurements) {
	snapshot := append(Measurements(nil), scan...)
	b.latest.Store(&snapshot)
	b.stores.Inc()
}

// Latest returns the most recent scan.
func (b *ScanBuffer) Latest() (Measurements, bool) {
	p := b.latest.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Stores is how many scans have been stored.
func (b *ScanBuffer) Stores() int64 {
	return b.stores.Load()
}
