package lidar

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.viam.com/utils"

	"github.com/talaria-robotics/navigator/logging"
)

const errorBackoff = 100 * time.Millisecond

// Poller copies scans from a Device into a ScanBuffer in the background.
type Poller struct {
	device   Device
	buffer   *ScanBuffer
	interval time.Duration
	clk      clock.Clock
	logger   logging.Logger

	mu                      sync.Mutex
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
	failures                atomic.Int64
}

// NewPoller returns a poller that waits interval between scans. Zero scans back to back.
func NewPoller(device Device, buffer *ScanBuffer, interval time.Duration, clk clock.Clock, logger logging.Logger) *Poller {
	return &Poller{
		device:   device,
		buffer:   buffer,
		interval: interval,
		clk:      clk,
		logger:   logger,
	}
}

// Buffer is where scans are stored.
func (p *Poller) Buffer() *ScanBuffer {
	return p.buffer
}

// Failures counts scans the device failed to produce.
func (p *Poller) Failures() int64 {
	return p.failures.Load()
}

// Start starts polling. Calling Start again while running does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			if cancelCtx.Err() != nil {
				return
			}
			wait := p.interval
			scan, err := p.device.Scan(cancelCtx)
			if err != nil {
				if cancelCtx.Err() != nil {
					return
				}
				p.failures.Inc()
				p.logger.Warnw("lidar scan failed", "error", err)
				if wait < errorBackoff {
					wait = errorBackoff
				}
			} else {
				p.buffer.Store(scan)
			}
			if wait <= 0 {
				continue
			}
			select {
			case <-cancelCtx.Done():
				return
			case <-p.clk.After(wait):
			}
		}
	}, p.activeBackgroundWorkers.Done)
}

// Close stops polling and closes the device.
func (p *Poller) Close(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		p.activeBackgroundWorkers.Wait()
	}
	return p.device.Close(ctx)
}
