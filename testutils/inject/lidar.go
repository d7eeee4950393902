package inject

import (
	"context"

	"github.com/talaria-robotics/navigator/lidar"
)

// LidarDevice is an injected lidar device.
type LidarDevice struct {
	lidar.Device
	ScanFunc  func(ctx context.Context) (lidar.Measurements, error)
	CloseFunc func(ctx context.Context) error
}

// Scan calls the injected Scan or the real version.
func (ld *LidarDevice) Scan(ctx context.Context) (lidar.Measurements, error) {
	if ld.ScanFunc == nil {
		return ld.Device.Scan(ctx)
	}
	return ld.ScanFunc(ctx)
}

// Close calls the injected Close or the real version.
func (ld *LidarDevice) Close(ctx context.Context) error {
	if ld.CloseFunc == nil {
		return ld.Device.Close(ctx)
	}
	return ld.CloseFunc(ctx)
}

// ScanSource is an injected scan source.
type ScanSource struct {
	lidar.ScanSource
	LatestFunc func() (lidar.Measurements, bool)
}

// Latest calls the injected Latest or the real version.
func (s *ScanSource) Latest() (lidar.Measurements, bool) {
	if s.LatestFunc == nil {
		return s.ScanSource.Latest()
	}
	return s.LatestFunc()
}
