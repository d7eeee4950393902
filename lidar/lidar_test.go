package lidar_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/lidar/fake"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/testutils/inject"
	"github.com/talaria-robotics/navigator/utils"
)

func TestMeasurements(t *testing.T) {
	m := lidar.NewMeasurement(-10, 3)
	test.That(t, m.AngleDeg, test.ShouldEqual, 350.0)

	scan := lidar.Measurements{{AngleDeg: 90, Distance: 2}, {AngleDeg: 10, Distance: 5}, {AngleDeg: 10, Distance: 1}}
	sorted := scan.Sorted()
	test.That(t, sorted, test.ShouldResemble, lidar.Measurements{{10, 1}, {10, 5}, {90, 2}})
	test.That(t, scan[0].AngleDeg, test.ShouldEqual, 90.0)
}

func TestScanBuffer(t *testing.T) {
	buf := lidar.NewScanBuffer()
	_, ok := buf.Latest()
	test.That(t, ok, test.ShouldBeFalse)

	scan := lidar.Measurements{{AngleDeg: 1, Distance: 2}}
	buf.Store(scan)
	scan[0].Distance = 100

	latest, ok := buf.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest, test.ShouldResemble, lidar.Measurements{{1, 2}})
	test.That(t, buf.Stores(), test.ShouldEqual, int64(1))

	buf.Store(nil)
	latest, ok = buf.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest, test.ShouldBeEmpty)
}

func TestPollerWithFake(t *testing.T) {
	mock := clock.NewMock()
	device := fake.NewLidar(fake.Config{
		Scans: []lidar.Measurements{
			{{AngleDeg: 0, Distance: 50}},
			{{AngleDeg: 0, Distance: 10}},
		},
		ScanPeriodMs: 100,
	}, mock)
	buf := lidar.NewScanBuffer()
	poller := lidar.NewPoller(device, buf, 0, mock, logging.NewTestLogger(t))
	poller.Start()
	poller.Start()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mock.Add(100 * time.Millisecond)
		test.That(tb, buf.Stores(), test.ShouldBeGreaterThanOrEqualTo, 2)
	})
	latest, ok := buf.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest, test.ShouldResemble, lidar.Measurements{{0, 10}})

	test.That(t, poller.Close(context.Background()), test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := device.Scan(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestPollerCountsFailures(t *testing.T) {
	mock := clock.NewMock()
	device := &inject.LidarDevice{
		ScanFunc: func(ctx context.Context) (lidar.Measurements, error) {
			return nil, errors.New("usb unplugged")
		},
		CloseFunc: func(ctx context.Context) error { return nil },
	}
	poller := lidar.NewPoller(device, lidar.NewScanBuffer(), 0, mock, logging.NewTestLogger(t))
	poller.Start()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mock.Add(time.Second)
		test.That(tb, poller.Failures(), test.ShouldBeGreaterThan, 0)
	})
	test.That(t, poller.Close(context.Background()), test.ShouldBeNil)
	_, ok := poller.Buffer().Latest()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRegisteredFake(t *testing.T) {
	dev, err := lidar.New(context.Background(), fake.Model, utils.AttributeMap{
		"scans": []interface{}{
			[]interface{}{map[string]interface{}{"angle": 45, "distance": 3}},
		},
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, ok := dev.(*fake.Lidar)
	test.That(t, ok, test.ShouldBeTrue)

	_, err = lidar.New(context.Background(), "rplidar-x", nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
