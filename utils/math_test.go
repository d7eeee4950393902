package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestModAngDeg(t *testing.T) {
	test.That(t, ModAngDeg(0), test.ShouldEqual, 0)
	test.That(t, ModAngDeg(360), test.ShouldEqual, 0)
	test.That(t, ModAngDeg(-90), test.ShouldEqual, 270)
	test.That(t, ModAngDeg(725), test.ShouldAlmostEqual, 5)
	test.That(t, ModAngDeg(-1e-18), test.ShouldBeLessThan, 360)
}

func TestSignedAngleDiffDeg(t *testing.T) {
	test.That(t, SignedAngleDiffDeg(350, 10), test.ShouldAlmostEqual, 20)
	test.That(t, SignedAngleDiffDeg(10, 350), test.ShouldAlmostEqual, -20)
	test.That(t, SignedAngleDiffDeg(0, 180), test.ShouldAlmostEqual, -180)
	test.That(t, SignedAngleDiffDeg(90, 90), test.ShouldAlmostEqual, 0)
}

func TestAngleDiffDeg(t *testing.T) {
	test.That(t, AngleDiffDeg(359.99, 0.01), test.ShouldAlmostEqual, 0.02)
	test.That(t, AngleDiffDeg(0.01, 359.99), test.ShouldAlmostEqual, 0.02)
	test.That(t, AngleDiffDeg(0, 180), test.ShouldEqual, 180)
	test.That(t, AngleDiffDeg(90, 45), test.ShouldEqual, 45)
}

func TestSignAndClamp(t *testing.T) {
	test.That(t, Sign(-3), test.ShouldEqual, -1)
	test.That(t, Sign(0), test.ShouldEqual, 0)
	test.That(t, Sign(0.1), test.ShouldEqual, 1)
	test.That(t, Clamp(1.5, 1), test.ShouldEqual, 1)
	test.That(t, Clamp(-1.5, 1), test.ShouldEqual, -1)
	test.That(t, Clamp(0.5, 1), test.ShouldEqual, 0.5)
}

func TestStoppableWorkersStopCount(t *testing.T) {
	var stopped atomic.Int64
	worker := func(ctx context.Context) {
		<-ctx.Done()
		stopped.Inc()
	}
	sw := NewStoppableWorkers(worker, worker)
	sw.Add(worker)
	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, 3)
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	sw.Add(worker)
	test.That(t, stopped.Load(), test.ShouldEqual, 3)
}
