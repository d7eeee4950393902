package encoder

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

type constEncoder struct{ left, right float64 }

func (e constEncoder) ReadShaftAngles(ctx context.Context) (float64, float64, error) {
	return e.left, e.right, nil
}

func TestCheckAngles(t *testing.T) {
	test.That(t, CheckAngles(0, 359.99), test.ShouldBeNil)
	for _, bad := range []float64{-0.1, 360, math.NaN(), math.Inf(1)} {
		err := CheckAngles(bad, 10)
		test.That(t, errors.Is(err, ErrInvalidReading), test.ShouldBeTrue)
		err = CheckAngles(10, bad)
		test.That(t, errors.Is(err, ErrInvalidReading), test.ShouldBeTrue)
	}
}

func TestRegistry(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctor := func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (Encoder, error) {
		return constEncoder{1, 2}, nil
	}
	Register("test-const", ctor)
	test.That(t, func() { Register("test-const", ctor) }, test.ShouldPanic)
	test.That(t, Lookup("test-const"), test.ShouldNotBeNil)
	test.That(t, Lookup("nope"), test.ShouldBeNil)

	enc, err := New(context.Background(), "test-const", nil, logger)
	test.That(t, err, test.ShouldBeNil)
	l, r, err := enc.ReadShaftAngles(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l, test.ShouldEqual, 1.0)
	test.That(t, r, test.ShouldEqual, 2.0)

	_, err = New(context.Background(), "nope", nil, logger)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown encoder model")
}
