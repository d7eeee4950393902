package gpio

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/talaria-robotics/navigator/components/motor"
	"github.com/talaria-robotics/navigator/logging"
)

func TestComputePWM(t *testing.T) {
	a, b := computePWM(1)
	test.That(t, a, test.ShouldEqual, gpio.DutyMax)
	test.That(t, b, test.ShouldEqual, gpio.Duty(0))

	a, b = computePWM(-1)
	test.That(t, a, test.ShouldEqual, gpio.Duty(0))
	test.That(t, b, test.ShouldEqual, gpio.DutyMax)

	a, b = computePWM(0.5)
	test.That(t, a, test.ShouldEqual, gpio.DutyMax*3/4)
	test.That(t, b, test.ShouldEqual, gpio.DutyMax/4)
}

func testPins() (la, lb, ra, rb *gpiotest.Pin) {
	return &gpiotest.Pin{N: "GPIO17", Num: 17},
		&gpiotest.Pin{N: "GPIO18", Num: 18},
		&gpiotest.Pin{N: "GPIO22", Num: 22},
		&gpiotest.Pin{N: "GPIO23", Num: 23}
}

func TestMotor(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	t.Run("drives both wheels", func(t *testing.T) {
		la, lb, ra, rb := testPins()
		m := makeMotor(Config{}, wheel{la, lb}, wheel{ra, rb}, logger)

		dutyMax := float64(gpio.DutyMax)
		test.That(t, m.SetWheelDuty(ctx, 0.8, -1), test.ShouldBeNil)
		test.That(t, la.D, test.ShouldEqual, gpio.Duty(0.9*dutyMax+0.5))
		test.That(t, lb.D, test.ShouldEqual, gpio.Duty(0.1*dutyMax+0.5))
		test.That(t, ra.D, test.ShouldEqual, gpio.Duty(0))
		test.That(t, rb.D, test.ShouldEqual, gpio.DutyMax)
		test.That(t, la.F, test.ShouldEqual, DefaultPWMFreqHz*physic.Hertz)

		la.L, lb.L = gpio.High, gpio.High
		test.That(t, m.Close(ctx), test.ShouldBeNil)
		test.That(t, la.L, test.ShouldEqual, gpio.Low)
		test.That(t, lb.L, test.ShouldEqual, gpio.Low)
	})

	t.Run("swap sides", func(t *testing.T) {
		la, lb, ra, rb := testPins()
		m := makeMotor(Config{SwapSides: true, PWMFreqHz: 200}, wheel{la, lb}, wheel{ra, rb}, logger)
		test.That(t, m.SetWheelDuty(ctx, 1, 0.1), test.ShouldBeNil)
		test.That(t, ra.D, test.ShouldEqual, gpio.DutyMax)
		test.That(t, ra.F, test.ShouldEqual, 200*physic.Hertz)
	})

	t.Run("rejects out of range duty", func(t *testing.T) {
		la, lb, ra, rb := testPins()
		m := makeMotor(Config{}, wheel{la, lb}, wheel{ra, rb}, logger)
		err := m.SetWheelDuty(ctx, 0, -1.5)
		test.That(t, errors.Is(err, motor.ErrDutyOutOfRange), test.ShouldBeTrue)
		test.That(t, ra.D, test.ShouldEqual, gpio.Duty(0))
	})

	t.Run("validate", func(t *testing.T) {
		conf := Config{Left: PinConfig{A: "GPIO17", B: "GPIO18"}, Right: PinConfig{A: "GPIO22"}}
		err := conf.Validate("hardware.motor")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "right.b")
	})
}
