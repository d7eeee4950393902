package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("tick", "left", 1.5)
	logger.Sublogger("drive").Infof("target %v", 90)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "tick")
	test.That(t, logs.All()[0].ContextMap()["left"], test.ShouldEqual, 1.5)
	test.That(t, logs.All()[1].LoggerName, test.ShouldEqual, "drive")
	test.That(t, logs.FilterMessage("target 90").Len(), test.ShouldEqual, 1)
}

func TestSetLevel(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	test.That(t, logger.Level(), test.ShouldEqual, DEBUG)

	logger.SetLevel(WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logger.Level(), test.ShouldEqual, WARN)

	sub := logger.Sublogger("child")
	sub.Info("also dropped")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
}

func TestLevelFromString(t *testing.T) {
	for in, expected := range map[string]Level{
		"":      INFO,
		"debug": DEBUG,
		"INFO":  INFO,
		"Warn":  WARN,
		"error": ERROR,
	} {
		level, err := LevelFromString(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"debug"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, DEBUG)
}
