package utils

import (
	"testing"
	"time"

	"go.viam.com/test"
)

type pinAttrs struct {
	Bus      string        `json:"bus"`
	Addr     uint16        `json:"addr,omitempty"`
	Invert   *bool         `json:"invert,omitempty"`
	Debounce time.Duration `json:"debounce,omitempty"`
}

func TestTransformAttributeMap(t *testing.T) {
	attrs := AttributeMap{"bus": "1", "addr": "64", "invert": true, "debounce": "20ms"}
	test.That(t, attrs.Has("bus"), test.ShouldBeTrue)
	test.That(t, attrs.Has("baud"), test.ShouldBeFalse)

	conf, err := TransformAttributeMap[pinAttrs](attrs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Bus, test.ShouldEqual, "1")
	test.That(t, conf.Addr, test.ShouldEqual, uint16(64))
	test.That(t, *conf.Invert, test.ShouldBeTrue)
	test.That(t, conf.Debounce, test.ShouldEqual, 20*time.Millisecond)

	ptr, err := TransformAttributeMap[*pinAttrs](AttributeMap{"bus": "2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ptr.Bus, test.ShouldEqual, "2")
	test.That(t, ptr.Invert, test.ShouldBeNil)

	empty, err := TransformAttributeMap[pinAttrs](nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty, test.ShouldResemble, pinAttrs{})

	_, err = TransformAttributeMap[pinAttrs](AttributeMap{"buss": "1"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "buss")
}
