package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/talaria-robotics/navigator/logging"
)

const samplePlan = "../../etc/maps/office.floormap"

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out, logging.NewTestLogger(t)).RunContext(ctx, append([]string{"navigator"}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, web string) string {
	t.Helper()
	plan, err := filepath.Abs(samplePlan)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(t.TempDir(), "navigator.json")
	body := `{
		"floor_plan": "` + plan + `",
		"hardware": {
			"encoder": {"model": "fake", "attributes": {"advance_per_read_ms": 50}},
			"motor": {"model": "fake"}
		},
		"drive": {"sample_period_ms": 1},
		"web": {"address": "` + web + `"}
	}`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)
	return path
}

func TestPlan(t *testing.T) {
	out, err := run(t, context.Background(), "plan", "--floor-plan", samplePlan, "room2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "tour: home > hall > room2 > hall > home\nlength: 80.00\n")

	_, err = run(t, context.Background(), "plan", "--floor-plan", samplePlan)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least one room")

	_, err = run(t, context.Background(), "plan", "--floor-plan", samplePlan, "attic")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "attic")

	_, err = run(t, context.Background(), "plan", "room2")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "floor-plan")
}

func TestDrive(t *testing.T) {
	conf := writeConfig(t, "")

	out, err := run(t, context.Background(), "drive", "--config", conf, "--forward", "2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wheels: left ")
	test.That(t, out, test.ShouldContainSubstring, "estimated pose: ")

	out, err = run(t, context.Background(), "drive", "--config", conf, "--turn", "-45")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wheels: left ")

	for _, args := range [][]string{
		{"drive", "--config", conf},
		{"drive", "--config", conf, "--turn", "10", "--forward", "1"},
	} {
		_, err = run(t, context.Background(), args...)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "exactly one of --turn or --forward")
	}
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := run(t, ctx, "serve", "--config", writeConfig(t, "127.0.0.1:0"))
	test.That(t, err, test.ShouldBeNil)

	_, err = run(t, context.Background(), "serve", "--config", filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = run(t, context.Background(), "serve")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "config")
}
