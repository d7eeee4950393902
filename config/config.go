// Package config defines the structures to configure a navigator and the ability to read them
// from a JSON file.
package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/talaria-robotics/navigator/components/base/wheeled"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/motionplan"
	"github.com/talaria-robotics/navigator/obstacle"
	"github.com/talaria-robotics/navigator/services/navigation"
	rutils "github.com/talaria-robotics/navigator/utils"
)

// Defaults applied to fields left empty.
const (
	DefaultModel          = "fake"
	DefaultPollIntervalMs = 100
	DefaultWebAddress     = ":8080"
)

// DefaultBins is the bin catalog of the reference robot.
func DefaultBins() navigation.Bins {
	return navigation.Bins{
		{Number: 1, Name: "Letter Slot 1"},
		{Number: 2, Name: "Letter Slot 2"},
		{Number: 3, Name: "Letter Slot 3"},
		{Number: 14, Name: "Package Area"},
	}
}

// A Config describes the configuration of a navigator.
type Config struct {
	ConfigFilePath string `json:"-"`

	// FloorPlan is the .floormap file to plan over. A relative path is relative to the config file.
	FloorPlan string `json:"floor_plan"`
	// WatchFloorPlan reloads the floor plan whenever the file changes.
	WatchFloorPlan bool            `json:"watch_floor_plan,omitempty"`
	Bins           navigation.Bins `json:"bins,omitempty"`
	LogLevel       logging.Level   `json:"log_level,omitempty"`
	// StartHeading is the heading, in degrees, the robot faces when parked at home.
	StartHeading float64 `json:"start_heading_deg,omitempty"`

	Hardware    Hardware                     `json:"hardware"`
	Lidar       Lidar                        `json:"lidar"`
	Calibration *wheeled.Calibration         `json:"calibration,omitempty"`
	Drive       wheeled.DriveConfig          `json:"drive"`
	Obstacle    obstacle.GateConfig          `json:"obstacle"`
	Discretize  motionplan.DiscretizeOptions `json:"discretize"`
	Web         Web                          `json:"web"`
}

// A Component picks a hardware model and carries its model specific attributes.
type Component struct {
	Model      string              `json:"model"`
	Attributes rutils.AttributeMap `json:"attributes,omitempty"`
}

// Hardware configures the drive train.
type Hardware struct {
	Encoder Component `json:"encoder"`
	Motor   Component `json:"motor"`
}

// Lidar configures the obstacle scanner. An empty model runs without obstacle gating.
type Lidar struct {
	Component
	PollIntervalMs int `json:"poll_interval_ms,omitempty"`
}

// Enabled is true when a scanner model is configured.
func (l Lidar) Enabled() bool {
	return l.Model != ""
}

// Web configures the HTTP server.
type Web struct {
	Address string `json:"address,omitempty"`
}

// applyDefaults fills in every field left empty.
func (c *Config) applyDefaults() {
	if c.FloorPlan != "" && !filepath.IsAbs(c.FloorPlan) && c.ConfigFilePath != "" {
		c.FloorPlan = filepath.Join(filepath.Dir(c.ConfigFilePath), c.FloorPlan)
	}
	if len(c.Bins) == 0 {
		c.Bins = DefaultBins()
	}
	if c.Hardware.Encoder.Model == "" {
		c.Hardware.Encoder.Model = DefaultModel
	}
	if c.Hardware.Motor.Model == "" {
		c.Hardware.Motor.Model = DefaultModel
	}
	if c.Lidar.Enabled() && c.Lidar.PollIntervalMs == 0 {
		c.Lidar.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.Calibration == nil {
		calib := wheeled.DefaultCalibration()
		c.Calibration = &calib
	}
	if c.Obstacle.Box == (obstacle.Box{}) {
		c.Obstacle.Box = obstacle.DefaultBox()
	}
	if c.Obstacle.MinViolations == 0 {
		c.Obstacle.MinViolations = 1
	}
	if c.Web.Address == "" {
		c.Web.Address = DefaultWebAddress
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if c.FloorPlan == "" {
		return utils.NewConfigValidationFieldRequiredError("", "floor_plan")
	}
	if err := c.Bins.Validate("bins"); err != nil {
		return err
	}
	if c.Lidar.PollIntervalMs < 0 {
		return utils.NewConfigValidationError("lidar", errors.New("poll_interval_ms cannot be negative"))
	}
	if err := c.Calibration.Validate("calibration"); err != nil {
		return err
	}
	if err := c.Drive.Validate("drive"); err != nil {
		return err
	}
	if err := c.Obstacle.Validate("obstacle"); err != nil {
		return err
	}
	if err := c.Discretize.Validate("discretize"); err != nil {
		return err
	}
	return nil
}

// Ensure fills in defaults and then validates the config.
func (c *Config) Ensure() error {
	c.applyDefaults()
	return c.Validate()
}
