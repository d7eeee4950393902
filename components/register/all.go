// Package register registers all hardware models.
package register

import (
	// register encoders.
	_ "github.com/talaria-robotics/navigator/components/encoder/ams"
	_ "github.com/talaria-robotics/navigator/components/encoder/fake"
	// register motors.
	_ "github.com/talaria-robotics/navigator/components/motor/fake"
	_ "github.com/talaria-robotics/navigator/components/motor/gpio"
	// register scanners.
	_ "github.com/talaria-robotics/navigator/lidar/fake"
)
