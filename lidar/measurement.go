package lidar

import (
	"sort"

	"github.com/talaria-robotics/navigator/utils"
)

// Measurements is one full sweep of the lidar.
type Measurements []Measurement

func (ms Measurements) Len() int {
	return len(ms)
}

func (ms Measurements) Swap(i, j int) {
	ms[i], ms[j] = ms[j], ms[i]
}

func (ms Measurements) Less(i, j int) bool {
	if ms[i].AngleDeg < ms[j].AngleDeg {
		return true
	}
	if ms[i].AngleDeg == ms[j].AngleDeg {
		return ms[i].Distance < ms[j].Distance
	}
	return false
}

// Sorted returns a copy ordered by angle, then distance.
func (ms Measurements) Sorted() Measurements {
	out := append(Measurements(nil), ms...)
	sort.Stable(out)
	return out
}

// Measurement is a single return: the bearing clockwise from the robot's front and the distance
// to whatever reflected. A distance of 0 means nothing came back.
type Measurement struct {
	AngleDeg float64 `json:"angle"`
	Distance float64 `json:"distance"`
}

// NewMeasurement normalizes the angle into [0, 360).
func NewMeasurement(angleDeg, distance float64) Measurement {
	return Measurement{AngleDeg: utils.ModAngDeg(angleDeg), Distance: distance}
}
