package attendance

import (
	"fmt"
	"math"
)

type RoundingMode int

const (
	RoundFloor RoundingMode = iota
	RoundNearest
)

func ParseRoundingMode(name string) (RoundingMode, error) {
	switch name {
	case "", "floor":
		return RoundFloor, nil
	case "nearest":
		return RoundNearest, nil
	default:
		return RoundFloor, fmt.Errorf("unknown rounding mode %q", name)
	}
}

func (m RoundingMode) String() string {
	if m == RoundNearest {
		return "nearest"
	}
	return "floor"
}

func (m RoundingMode) apply(x float64) int {
	// absorbs float error such as 11.999999999 for an exact 12
	const epsilon = 1e-9
	switch m {
	case RoundNearest:
		return int(math.Round(x))
	default:
		return int(math.Floor(x + epsilon))
	}
}

// Policy is the minimum-attendance rule advisory figures are computed against.
type Policy struct {
	// Threshold is the minimum ratio of present days, in (0, 1).
	Threshold float64
	Rounding  RoundingMode
}

var DefaultPolicy = Policy{
	Threshold: 0.75,
	Rounding:  RoundFloor,
}

// Advise returns how many more days can be skipped while staying at or above the
// threshold (assuming every following day is skipped), or how many consecutive days
// must be attended to reach it (assuming every following day is attended).
// At most one of the two is non-zero.
func (p Policy) Advise(total, present int, percentage float64) (canSkip int, needToAttend int) {
	if total <= 0 {
		return 0, 0
	}
	if percentage >= p.Threshold*100 {
		canSkip = p.Rounding.apply(float64(present)/p.Threshold - float64(total))
		return max(0, canSkip), 0
	}
	needToAttend = p.Rounding.apply((p.Threshold*float64(total) - float64(present)) / (1 - p.Threshold))
	return 0, max(0, needToAttend)
}
