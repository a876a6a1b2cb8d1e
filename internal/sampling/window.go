package sampling

import (
	"fmt"

	"github.com/banshee-data/l5sampler/internal/dataset"
)

// Direction selects which side of the centre frame a window covers.
type Direction int

const (
	Past Direction = iota
	Future
)

func (d Direction) String() string {
	switch d {
	case Past:
		return "past"
	case Future:
		return "future"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Step is one slot of a window.
type Step struct {
	FrameIndex int
	// InRange is false when FrameIndex falls outside the scene; such
	// slots are padding and are never fetched.
	InRange bool
}

// SelectWindow lists the frame indices sampled around center.
//
// A Past window has count+1 steps: center, center-step, center-2*step...
// A Future window has count steps: center+step, center+2*step...
// Indices outside bounds are returned with InRange false.
func SelectWindow(bounds dataset.Interval, center, count, step int, dir Direction) ([]Step, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("window %s: %w", bounds, ErrNoFrames)
	}
	if count < 0 || step <= 0 {
		return nil, fmt.Errorf("%s window count=%d step=%d: %w", dir, count, step, ErrInvalidConfig)
	}
	if !bounds.Contains(center) {
		return nil, fmt.Errorf("centre %d not in %s: %w", center, bounds, ErrCenterOutOfRange)
	}

	var n, first, stride int
	switch dir {
	case Past:
		n, first, stride = count+1, center, -step
	case Future:
		n, first, stride = count, center+step, step
	default:
		return nil, fmt.Errorf("%s: %w", dir, ErrInvalidConfig)
	}

	steps := make([]Step, n)
	for i := range steps {
		idx := first + i*stride
		steps[i] = Step{FrameIndex: idx, InRange: bounds.Contains(idx)}
	}
	return steps, nil
}
