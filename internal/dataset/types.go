package dataset

import (
	"fmt"

	"github.com/banshee-data/l5sampler/internal/geometry"
	"gonum.org/v1/gonum/mat"
)

// Ego vehicle box dimensions (metres). The ego is not an agent record, so
// its extent is fixed rather than detected.
const (
	EgoExtentLength = 4.87
	EgoExtentWidth  = 1.85
	EgoExtentHeight = 1.75
)

// EgoExtent returns the ego box as (length, width, height).
func EgoExtent() [3]float64 {
	return [3]float64{EgoExtentLength, EgoExtentWidth, EgoExtentHeight}
}

// Interval is a half-open [Start, End) range of row indices.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows covered by the interval.
func (iv Interval) Len() int {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Empty reports whether the interval covers no rows.
func (iv Interval) Empty() bool {
	return iv.Len() == 0
}

// Contains reports whether idx lies in [Start, End).
func (iv Interval) Contains(idx int) bool {
	return idx >= iv.Start && idx < iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.End)
}

// Scene is a contiguous run of frames recorded by one vehicle.
type Scene struct {
	FrameIndexInterval Interval `json:"frame_index_interval"`
	Host               string   `json:"host"`
	StartTime          int64    `json:"start_time"` // unix nanos
	EndTime            int64    `json:"end_time"`   // unix nanos
}

// Frame is one timestep: the ego pose and the slice of the agent table
// holding the detections made at that time.
type Frame struct {
	Timestamp          int64      `json:"timestamp"` // unix nanos
	AgentIndexInterval Interval   `json:"agent_index_interval"`
	EgoTranslation     [3]float64 `json:"ego_translation"`
	// EgoRotation is a 3x3 orthonormal matrix in row-major order.
	EgoRotation [9]float64 `json:"ego_rotation"`
}

// RotationMatrix returns EgoRotation as a 3x3 gonum matrix.
func (f Frame) RotationMatrix() *mat.Dense {
	data := make([]float64, 9)
	copy(data, f.EgoRotation[:])
	return mat.NewDense(3, 3, data)
}

// EgoCentroid returns the ego (x, y) position in world coordinates.
func (f Frame) EgoCentroid() [2]float64 {
	return [2]float64{f.EgoTranslation[0], f.EgoTranslation[1]}
}

// EgoYaw returns the ego heading in radians derived from EgoRotation.
func (f Frame) EgoYaw() float64 {
	return geometry.YawFromRotation(f.RotationMatrix())
}

// Agent is one non-ego detection at one frame.
type Agent struct {
	Centroid           [2]float64         `json:"centroid"`
	Extent             [3]float64         `json:"extent"`
	Yaw                float64            `json:"yaw"`
	Velocity           [2]float64         `json:"velocity"`
	TrackID            uint64             `json:"track_id"`
	LabelProbabilities [NumLabels]float32 `json:"label_probabilities"`
}

// InterestScore is the highest probability among the labels of interest.
func (a Agent) InterestScore() float64 {
	best := float32(0)
	for _, idx := range labelsOfInterest {
		if p := a.LabelProbabilities[idx]; p > best {
			best = p
		}
	}
	return float64(best)
}

// IsOfInterest reports whether the agent passes the confidence filter.
func (a Agent) IsOfInterest(threshold float64) bool {
	return a.InterestScore() >= threshold
}
