package sampling

import (
	"encoding/binary"
	"math"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/raster"
	"github.com/cespare/xxhash/v2"
)

// Sample is one training example. History arrays run oldest first and
// end at the centre step; target arrays start one future step after it.
// Positions and yaws are relative to the centre pose; yaws are (n, 1)
// column arrays to match the tensor layout. Slots whose
// availability is false hold zeros and must be ignored by consumers.
type Sample struct {
	SceneIndex  int            `json:"scene_index"`
	CenterIndex int            `json:"center_index"`
	Timestamp   int64          `json:"timestamp"`
	Target      dataset.Target `json:"-"`

	TargetPositions      [][2]float64 `json:"target_positions"`
	TargetYaws           [][1]float64 `json:"target_yaws"`
	TargetExtents        [][3]float64 `json:"target_extents"`
	TargetAvailabilities []bool       `json:"target_availabilities"`

	HistoryPositions      [][2]float64 `json:"history_positions"`
	HistoryYaws           [][1]float64 `json:"history_yaws"`
	HistoryExtents        [][3]float64 `json:"history_extents"`
	HistoryAvailabilities []bool       `json:"history_availabilities"`

	// Centre pose in world coordinates.
	Centroid [2]float64 `json:"centroid"`
	Yaw      float64    `json:"yaw"`
	Extent   [3]float64 `json:"extent"`

	Image        *raster.Image `json:"image,omitempty"`
	WorldToImage [3][3]float64 `json:"world_to_image"`
}

// AvailableTargets counts future steps holding real data.
func (s *Sample) AvailableTargets() int {
	return countTrue(s.TargetAvailabilities)
}

// AvailableHistory counts history steps holding real data.
func (s *Sample) AvailableHistory() int {
	return countTrue(s.HistoryAvailabilities)
}

// Digest is an xxhash of every numeric field and mask of the sample,
// image pixels included. Identical builds produce identical digests.
func (s *Sample) Digest() uint64 {
	d := xxhash.New()
	var buf [8]byte
	putU := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putF := func(v float64) { putU(math.Float64bits(v)) }
	putB := func(bs []bool) {
		putU(uint64(len(bs)))
		for _, b := range bs {
			if b {
				_, _ = d.Write([]byte{1})
			} else {
				_, _ = d.Write([]byte{0})
			}
		}
	}
	putTrajectory := func(pos [][2]float64, yaws [][1]float64, ext [][3]float64) {
		putU(uint64(len(pos)))
		for i := range pos {
			putF(pos[i][0])
			putF(pos[i][1])
			putF(yaws[i][0])
			putF(ext[i][0])
			putF(ext[i][1])
			putF(ext[i][2])
		}
	}

	putU(uint64(s.CenterIndex))
	putU(uint64(s.Timestamp))
	if id, ok := s.Target.TrackID(); ok {
		putU(1)
		putU(id)
	} else {
		putU(0)
	}
	putTrajectory(s.TargetPositions, s.TargetYaws, s.TargetExtents)
	putB(s.TargetAvailabilities)
	putTrajectory(s.HistoryPositions, s.HistoryYaws, s.HistoryExtents)
	putB(s.HistoryAvailabilities)
	putF(s.Centroid[0])
	putF(s.Centroid[1])
	putF(s.Yaw)
	for _, v := range s.Extent {
		putF(v)
	}
	for _, row := range s.WorldToImage {
		for _, v := range row {
			putF(v)
		}
	}
	if s.Image != nil {
		shape := s.Image.Shape()
		for _, v := range shape {
			putU(uint64(v))
		}
		for _, p := range s.Image.Pix {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(p))
			_, _ = d.Write(buf[:4])
		}
	}
	return d.Sum64()
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
