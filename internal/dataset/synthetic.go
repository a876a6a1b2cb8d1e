package dataset

import (
	"math"
	"math/rand"

	"github.com/banshee-data/l5sampler/internal/geometry"
)

// SyntheticScene describes a generated driving log. The generator is
// deterministic for a given configuration, including Seed.
type SyntheticScene struct {
	Host           string
	FrameCount     int
	FrameInterval  int64   // nanos between frames
	StartTime      int64   // unix nanos of frame 0
	EgoSpeedMPS    float64 // metres per second along the ego heading
	EgoYawRate     float64 // radians per second
	EgoOrigin      [3]float64
	AgentCount     int     // tracks 1..AgentCount
	AgentSpacing   float64 // lateral metres between neighbouring tracks
	OcclusionEvery int     // track k is missing when (frame+k)%OcclusionEvery == 0; 0 disables
	// LowConfidenceTracks are emitted with an interest score below 0.5.
	LowConfidenceTracks []uint64
	// LowConfidenceFrames maps a track to the scene-local frames at which
	// it drops below 0.5; elsewhere it keeps its usual score.
	LowConfidenceFrames map[uint64][]int
	Seed                int64
}

// DefaultSyntheticScene returns a 10 Hz scene with a handful of agents.
func DefaultSyntheticScene() SyntheticScene {
	return SyntheticScene{
		Host:           "host-synthetic",
		FrameCount:     200,
		FrameInterval:  100_000_000,
		StartTime:      1_266_597_039_003_039_366,
		EgoSpeedMPS:    8.0,
		EgoYawRate:     0.05,
		EgoOrigin:      [3]float64{542.73755, -2405.4773, 288.671},
		AgentCount:     6,
		AgentSpacing:   3.5,
		OcclusionEvery: 0,
		Seed:           42,
	}
}

// GenerateScene builds a single-scene dataset.
func GenerateScene(cfg SyntheticScene) *Tables {
	t := &Tables{}
	AppendScene(t, cfg)
	return t
}

// AppendScene generates one more scene at the end of t.
func AppendScene(t *Tables, cfg SyntheticScene) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	lowConf := make(map[uint64]bool, len(cfg.LowConfidenceTracks))
	for _, id := range cfg.LowConfidenceTracks {
		lowConf[id] = true
	}

	// Fixed per-track label probabilities so records are stable over time.
	labels := make(map[uint64][NumLabels]float32, cfg.AgentCount)
	for k := 1; k <= cfg.AgentCount; k++ {
		id := uint64(k)
		var probs [NumLabels]float32
		score := float32(0.7 + 0.3*rng.Float64())
		if lowConf[id] {
			score = float32(0.1 + 0.3*rng.Float64())
		}
		switch k % 3 {
		case 0:
			probs[LabelPedestrian] = score
		case 1:
			probs[LabelCar] = score
		default:
			probs[LabelCyclist] = score
		}
		probs[LabelUnknown] = 1 - score
		labels[id] = probs
	}

	dimmedAt := make(map[uint64]map[int]bool, len(cfg.LowConfidenceFrames))
	for id, frames := range cfg.LowConfidenceFrames {
		dimmedAt[id] = make(map[int]bool, len(frames))
		for _, f := range frames {
			dimmedAt[id][f] = true
		}
	}

	firstFrame := len(t.FrameRows)
	dt := float64(cfg.FrameInterval) / 1e9
	for i := 0; i < cfg.FrameCount; i++ {
		elapsed := float64(i) * dt
		egoYaw := cfg.EgoYawRate * elapsed
		egoX, egoY := egoPosition(cfg, elapsed)

		agentStart := len(t.AgentRows)
		for k := 1; k <= cfg.AgentCount; k++ {
			if cfg.OcclusionEvery > 0 && (i+k)%cfg.OcclusionEvery == 0 {
				continue
			}
			probs := labels[uint64(k)]
			if dimmedAt[uint64(k)][i] {
				probs = dimLabels(probs)
			}
			t.AgentRows = append(t.AgentRows, syntheticAgent(cfg, k, elapsed, probs))
		}

		rot := geometry.RotationZ(egoYaw).RawMatrix().Data
		var rotation [9]float64
		copy(rotation[:], rot)

		t.FrameRows = append(t.FrameRows, Frame{
			Timestamp:          cfg.StartTime + int64(i)*cfg.FrameInterval,
			AgentIndexInterval: Interval{Start: agentStart, End: len(t.AgentRows)},
			EgoTranslation:     [3]float64{egoX, egoY, cfg.EgoOrigin[2]},
			EgoRotation:        rotation,
		})
	}

	t.SceneRows = append(t.SceneRows, Scene{
		FrameIndexInterval: Interval{Start: firstFrame, End: len(t.FrameRows)},
		Host:               cfg.Host,
		StartTime:          cfg.StartTime,
		EndTime:            cfg.StartTime + int64(cfg.FrameCount)*cfg.FrameInterval,
	})
}

// dimLabels keeps the track's class but moves its mass to unknown.
func dimLabels(probs [NumLabels]float32) [NumLabels]float32 {
	var out [NumLabels]float32
	for l, p := range probs {
		if l != LabelUnknown && p > 0 {
			out[l] = 0.2
		}
	}
	out[LabelUnknown] = 0.8
	return out
}

// egoPosition integrates a constant speed and yaw rate from the origin.
func egoPosition(cfg SyntheticScene, elapsed float64) (x, y float64) {
	if cfg.EgoYawRate == 0 {
		return cfg.EgoOrigin[0] + cfg.EgoSpeedMPS*elapsed, cfg.EgoOrigin[1]
	}
	r := cfg.EgoSpeedMPS / cfg.EgoYawRate
	yaw := cfg.EgoYawRate * elapsed
	return cfg.EgoOrigin[0] + r*math.Sin(yaw), cfg.EgoOrigin[1] + r*(1-math.Cos(yaw))
}

// syntheticAgent places track k in a lane offset from the ego path,
// moving at a track-specific speed.
func syntheticAgent(cfg SyntheticScene, k int, elapsed float64, probs [NumLabels]float32) Agent {
	lane := float64(k-(cfg.AgentCount+1)/2) * cfg.AgentSpacing
	speed := cfg.EgoSpeedMPS * (0.6 + 0.1*float64(k%5))
	heading := 0.02 * float64(k)

	x := cfg.EgoOrigin[0] + 10 + speed*elapsed*math.Cos(heading)
	y := cfg.EgoOrigin[1] + lane + speed*elapsed*math.Sin(heading)

	extent := [3]float64{4.5, 1.9, 1.6}
	switch {
	case probs[LabelPedestrian] > 0:
		extent = [3]float64{0.6, 0.6, 1.7}
	case probs[LabelCyclist] > 0:
		extent = [3]float64{1.8, 0.7, 1.7}
	}

	return Agent{
		Centroid:           [2]float64{x, y},
		Extent:             extent,
		Yaw:                heading,
		Velocity:           [2]float64{speed * math.Cos(heading), speed * math.Sin(heading)},
		TrackID:            uint64(k),
		LabelProbabilities: probs,
	}
}
