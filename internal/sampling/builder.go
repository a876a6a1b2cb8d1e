package sampling

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/geometry"
	"github.com/banshee-data/l5sampler/internal/raster"
)

// Config sets the window lengths and strides of a sample.
type Config struct {
	HistoryNumFrames      int
	HistoryStepSize       int
	FutureNumFrames       int
	FutureStepSize        int
	FilterAgentsThreshold float64
}

// Validate rejects negative counts and non-positive step sizes.
func (c Config) Validate() error {
	if c.HistoryNumFrames < 0 || c.FutureNumFrames < 0 {
		return fmt.Errorf("history_num_frames=%d future_num_frames=%d: %w", c.HistoryNumFrames, c.FutureNumFrames, ErrInvalidConfig)
	}
	if c.HistoryStepSize <= 0 || c.FutureStepSize <= 0 {
		return fmt.Errorf("history_step_size=%d future_step_size=%d: %w", c.HistoryStepSize, c.FutureStepSize, ErrInvalidConfig)
	}
	return nil
}

// Builder assembles samples. It holds no per-call state and may be
// shared between goroutines.
type Builder struct {
	cfg        Config
	rasterizer raster.Rasterizer
}

// NewBuilder validates cfg and returns a Builder rendering through r.
func NewBuilder(cfg Config, r raster.Rasterizer) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("sampling: nil rasterizer")
	}
	return &Builder{cfg: cfg, rasterizer: r}, nil
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build samples target around frames[center]. frames is the frame slice
// of one scene; its bounds are the window bounds. agents reads the
// absolute agent table referenced by the frames' agent intervals.
func (b *Builder) Build(frames []dataset.Frame, agents dataset.AgentReader, center int, target dataset.Target) (*Sample, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	bounds := dataset.Interval{Start: 0, End: len(frames)}

	past, err := SelectWindow(bounds, center, b.cfg.HistoryNumFrames, b.cfg.HistoryStepSize, Past)
	if err != nil {
		return nil, err
	}
	future, err := SelectWindow(bounds, center, b.cfg.FutureNumFrames, b.cfg.FutureStepSize, Future)
	if err != nil {
		return nil, err
	}

	// History agents are always needed by the rasterizer; future agents
	// only when following a track.
	windowAgents := make(map[int][]dataset.Agent, len(past)+len(future))
	if err := fetchAgents(agents, frames, past, windowAgents); err != nil {
		return nil, err
	}
	if !target.IsEgo() {
		if err := fetchAgents(agents, frames, future, windowAgents); err != nil {
			return nil, err
		}
	}

	index := NewTrackIndex(target, b.cfg.FilterAgentsThreshold, frames, windowAgents)
	anchor, res := index.Lookup(center)
	switch res {
	case NotFound:
		return nil, fmt.Errorf("%s at frame %d: %w", target, center, ErrAnchorNotFound)
	case Filtered:
		return nil, fmt.Errorf("%s at frame %d: %w", target, center, ErrAnchorFiltered)
	}

	s := &Sample{
		CenterIndex: center,
		Timestamp:   frames[center].Timestamp,
		Target:      target,
		Centroid:    anchor.Centroid,
		Yaw:         anchor.Yaw,
		Extent:      anchor.Extent,
	}

	s.HistoryPositions, s.HistoryYaws, s.HistoryExtents, s.HistoryAvailabilities = relativize(past, index, anchor)
	slices.Reverse(s.HistoryPositions)
	slices.Reverse(s.HistoryYaws)
	slices.Reverse(s.HistoryExtents)
	slices.Reverse(s.HistoryAvailabilities)

	s.TargetPositions, s.TargetYaws, s.TargetExtents, s.TargetAvailabilities = relativize(future, index, anchor)

	req := raster.Request{
		Target: target,
		Anchor: raster.Pose{Centroid: anchor.Centroid, Yaw: anchor.Yaw},
	}
	// One slot per history step keeps the image shape independent of
	// where the centre sits in the scene.
	req.HistoryFrames = make([]dataset.Frame, len(past))
	req.HistoryAgents = make([][]dataset.Agent, len(past))
	req.HistoryInRange = make([]bool, len(past))
	for i, st := range past {
		if !st.InRange {
			continue
		}
		req.HistoryFrames[i] = frames[st.FrameIndex]
		req.HistoryAgents[i] = windowAgents[st.FrameIndex]
		req.HistoryInRange[i] = true
	}
	if a, ok := index.Agent(center); ok {
		req.SelectedAgent = &a
	}

	rendered, err := b.rasterizer.Rasterize(req)
	if err != nil {
		return nil, fmt.Errorf("rasterize frame %d: %w", center, err)
	}
	s.Image = rendered.Image
	s.WorldToImage = rendered.WorldToImage

	return s, nil
}

// SampleScene samples target at frame center of scene sceneIdx; center
// is relative to the scene's first frame.
func (b *Builder) SampleScene(acc dataset.Accessor, sceneIdx, center int, target dataset.Target) (*Sample, error) {
	_, frames, err := dataset.SceneFrames(acc, sceneIdx)
	if err != nil {
		return nil, err
	}
	s, err := b.Build(frames, acc, center, target)
	if err != nil {
		return nil, err
	}
	s.SceneIndex = sceneIdx
	return s, nil
}

func fetchAgents(r dataset.AgentReader, frames []dataset.Frame, steps []Step, into map[int][]dataset.Agent) error {
	for _, st := range steps {
		if !st.InRange {
			continue
		}
		if _, ok := into[st.FrameIndex]; ok {
			continue
		}
		agents, err := dataset.FrameAgents(r, frames[st.FrameIndex])
		if err != nil {
			return fmt.Errorf("agents of frame %d: %w", st.FrameIndex, err)
		}
		into[st.FrameIndex] = agents
	}
	return nil
}

// relativize fills one window in step order. Unavailable slots stay zero.
func relativize(steps []Step, index *TrackIndex, anchor State) ([][2]float64, [][1]float64, [][3]float64, []bool) {
	pos := make([][2]float64, len(steps))
	yaws := make([][1]float64, len(steps))
	ext := make([][3]float64, len(steps))
	avail := make([]bool, len(steps))

	for i, st := range steps {
		if !st.InRange {
			continue
		}
		state, res := index.Lookup(st.FrameIndex)
		if res != Found {
			continue
		}
		pos[i] = geometry.WorldToLocal(state.Centroid, anchor.Centroid, anchor.Yaw)
		yaws[i][0] = geometry.NormalizeAngle(state.Yaw - anchor.Yaw)
		ext[i] = state.Extent
		avail[i] = true
	}
	return pos, yaws, ext, avail
}
