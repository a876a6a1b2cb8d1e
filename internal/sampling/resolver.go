package sampling

import "github.com/banshee-data/l5sampler/internal/dataset"

// Resolution is the outcome of looking a target up in one frame.
type Resolution int

const (
	NotFound Resolution = iota // no record with the track id
	Found
	Filtered // record present but below the confidence threshold
)

func (r Resolution) String() string {
	switch r {
	case Found:
		return "found"
	case Filtered:
		return "filtered"
	default:
		return "not_found"
	}
}

// State is the pose and size of the sampled entity at one frame, in
// world coordinates.
type State struct {
	Centroid [2]float64
	Yaw      float64
	Extent   [3]float64
}

// EgoState reads the ego state from a frame.
func EgoState(f dataset.Frame) State {
	return State{
		Centroid: f.EgoCentroid(),
		Yaw:      f.EgoYaw(),
		Extent:   dataset.EgoExtent(),
	}
}

// AgentState converts an agent record to a State.
func AgentState(a dataset.Agent) State {
	return State{Centroid: a.Centroid, Yaw: a.Yaw, Extent: a.Extent}
}

// FindTrack scans one frame's agent records for trackID. Track ids are
// unique within a frame, so the first match wins.
func FindTrack(agents []dataset.Agent, trackID uint64, threshold float64) (dataset.Agent, Resolution) {
	for _, a := range agents {
		if a.TrackID != trackID {
			continue
		}
		if !a.IsOfInterest(threshold) {
			return a, Filtered
		}
		return a, Found
	}
	return dataset.Agent{}, NotFound
}

// Resolve returns the target's state at frame f. The ego is always
// found and never consults agents.
func Resolve(f dataset.Frame, agents []dataset.Agent, target dataset.Target, threshold float64) (State, Resolution) {
	trackID, ok := target.TrackID()
	if !ok {
		return EgoState(f), Found
	}
	a, res := FindTrack(agents, trackID, threshold)
	if res != Found {
		return State{}, res
	}
	return AgentState(a), Found
}

type indexEntry struct {
	agent dataset.Agent
	res   Resolution
}

// TrackIndex maps the frames of one window to the target's record, so
// each frame's agent slice is scanned once per request.
type TrackIndex struct {
	target  dataset.Target
	frames  []dataset.Frame
	entries map[int]indexEntry
}

// NewTrackIndex resolves target in every frame present in windowAgents,
// keyed by frame index into frames.
func NewTrackIndex(target dataset.Target, threshold float64, frames []dataset.Frame, windowAgents map[int][]dataset.Agent) *TrackIndex {
	ix := &TrackIndex{target: target, frames: frames}
	trackID, ok := target.TrackID()
	if !ok {
		return ix
	}

	ix.entries = make(map[int]indexEntry, len(windowAgents))
	for frameIdx, agents := range windowAgents {
		a, res := FindTrack(agents, trackID, threshold)
		if res == NotFound {
			continue
		}
		ix.entries[frameIdx] = indexEntry{agent: a, res: res}
	}
	return ix
}

// Lookup returns the target's state at frames[frameIdx].
func (ix *TrackIndex) Lookup(frameIdx int) (State, Resolution) {
	if frameIdx < 0 || frameIdx >= len(ix.frames) {
		return State{}, NotFound
	}
	if ix.target.IsEgo() {
		return EgoState(ix.frames[frameIdx]), Found
	}
	e, ok := ix.entries[frameIdx]
	if !ok {
		return State{}, NotFound
	}
	if e.res != Found {
		return State{}, e.res
	}
	return AgentState(e.agent), Found
}

// Agent returns the eligible record at frameIdx, if any.
func (ix *TrackIndex) Agent(frameIdx int) (dataset.Agent, bool) {
	e, ok := ix.entries[frameIdx]
	if !ok || e.res != Found {
		return dataset.Agent{}, false
	}
	return e.agent, true
}
