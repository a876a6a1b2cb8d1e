package dataset

import "fmt"

// AgentRef addresses one agent record inside a scene.
type AgentRef struct {
	// FrameIndex is relative to the start of the scene.
	FrameIndex int
	TrackID    uint64
}

// EligibleAgents lists every (frame, track) pair of scene sceneIdx whose
// record passes the confidence filter, in frame order then table order.
func EligibleAgents(acc Accessor, sceneIdx int, threshold float64) ([]AgentRef, error) {
	_, frames, err := SceneFrames(acc, sceneIdx)
	if err != nil {
		return nil, err
	}

	var refs []AgentRef
	for i, f := range frames {
		agents, err := FrameAgents(acc, f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		for _, a := range agents {
			if a.IsOfInterest(threshold) {
				refs = append(refs, AgentRef{FrameIndex: i, TrackID: a.TrackID})
			}
		}
	}
	return refs, nil
}
