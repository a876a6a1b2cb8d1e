package dataset

import "fmt"

// Target selects the entity a sample is built for: the ego vehicle or
// one agent track. The zero value is the ego.
type Target struct {
	agent   bool
	trackID uint64
}

// EgoTarget selects the ego vehicle.
func EgoTarget() Target {
	return Target{}
}

// AgentTarget selects the agent with the given track identifier.
func AgentTarget(trackID uint64) Target {
	return Target{agent: true, trackID: trackID}
}

// IsEgo reports whether the target is the ego vehicle.
func (t Target) IsEgo() bool {
	return !t.agent
}

// TrackID returns the selected track id; ok is false for the ego.
func (t Target) TrackID() (id uint64, ok bool) {
	return t.trackID, t.agent
}

func (t Target) String() string {
	if t.IsEgo() {
		return "ego"
	}
	return fmt.Sprintf("track %d", t.trackID)
}
