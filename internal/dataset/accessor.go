package dataset

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a row or slice request falls
// outside a table.
var ErrIndexOutOfRange = errors.New("dataset: index out of range")

// SceneReader gives random access to the scene table.
type SceneReader interface {
	NumScenes() int
	Scene(idx int) (Scene, error)
}

// FrameReader gives random access to the frame table.
type FrameReader interface {
	NumFrames() int
	// Frames returns rows [start, end).
	Frames(start, end int) ([]Frame, error)
}

// AgentReader gives random access to the agent table.
type AgentReader interface {
	NumAgents() int
	// Agents returns rows [start, end).
	Agents(start, end int) ([]Agent, error)
}

// Accessor is the read-only view of a complete dataset. Implementations
// must be safe for concurrent readers.
type Accessor interface {
	SceneReader
	FrameReader
	AgentReader
}

// Tables is an in-memory dataset. Callers must not mutate the slices
// once the Tables value is shared between goroutines.
type Tables struct {
	SceneRows []Scene
	FrameRows []Frame
	AgentRows []Agent
}

var _ Accessor = (*Tables)(nil)

// NumScenes implements SceneReader.
func (t *Tables) NumScenes() int { return len(t.SceneRows) }

// NumFrames implements FrameReader.
func (t *Tables) NumFrames() int { return len(t.FrameRows) }

// NumAgents implements AgentReader.
func (t *Tables) NumAgents() int { return len(t.AgentRows) }

// Scene implements SceneReader.
func (t *Tables) Scene(idx int) (Scene, error) {
	if idx < 0 || idx >= len(t.SceneRows) {
		return Scene{}, fmt.Errorf("scene %d of %d: %w", idx, len(t.SceneRows), ErrIndexOutOfRange)
	}
	return t.SceneRows[idx], nil
}

// Frames implements FrameReader. The returned slice aliases the table.
func (t *Tables) Frames(start, end int) ([]Frame, error) {
	if err := checkSlice(start, end, len(t.FrameRows)); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	return t.FrameRows[start:end:end], nil
}

// Agents implements AgentReader. The returned slice aliases the table.
func (t *Tables) Agents(start, end int) ([]Agent, error) {
	if err := checkSlice(start, end, len(t.AgentRows)); err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	return t.AgentRows[start:end:end], nil
}

// SceneFrames returns the frames of scene idx together with the scene row.
func SceneFrames(acc Accessor, idx int) (Scene, []Frame, error) {
	scene, err := acc.Scene(idx)
	if err != nil {
		return Scene{}, nil, err
	}
	frames, err := acc.Frames(scene.FrameIndexInterval.Start, scene.FrameIndexInterval.End)
	if err != nil {
		return Scene{}, nil, fmt.Errorf("scene %d frames %s: %w", idx, scene.FrameIndexInterval, err)
	}
	return scene, frames, nil
}

// FrameAgents returns the agent rows referenced by a frame.
func FrameAgents(r AgentReader, f Frame) ([]Agent, error) {
	iv := f.AgentIndexInterval
	if iv.Empty() {
		return nil, nil
	}
	return r.Agents(iv.Start, iv.End)
}

func checkSlice(start, end, n int) error {
	if start < 0 || end < start || end > n {
		return fmt.Errorf("slice [%d, %d) of %d rows: %w", start, end, n, ErrIndexOutOfRange)
	}
	return nil
}
