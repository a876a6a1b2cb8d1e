package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateScene(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	ds := GenerateScene(cfg)

	assert.Equal(t, 1, ds.NumScenes())
	assert.Equal(t, cfg.FrameCount, ds.NumFrames())
	assert.Equal(t, cfg.FrameCount*cfg.AgentCount, ds.NumAgents())

	frames, err := ds.Frames(0, 1)
	require.NoError(t, err)
	frame := frames[0]

	assert.Equal(t, int64(1266597039003039366), frame.Timestamp)
	assert.Equal(t, Interval{Start: 0, End: cfg.AgentCount}, frame.AgentIndexInterval)
	assert.Equal(t, cfg.EgoOrigin, frame.EgoTranslation)
	assert.Equal(t, [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, frame.EgoRotation)
	assert.Equal(t, 0.0, frame.EgoYaw())
}

func TestGenerateScene_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	cfg.OcclusionEvery = 7
	a := GenerateScene(cfg)
	b := GenerateScene(cfg)
	assert.Equal(t, a, b)
}

func TestGenerateScene_Occlusion(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	cfg.FrameCount = 20
	cfg.OcclusionEvery = 5
	ds := GenerateScene(cfg)

	for i, f := range ds.FrameRows {
		agents, err := FrameAgents(ds, f)
		require.NoError(t, err)
		for _, a := range agents {
			assert.NotZero(t, (i+int(a.TrackID))%5, "track %d should be occluded at frame %d", a.TrackID, i)
		}
	}
}

func TestGenerateScene_EgoYawFollowsRate(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	ds := GenerateScene(cfg)

	f := ds.FrameRows[100]
	assert.InDelta(t, cfg.EgoYawRate*10.0, f.EgoYaw(), 1e-9)
	assert.Equal(t, [2]float64{f.EgoTranslation[0], f.EgoTranslation[1]}, f.EgoCentroid())
}

func TestAppendScene(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	cfg.FrameCount = 10
	ds := GenerateScene(cfg)
	cfg.FrameCount = 15
	AppendScene(ds, cfg)

	require.Equal(t, 2, ds.NumScenes())
	second, frames, err := SceneFrames(ds, 1)
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 10, End: 25}, second.FrameIndexInterval)
	assert.Len(t, frames, 15)
	assert.Equal(t, 10*cfg.AgentCount, frames[0].AgentIndexInterval.Start)
}

func TestTables_OutOfRange(t *testing.T) {
	t.Parallel()

	ds := GenerateScene(DefaultSyntheticScene())

	_, err := ds.Scene(1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = ds.Frames(-1, 2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = ds.Frames(5, 4)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = ds.Agents(0, ds.NumAgents()+1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	frames, err := ds.Frames(3, 3)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestInterval(t *testing.T) {
	t.Parallel()

	iv := Interval{Start: 2, End: 5}
	assert.Equal(t, 3, iv.Len())
	assert.False(t, iv.Empty())
	assert.True(t, iv.Contains(2))
	assert.True(t, iv.Contains(4))
	assert.False(t, iv.Contains(5))
	assert.Equal(t, "[2, 5)", iv.String())

	assert.True(t, Interval{Start: 4, End: 4}.Empty())
	assert.Equal(t, 0, Interval{Start: 6, End: 4}.Len())
}

func TestTarget(t *testing.T) {
	t.Parallel()

	var zero Target
	assert.True(t, zero.IsEgo())
	assert.Equal(t, EgoTarget(), zero)
	assert.Equal(t, "ego", zero.String())

	agent := AgentTarget(0)
	assert.False(t, agent.IsEgo())
	id, ok := agent.TrackID()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, "track 0", agent.String())

	_, ok = EgoTarget().TrackID()
	assert.False(t, ok)
}

func TestAgentInterest(t *testing.T) {
	t.Parallel()

	var a Agent
	a.LabelProbabilities[LabelCar] = 0.4
	a.LabelProbabilities[LabelPedestrian] = 0.6
	a.LabelProbabilities[LabelTruck] = 0.9

	assert.InDelta(t, 0.6, a.InterestScore(), 1e-6)
	assert.True(t, a.IsOfInterest(0.5))
	assert.False(t, a.IsOfInterest(0.7))
	assert.True(t, a.IsOfInterest(a.InterestScore()))
}

func TestLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 17, NumLabels)
	assert.Equal(t, "PERCEPTION_LABEL_CAR", LabelName(LabelCar))
	assert.Equal(t, "", LabelName(NumLabels))
	assert.Equal(t, []int{LabelCar, LabelCyclist, LabelPedestrian}, LabelsOfInterest())
}

func TestEligibleAgents(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	cfg.FrameCount = 4
	cfg.AgentCount = 3
	cfg.LowConfidenceTracks = []uint64{2}
	ds := GenerateScene(cfg)

	refs, err := EligibleAgents(ds, 0, 0.5)
	require.NoError(t, err)
	require.Len(t, refs, 8)
	assert.Equal(t, AgentRef{FrameIndex: 0, TrackID: 1}, refs[0])
	assert.Equal(t, AgentRef{FrameIndex: 0, TrackID: 3}, refs[1])
	for _, r := range refs {
		assert.NotEqual(t, uint64(2), r.TrackID)
	}

	_, err = EligibleAgents(ds, 3, 0.5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestGenerateScene_LowConfidenceFrames(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticScene()
	cfg.FrameCount = 6
	cfg.AgentCount = 3
	cfg.LowConfidenceFrames = map[uint64][]int{2: {1, 4}}
	ds := GenerateScene(cfg)

	for i, f := range ds.FrameRows {
		agents, err := FrameAgents(ds, f)
		require.NoError(t, err)
		require.Len(t, agents, 3)
		for _, a := range agents {
			want := !(a.TrackID == 2 && (i == 1 || i == 4))
			assert.Equal(t, want, a.IsOfInterest(0.5), "frame %d track %d", i, a.TrackID)
		}
	}
}
