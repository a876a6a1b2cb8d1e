package raster

import (
	"errors"
	"testing"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		RasterSize:            [2]int{224, 112},
		PixelSize:             [2]float64{0.5, 0.5},
		EgoCenter:             [2]float64{0.25, 0.5},
		FilterAgentsThreshold: 0.5,
	}
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testParams().Validate())

	p := testParams()
	p.RasterSize[1] = 0
	assert.True(t, errors.Is(p.Validate(), ErrInvalidParams))

	p = testParams()
	p.PixelSize[0] = -1
	assert.True(t, errors.Is(p.Validate(), ErrInvalidParams))

	_, err := NewStub(p)
	assert.Error(t, err)
}

func TestStubRasterize(t *testing.T) {
	t.Parallel()

	stub, err := NewStub(testParams())
	require.NoError(t, err)

	frames := []dataset.Frame{{Timestamp: 2}, {Timestamp: 1}, {Timestamp: 0}}
	agents := make([][]dataset.Agent, len(frames))
	anchor := Pose{Centroid: [2]float64{10, 20}, Yaw: 0.3}

	res, err := stub.Rasterize(Request{
		HistoryFrames: frames,
		HistoryAgents: agents,
		Target:        dataset.EgoTarget(),
		Anchor:        anchor,
	})
	require.NoError(t, err)

	assert.Equal(t, [3]int{112, 224, 6}, res.Image.Shape())
	for _, v := range res.Image.Pix {
		require.Zero(t, v)
	}

	px := geometry.TransformPoint(anchor.Centroid, geometry.FromArray(res.WorldToImage))
	assert.InDelta(t, 56.0, px[0], 1e-9)
	assert.InDelta(t, 56.0, px[1], 1e-9)
}

func TestStubRasterize_MismatchedAgents(t *testing.T) {
	t.Parallel()

	stub, err := NewStub(testParams())
	require.NoError(t, err)

	_, err = stub.Rasterize(Request{HistoryFrames: make([]dataset.Frame, 2), HistoryAgents: make([][]dataset.Agent, 1)})
	assert.Error(t, err)

	_, err = stub.Rasterize(Request{
		HistoryFrames:  make([]dataset.Frame, 2),
		HistoryAgents:  make([][]dataset.Agent, 2),
		HistoryInRange: []bool{true},
	})
	assert.Error(t, err)
}

func TestStubRasterize_PaddedSlots(t *testing.T) {
	t.Parallel()

	stub, err := NewStub(testParams())
	require.NoError(t, err)

	// Centre at the first frame of a scene with four history steps.
	res, err := stub.Rasterize(Request{
		HistoryFrames:  []dataset.Frame{{Timestamp: 7}, {}, {}, {}, {}},
		HistoryAgents:  make([][]dataset.Agent, 5),
		HistoryInRange: []bool{true, false, false, false, false},
		Target:         dataset.EgoTarget(),
	})
	require.NoError(t, err)
	assert.Equal(t, [3]int{112, 224, 10}, res.Image.Shape())
}

func TestImageIndexing(t *testing.T) {
	t.Parallel()

	im := NewImage(4, 3, 2)
	assert.Len(t, im.Pix, 24)
	im.Set(3, 2, 1, 0.5)
	assert.Equal(t, float32(0.5), im.At(3, 2, 1))
	assert.Equal(t, 23, im.Offset(3, 2, 1))
}
