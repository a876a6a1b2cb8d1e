package raster

import (
	"fmt"

	"github.com/banshee-data/l5sampler/internal/geometry"
)

// Stub returns an all-zero image with one agents channel and one ego
// channel per history slot, padded slots included. The transform is exact, so it can stand in
// for a real rasterizer wherever only coordinates matter.
type Stub struct {
	Params Params
}

// NewStub validates params and returns a Stub rasterizer.
func NewStub(p Params) (*Stub, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Stub{Params: p}, nil
}

// Rasterize implements Rasterizer.
func (s *Stub) Rasterize(req Request) (*Result, error) {
	if len(req.HistoryFrames) != len(req.HistoryAgents) {
		return nil, fmt.Errorf("raster: %d history frames but %d agent slices", len(req.HistoryFrames), len(req.HistoryAgents))
	}
	if req.HistoryInRange != nil && len(req.HistoryInRange) != len(req.HistoryFrames) {
		return nil, fmt.Errorf("raster: %d history frames but %d range flags", len(req.HistoryFrames), len(req.HistoryInRange))
	}

	worldToImage := WorldToImage(s.Params, req.Anchor)
	channels := 2 * len(req.HistoryFrames)
	if channels == 0 {
		channels = 2
	}

	return &Result{
		Image:        NewImage(s.Params.RasterSize[0], s.Params.RasterSize[1], channels),
		WorldToImage: worldToImage,
	}, nil
}

// WorldToImage returns the world-to-pixel transform for an image
// anchored at pose.
func WorldToImage(p Params, pose Pose) [3][3]float64 {
	m := geometry.WorldToImagePixels(p.RasterSize, p.PixelSize, pose.Centroid, pose.Yaw, p.EgoCenter)
	return geometry.ToArray(m)
}
