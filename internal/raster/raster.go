// Package raster defines the rasterization adapter consumed by the
// sampler: the request it receives, the image it returns, and a stub
// implementation that produces an empty image with a correct
// world-to-image transform.
package raster

import (
	"errors"
	"fmt"

	"github.com/banshee-data/l5sampler/internal/dataset"
)

// ErrInvalidParams is returned for non-positive raster dimensions.
var ErrInvalidParams = errors.New("raster: invalid parameters")

// Params is passed through from configuration to the rasterizer
// unmodified.
type Params struct {
	RasterSize            [2]int     // width, height in pixels
	PixelSize             [2]float64 // metres per pixel
	EgoCenter             [2]float64 // anchor position as a fraction of RasterSize
	FilterAgentsThreshold float64
}

// Validate checks that the raster geometry is usable.
func (p Params) Validate() error {
	if p.RasterSize[0] <= 0 || p.RasterSize[1] <= 0 {
		return fmt.Errorf("raster_size %v: %w", p.RasterSize, ErrInvalidParams)
	}
	if p.PixelSize[0] <= 0 || p.PixelSize[1] <= 0 {
		return fmt.Errorf("pixel_size %v: %w", p.PixelSize, ErrInvalidParams)
	}
	return nil
}

// Pose is a position and heading in world coordinates.
type Pose struct {
	Centroid [2]float64
	Yaw      float64
}

// Request carries the raw, non-relativized history window to render.
type Request struct {
	// HistoryFrames holds one slot per history step, newest first;
	// index 0 is the centre frame. Slots before the scene start are
	// zero frames and are marked false in HistoryInRange.
	HistoryFrames []dataset.Frame
	// HistoryAgents[i] is the unfiltered agent slice of HistoryFrames[i],
	// nil for padded slots.
	HistoryAgents [][]dataset.Agent
	// HistoryInRange[i] reports whether HistoryFrames[i] is a real frame.
	// A nil slice means every slot is in range.
	HistoryInRange []bool
	Target         dataset.Target
	// Anchor is the sampled entity's pose at the centre frame.
	Anchor Pose
	// SelectedAgent is the centre-frame record of an agent target; nil
	// for the ego.
	SelectedAgent *dataset.Agent
}

// Result is the rendered raster and the transform that produced it.
type Result struct {
	Image        *Image
	WorldToImage [3][3]float64
}

// Rasterizer renders a history window. Implementations must not modify
// the request slices and must be safe for concurrent use.
type Rasterizer interface {
	Rasterize(req Request) (*Result, error)
}

// Image is a float32 raster in height × width × channels order.
type Image struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Channels int       `json:"channels"`
	Pix      []float32 `json:"-"`
}

// NewImage allocates a zeroed image.
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Offset returns the index of (x, y, c) in Pix.
func (im *Image) Offset(x, y, c int) int {
	return (y*im.Width+x)*im.Channels + c
}

// At returns the value at (x, y, c).
func (im *Image) At(x, y, c int) float32 {
	return im.Pix[im.Offset(x, y, c)]
}

// Set writes the value at (x, y, c).
func (im *Image) Set(x, y, c int, v float32) {
	im.Pix[im.Offset(x, y, c)] = v
}

// Shape returns (height, width, channels).
func (im *Image) Shape() [3]int {
	return [3]int{im.Height, im.Width, im.Channels}
}
