package visualization

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/banshee-data/l5sampler/internal/geometry"
	"github.com/banshee-data/l5sampler/internal/sampling"
)

// ErrNoImage is returned when a sample carries no raster to draw on.
var ErrNoImage = errors.New("visualization: sample has no image")

// SampleOverlay renders s's raster as grayscale (the brightest channel
// per pixel) and draws its history as reference dots and its future
// as target arrows. Unavailable steps are skipped.
func SampleOverlay(s *sampling.Sample, cfg DrawConfig) (*image.RGBA, error) {
	if s.Image == nil || s.Image.Width <= 0 || s.Image.Height <= 0 {
		return nil, ErrNoImage
	}
	img := image.NewRGBA(image.Rect(0, 0, s.Image.Width, s.Image.Height))
	for y := 0; y < s.Image.Height; y++ {
		for x := 0; x < s.Image.Width; x++ {
			var v float32
			for c := 0; c < s.Image.Channels; c++ {
				v = max(v, s.Image.At(x, y, c))
			}
			g := uint8(min(max(v, 0), 1) * 255)
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}

	toWorld := geometry.Compose(
		geometry.Translation2D(s.Centroid[0], s.Centroid[1]),
		geometry.RotationZ(s.Yaw),
	)

	history := availablePoints(s.HistoryPositions, s.HistoryAvailabilities)
	DrawReferenceTrajectory(img, s.WorldToImage, geometry.TransformPoints(history, toWorld), cfg)

	toImage := geometry.Compose(geometry.FromArray(s.WorldToImage), toWorld)
	var (
		pixels [][2]float64
		yaws   []float64
	)
	for i, p := range s.TargetPositions {
		if !s.TargetAvailabilities[i] {
			continue
		}
		pixels = append(pixels, geometry.TransformPoint(p, toImage))
		yaws = append(yaws, s.TargetYaws[i][0])
	}
	if err := DrawTrajectory(img, pixels, yaws, cfg.TargetColor, cfg); err != nil {
		return nil, err
	}
	return img, nil
}

// WriteOverlayPNG encodes SampleOverlay(s, cfg) as PNG.
func WriteOverlayPNG(w io.Writer, s *sampling.Sample, cfg DrawConfig) error {
	img, err := SampleOverlay(s, cfg)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func availablePoints(pos [][2]float64, avail []bool) [][2]float64 {
	out := make([][2]float64, 0, len(pos))
	for i, p := range pos {
		if avail[i] {
			out = append(out, p)
		}
	}
	return out
}
