package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/banshee-data/l5sampler/internal/geometry"
)

// DrawConfig holds the colors and pixel sizes used by the drawing
// routines.
type DrawConfig struct {
	PredictedColor  color.RGBA
	TargetColor     color.RGBA
	ReferenceColor  color.RGBA
	ArrowLength     float64 // pixels
	ArrowThickness  int     // pixels
	TipLength       float64 // fraction of the arrow length
	ReferenceRadius int     // pixels
}

// DefaultDrawConfig returns the standard palette: cyan predictions,
// magenta targets, yellow reference points, 2px arrows.
func DefaultDrawConfig() DrawConfig {
	return DrawConfig{
		PredictedColor:  color.RGBA{R: 0, G: 255, B: 255, A: 255},
		TargetColor:     color.RGBA{R: 255, G: 0, B: 255, A: 255},
		ReferenceColor:  color.RGBA{R: 255, G: 255, B: 0, A: 255},
		ArrowLength:     2,
		ArrowThickness:  1,
		TipLength:       0.4,
		ReferenceRadius: 1,
	}
}

// DrawArrowedLine draws one arrow starting at position (pixels) and
// pointing along yaw. Image y grows downward, so a positive yaw points
// up. Pixels outside img are dropped.
func DrawArrowedLine(img *image.RGBA, position [2]float64, yaw float64, c color.RGBA, cfg DrawConfig) {
	start := image.Pt(int(position[0]), int(position[1]))
	end := image.Pt(
		int(position[0]+math.Cos(yaw)*cfg.ArrowLength),
		int(position[1]-math.Sin(yaw)*cfg.ArrowLength),
	)
	drawLine(img, start, end, c, cfg.ArrowThickness)

	if start == end {
		return
	}
	dx, dy := float64(start.X-end.X), float64(start.Y-end.Y)
	tip := math.Hypot(dx, dy) * cfg.TipLength
	angle := math.Atan2(dy, dx)
	for _, side := range []float64{math.Pi / 4, -math.Pi / 4} {
		p := image.Pt(
			int(math.Round(float64(end.X)+tip*math.Cos(angle+side))),
			int(math.Round(float64(end.Y)+tip*math.Sin(angle+side))),
		)
		drawLine(img, end, p, c, cfg.ArrowThickness)
	}
}

// DrawTrajectory draws an arrow per waypoint. positions are pixel
// coordinates, not displacements.
func DrawTrajectory(img *image.RGBA, positions [][2]float64, yaws []float64, c color.RGBA, cfg DrawConfig) error {
	if len(positions) != len(yaws) {
		return fmt.Errorf("trajectory has %d positions and %d yaws", len(positions), len(yaws))
	}
	for i, p := range positions {
		DrawArrowedLine(img, p, yaws[i], c, cfg)
	}
	return nil
}

// DrawReferenceTrajectory projects world positions through worldToPixel
// and draws a dot for each one that lands strictly inside img. It
// returns the number of dots drawn.
func DrawReferenceTrajectory(img *image.RGBA, worldToPixel [3][3]float64, positions [][2]float64, cfg DrawConfig) int {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	drawn := 0
	for _, p := range geometry.TransformPoints(positions, geometry.FromArray(worldToPixel)) {
		if p[0] <= 0 || p[1] <= 0 || p[0] >= w || p[1] >= h {
			continue
		}
		center := image.Pt(b.Min.X+int(math.Floor(p[0])), b.Min.Y+int(math.Floor(p[1])))
		fillCircle(img, center, cfg.ReferenceRadius, cfg.ReferenceColor)
		drawn++
	}
	return drawn
}

// drawLine is Bresenham with a square brush of side thickness.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		stamp(img, x, y, c, thickness)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func stamp(img *image.RGBA, x, y int, c color.RGBA, size int) {
	off := (size - 1) / 2
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			p := image.Pt(x-off+i, y-off+j)
			if p.In(img.Rect) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func fillCircle(img *image.RGBA, center image.Point, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			p := center.Add(image.Pt(dx, dy))
			if p.In(img.Rect) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
