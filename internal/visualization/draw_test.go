package visualization

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var black = color.RGBA{}

func countColor(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestDefaultDrawConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	assert.Equal(t, color.RGBA{R: 255, B: 255, A: 255}, cfg.TargetColor)
	assert.Equal(t, color.RGBA{G: 255, B: 255, A: 255}, cfg.PredictedColor)
	assert.Equal(t, color.RGBA{R: 255, G: 255, A: 255}, cfg.ReferenceColor)
	assert.Equal(t, 2.0, cfg.ArrowLength)
	assert.Equal(t, 1, cfg.ArrowThickness)
}

func TestDrawArrowedLine(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	cfg.ArrowLength = 5
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	c := cfg.TargetColor

	DrawArrowedLine(img, [2]float64{10.7, 10.2}, 0, c, cfg)

	// Shaft from the truncated start to five pixels right.
	for x := 10; x <= 15; x++ {
		assert.Equal(t, c, img.RGBAAt(x, 10), "x=%d", x)
	}
	// Tip barbs point back from the end at ±45°.
	assert.Equal(t, c, img.RGBAAt(14, 9))
	assert.Equal(t, c, img.RGBAAt(14, 11))
	assert.Equal(t, black, img.RGBAAt(20, 20))
	assert.Equal(t, black, img.RGBAAt(9, 10))
}

func TestDrawArrowedLine_YawUp(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	cfg.ArrowLength = 4
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))

	DrawArrowedLine(img, [2]float64{8, 8}, 1.5707963267948966, cfg.PredictedColor, cfg)

	// Positive yaw points toward smaller y.
	assert.Equal(t, cfg.PredictedColor, img.RGBAAt(8, 4))
	assert.Equal(t, black, img.RGBAAt(8, 12))
}

func TestDrawArrowedLine_Clipped(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	cfg.ArrowThickness = 3
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	require.NotPanics(t, func() {
		DrawArrowedLine(img, [2]float64{-20, -20}, 0.3, cfg.TargetColor, cfg)
		DrawArrowedLine(img, [2]float64{7, 7}, 0.5, cfg.TargetColor, cfg)
	})
	assert.Equal(t, cfg.TargetColor, img.RGBAAt(7, 7))
}

func TestDrawTrajectory(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))

	err := DrawTrajectory(img, [][2]float64{{4, 4}, {20, 20}}, []float64{0, 3.14159}, cfg.TargetColor, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.TargetColor, img.RGBAAt(4, 4))
	assert.Equal(t, cfg.TargetColor, img.RGBAAt(20, 20))

	err = DrawTrajectory(img, [][2]float64{{1, 1}}, nil, cfg.TargetColor, cfg)
	assert.Error(t, err)
}

func TestDrawReferenceTrajectory(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	identity := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	n := DrawReferenceTrajectory(img, identity, [][2]float64{
		{5.5, 5.9}, // inside
		{-3, 4},    // left of the image
		{15.5, 4},  // inside, last column
		{16, 4},    // on the right edge: excluded
		{4, 12.5},  // below
		{0, 3},     // on the left edge: excluded
	}, cfg)
	assert.Equal(t, 2, n)
	assert.Equal(t, cfg.ReferenceColor, img.RGBAAt(5, 5))
	assert.Equal(t, cfg.ReferenceColor, img.RGBAAt(5, 4))
	assert.Equal(t, cfg.ReferenceColor, img.RGBAAt(15, 4))
	assert.Equal(t, black, img.RGBAAt(7, 7))

	// A translation moves every dot.
	img = image.NewRGBA(image.Rect(0, 0, 16, 12))
	shift := [3][3]float64{{1, 0, 2}, {0, 1, 3}, {0, 0, 1}}
	assert.Equal(t, 1, DrawReferenceTrajectory(img, shift, [][2]float64{{1, 1}}, cfg))
	assert.Equal(t, cfg.ReferenceColor, img.RGBAAt(3, 4))
}
