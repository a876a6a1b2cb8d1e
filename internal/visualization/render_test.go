package visualization

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/fsutil"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"github.com/banshee-data/l5sampler/internal/testutil"
)

func buildSample(t *testing.T, target dataset.Target) *sampling.Sample {
	t.Helper()
	b, err := sampling.NewBuilder(sampling.Config{
		HistoryNumFrames: 3, HistoryStepSize: 1,
		FutureNumFrames: 5, FutureStepSize: 1,
		FilterAgentsThreshold: 0.5,
	}, testutil.StubRasterizer(t))
	require.NoError(t, err)
	s, err := b.SampleScene(testutil.SingleScene(), 0, 60, target)
	require.NoError(t, err)
	return s
}

func TestSampleOverlay(t *testing.T) {
	t.Parallel()

	cfg := DefaultDrawConfig()
	s := buildSample(t, dataset.EgoTarget())

	img, err := SampleOverlay(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, 224, img.Bounds().Dx())
	assert.Equal(t, 224, img.Bounds().Dy())
	assert.Positive(t, countColor(img, cfg.TargetColor))
	assert.Positive(t, countColor(img, cfg.ReferenceColor))

	var buf bytes.Buffer
	require.NoError(t, WriteOverlayPNG(&buf, s, cfg))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	s.Image = nil
	_, err = SampleOverlay(s, cfg)
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestPlotSample(t *testing.T) {
	t.Parallel()

	s := buildSample(t, dataset.AgentTarget(2))
	path := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, PlotSample(s, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestNewSamplePlot_NoAvailableSteps(t *testing.T) {
	t.Parallel()

	s := buildSample(t, dataset.EgoTarget())
	for i := range s.HistoryAvailabilities {
		s.HistoryAvailabilities[i] = false
	}
	for i := range s.TargetAvailabilities {
		s.TargetAvailabilities[i] = false
	}
	p, err := NewSamplePlot(s)
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "frame 60")
}

func TestRenderSampleChart(t *testing.T) {
	t.Parallel()

	s := buildSample(t, dataset.EgoTarget())
	var buf bytes.Buffer
	require.NoError(t, RenderSampleChart(&buf, s))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "history")
	assert.Contains(t, html, "target")
	assert.Contains(t, html, "Scene 0 frame 60")
}

func TestWriteSamplePlot(t *testing.T) {
	t.Parallel()

	s := buildSample(t, dataset.EgoTarget())
	var buf bytes.Buffer
	require.NoError(t, WriteSamplePlot(&buf, s, "png"))
	_, err := png.Decode(&buf)
	assert.NoError(t, err)

	assert.Error(t, WriteSamplePlot(&bytes.Buffer{}, s, "bogus"))
}

func TestWriteArtifacts(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	s := buildSample(t, dataset.AgentTarget(4))

	paths, err := WriteArtifacts(fsutil.OSFileSystem{}, dir, s, DefaultDrawConfig())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		assert.True(t, strings.HasPrefix(filepath.Base(p), "scene000_frame00060_track4"), p)
	}
}

func TestWriteArtifacts_Memory(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	s := buildSample(t, dataset.EgoTarget())
	s.Image = nil

	paths, err := WriteArtifacts(mfs, "/plots", s, DefaultDrawConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/plots/scene000_frame00060_ego_plot.png",
		"/plots/scene000_frame00060_ego.html",
	}, paths)
	assert.Equal(t, []string{
		"/plots/scene000_frame00060_ego.html",
		"/plots/scene000_frame00060_ego_plot.png",
	}, mfs.Files())

	html, err := mfs.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}
