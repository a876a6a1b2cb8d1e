package visualization

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/l5sampler/internal/fsutil"
	"github.com/banshee-data/l5sampler/internal/sampling"
)

// ArtifactName is the file stem used for a sample's outputs.
func ArtifactName(s *sampling.Sample) string {
	target := "ego"
	if id, ok := s.Target.TrackID(); ok {
		target = fmt.Sprintf("track%d", id)
	}
	return fmt.Sprintf("scene%03d_frame%05d_%s", s.SceneIndex, s.CenterIndex, target)
}

// WriteArtifacts writes the plot, overlay and chart of s into dir on
// fsys and returns the paths written. The overlay is skipped when the
// sample carries no image.
func WriteArtifacts(fsys fsutil.FileSystem, dir string, s *sampling.Sample, cfg DrawConfig) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	stem := filepath.Join(dir, ArtifactName(s))

	var paths []string
	plotPath := stem + "_plot.png"
	if err := writeFile(fsys, plotPath, func(w io.Writer) error { return WriteSamplePlot(w, s, "png") }); err != nil {
		return nil, err
	}
	paths = append(paths, plotPath)

	if s.Image != nil {
		overlayPath := stem + "_overlay.png"
		if err := writeFile(fsys, overlayPath, func(w io.Writer) error { return WriteOverlayPNG(w, s, cfg) }); err != nil {
			return paths, err
		}
		paths = append(paths, overlayPath)
	}

	chartPath := stem + ".html"
	if err := writeFile(fsys, chartPath, func(w io.Writer) error { return RenderSampleChart(w, s) }); err != nil {
		return paths, err
	}
	return append(paths, chartPath), nil
}

func writeFile(fsys fsutil.FileSystem, path string, fill func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
