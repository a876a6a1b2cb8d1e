package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/l5sampler/internal/raster"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptySamplingConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptySamplingConfig()
	assert.Equal(t, [2]int{224, 224}, cfg.GetRasterSize())
	assert.Equal(t, [2]float64{0.5, 0.5}, cfg.GetPixelSize())
	assert.Equal(t, [2]float64{0.25, 0.5}, cfg.GetEgoCenter())
	assert.Equal(t, 0.5, cfg.GetFilterAgentsThreshold())
	assert.Equal(t, 10, cfg.GetHistoryNumFrames())
	assert.Equal(t, 1, cfg.GetHistoryStepSize())
	assert.Equal(t, 50, cfg.GetFutureNumFrames())
	assert.Equal(t, 1, cfg.GetFutureStepSize())
	assert.NoError(t, cfg.Validate())
}

func TestMustLoadDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := MustLoadDefaultConfig()
	require.NotNil(t, cfg.RasterParams)
	require.NotNil(t, cfg.ModelParams)

	// The defaults file and the Get* fallbacks agree.
	empty := EmptySamplingConfig()
	assert.Equal(t, empty.BuilderConfig(), cfg.BuilderConfig())
	assert.Equal(t, empty.RasterConfig(), cfg.RasterConfig())
}

func TestLoadSamplingConfigYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cfg.yaml", `
raster_params:
  raster_size: [300, 200]
  filter_agents_threshold: 0.8
model_params:
  history_num_frames: 0
  future_num_frames: 12
  future_step_size: 4
`)
	cfg, err := LoadSamplingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, raster.Params{
		RasterSize:            [2]int{300, 200},
		PixelSize:             [2]float64{0.5, 0.5},
		EgoCenter:             [2]float64{0.25, 0.5},
		FilterAgentsThreshold: 0.8,
	}, cfg.RasterConfig())
	assert.Equal(t, sampling.Config{
		HistoryNumFrames:      0,
		HistoryStepSize:       1,
		FutureNumFrames:       12,
		FutureStepSize:        4,
		FilterAgentsThreshold: 0.8,
	}, cfg.BuilderConfig())
}

func TestLoadSamplingConfigJSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cfg.json", `{
  "raster_params": {"pixel_size": [0.25, 0.25], "ego_center": [0.5, 0.5]},
  "model_params": {"history_num_frames": 3, "history_step_size": 2}
}`)
	cfg, err := LoadSamplingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.25, 0.25}, cfg.GetPixelSize())
	assert.Equal(t, [2]float64{0.5, 0.5}, cfg.GetEgoCenter())
	assert.Equal(t, 3, cfg.GetHistoryNumFrames())
	assert.Equal(t, 2, cfg.GetHistoryStepSize())
	assert.Equal(t, 50, cfg.GetFutureNumFrames())
}

func TestLoadSamplingConfigEmptyYAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadSamplingConfig(writeConfig(t, "empty.yml", "# nothing set\n"))
	require.NoError(t, err)
	assert.Equal(t, EmptySamplingConfig().BuilderConfig(), cfg.BuilderConfig())
}

func TestLoadSamplingConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		body string
	}{
		{"bad extension", "cfg.toml", "x = 1"},
		{"invalid json", "cfg.json", `{"model_params": {"history_num_frames": "ten"`},
		{"unknown yaml key", "cfg.yaml", "model_params:\n  history_frames: 3\n"},
		{"unknown json key", "cfg.json", `{"model_params": {"history_frames": 3}}`},
		{"unknown json section", "cfg.json", `{"train_params": {}}`},
		{"empty json", "cfg.json", ""},
		{"negative count", "cfg.yaml", "model_params:\n  future_num_frames: -1\n"},
		{"zero step", "cfg.json", `{"model_params": {"history_step_size": 0}}`},
		{"zero raster", "cfg.yaml", "raster_params:\n  raster_size: [0, 224]\n"},
		{"negative pixel", "cfg.yaml", "raster_params:\n  pixel_size: [-1, 0.5]\n"},
		{"ego centre outside raster", "cfg.yaml", "raster_params:\n  ego_center: [1.5, 0.5]\n"},
		{"threshold above one", "cfg.json", `{"raster_params": {"filter_agents_threshold": 1.2}}`},
		{"short array", "cfg.yaml", "raster_params:\n  raster_size: [224]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSamplingConfig(writeConfig(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadSamplingConfig("/nonexistent/path/to/config.yaml")
	assert.Error(t, err)
}

func TestLoadSamplingConfigTooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	require.NoError(t, os.WriteFile(path, big, 0644))

	_, err := LoadSamplingConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestSetters(t *testing.T) {
	t.Parallel()

	cfg := EmptySamplingConfig()
	cfg.SetHistory(4, 2)
	cfg.SetFuture(8, 3)
	cfg.SetFilterAgentsThreshold(0.9)

	assert.Equal(t, sampling.Config{
		HistoryNumFrames:      4,
		HistoryStepSize:       2,
		FutureNumFrames:       8,
		FutureStepSize:        3,
		FilterAgentsThreshold: 0.9,
	}, cfg.BuilderConfig())
	assert.Equal(t, 0.9, cfg.RasterConfig().FilterAgentsThreshold)
}
