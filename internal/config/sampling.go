package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/l5sampler/internal/raster"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical sampling defaults file.
const DefaultConfigPath = "config/sampling.defaults.yaml"

// SamplingConfig is the root configuration. The schema mirrors the
// raster_params / model_params layout of training configs so the same
// file can drive both.
type SamplingConfig struct {
	RasterParams *RasterParams `json:"raster_params,omitempty" yaml:"raster_params,omitempty"`
	ModelParams  *ModelParams  `json:"model_params,omitempty" yaml:"model_params,omitempty"`
}

// RasterParams configures the rasterizer.
type RasterParams struct {
	RasterSize            *[2]int     `json:"raster_size,omitempty" yaml:"raster_size,omitempty"`
	PixelSize             *[2]float64 `json:"pixel_size,omitempty" yaml:"pixel_size,omitempty"`
	EgoCenter             *[2]float64 `json:"ego_center,omitempty" yaml:"ego_center,omitempty"`
	FilterAgentsThreshold *float64    `json:"filter_agents_threshold,omitempty" yaml:"filter_agents_threshold,omitempty"`
}

// ModelParams configures the history and future windows.
type ModelParams struct {
	HistoryNumFrames *int `json:"history_num_frames,omitempty" yaml:"history_num_frames,omitempty"`
	HistoryStepSize  *int `json:"history_step_size,omitempty" yaml:"history_step_size,omitempty"`
	FutureNumFrames  *int `json:"future_num_frames,omitempty" yaml:"future_num_frames,omitempty"`
	FutureStepSize   *int `json:"future_step_size,omitempty" yaml:"future_step_size,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySamplingConfig returns a SamplingConfig with every field nil.
func EmptySamplingConfig() *SamplingConfig {
	return &SamplingConfig{}
}

// LoadSamplingConfig loads a SamplingConfig from a .json, .yaml or .yml
// file of at most 1MB. Omitted fields keep their defaults, so partial
// configs are safe.
func LoadSamplingConfig(path string) (*SamplingConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySamplingConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF; treat it as all defaults.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current
// directory or a parent. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *SamplingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadSamplingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable. Unset fields
// are not checked; their defaults are valid.
func (c *SamplingConfig) Validate() error {
	if rp := c.RasterParams; rp != nil {
		if rp.RasterSize != nil && (rp.RasterSize[0] <= 0 || rp.RasterSize[1] <= 0) {
			return fmt.Errorf("raster_size must be positive, got %v", *rp.RasterSize)
		}
		if rp.PixelSize != nil && (rp.PixelSize[0] <= 0 || rp.PixelSize[1] <= 0) {
			return fmt.Errorf("pixel_size must be positive, got %v", *rp.PixelSize)
		}
		if rp.EgoCenter != nil {
			for _, v := range rp.EgoCenter {
				if v < 0 || v > 1 {
					return fmt.Errorf("ego_center must be within [0, 1], got %v", *rp.EgoCenter)
				}
			}
		}
		if rp.FilterAgentsThreshold != nil && (*rp.FilterAgentsThreshold < 0 || *rp.FilterAgentsThreshold > 1) {
			return fmt.Errorf("filter_agents_threshold must be between 0 and 1, got %f", *rp.FilterAgentsThreshold)
		}
	}

	if mp := c.ModelParams; mp != nil {
		if mp.HistoryNumFrames != nil && *mp.HistoryNumFrames < 0 {
			return fmt.Errorf("history_num_frames must be non-negative, got %d", *mp.HistoryNumFrames)
		}
		if mp.FutureNumFrames != nil && *mp.FutureNumFrames < 0 {
			return fmt.Errorf("future_num_frames must be non-negative, got %d", *mp.FutureNumFrames)
		}
		if mp.HistoryStepSize != nil && *mp.HistoryStepSize <= 0 {
			return fmt.Errorf("history_step_size must be positive, got %d", *mp.HistoryStepSize)
		}
		if mp.FutureStepSize != nil && *mp.FutureStepSize <= 0 {
			return fmt.Errorf("future_step_size must be positive, got %d", *mp.FutureStepSize)
		}
	}
	return nil
}

func (c *SamplingConfig) raster() RasterParams {
	if c.RasterParams == nil {
		return RasterParams{}
	}
	return *c.RasterParams
}

func (c *SamplingConfig) model() ModelParams {
	if c.ModelParams == nil {
		return ModelParams{}
	}
	return *c.ModelParams
}

// GetRasterSize returns raster_size (width, height) or the default.
func (c *SamplingConfig) GetRasterSize() [2]int {
	if v := c.raster().RasterSize; v != nil {
		return *v
	}
	return [2]int{224, 224}
}

// GetPixelSize returns pixel_size in metres per pixel or the default.
func (c *SamplingConfig) GetPixelSize() [2]float64 {
	if v := c.raster().PixelSize; v != nil {
		return *v
	}
	return [2]float64{0.5, 0.5}
}

// GetEgoCenter returns ego_center or the default.
func (c *SamplingConfig) GetEgoCenter() [2]float64 {
	if v := c.raster().EgoCenter; v != nil {
		return *v
	}
	return [2]float64{0.25, 0.5}
}

// GetFilterAgentsThreshold returns filter_agents_threshold or the default.
func (c *SamplingConfig) GetFilterAgentsThreshold() float64 {
	if v := c.raster().FilterAgentsThreshold; v != nil {
		return *v
	}
	return 0.5
}

// GetHistoryNumFrames returns history_num_frames or the default.
func (c *SamplingConfig) GetHistoryNumFrames() int {
	if v := c.model().HistoryNumFrames; v != nil {
		return *v
	}
	return 10
}

// GetHistoryStepSize returns history_step_size or the default.
func (c *SamplingConfig) GetHistoryStepSize() int {
	if v := c.model().HistoryStepSize; v != nil {
		return *v
	}
	return 1
}

// GetFutureNumFrames returns future_num_frames or the default.
func (c *SamplingConfig) GetFutureNumFrames() int {
	if v := c.model().FutureNumFrames; v != nil {
		return *v
	}
	return 50
}

// GetFutureStepSize returns future_step_size or the default.
func (c *SamplingConfig) GetFutureStepSize() int {
	if v := c.model().FutureStepSize; v != nil {
		return *v
	}
	return 1
}

// SetHistory overrides the history window.
func (c *SamplingConfig) SetHistory(numFrames, stepSize int) {
	if c.ModelParams == nil {
		c.ModelParams = &ModelParams{}
	}
	c.ModelParams.HistoryNumFrames = ptrInt(numFrames)
	c.ModelParams.HistoryStepSize = ptrInt(stepSize)
}

// SetFuture overrides the future window.
func (c *SamplingConfig) SetFuture(numFrames, stepSize int) {
	if c.ModelParams == nil {
		c.ModelParams = &ModelParams{}
	}
	c.ModelParams.FutureNumFrames = ptrInt(numFrames)
	c.ModelParams.FutureStepSize = ptrInt(stepSize)
}

// SetFilterAgentsThreshold overrides the confidence threshold.
func (c *SamplingConfig) SetFilterAgentsThreshold(v float64) {
	if c.RasterParams == nil {
		c.RasterParams = &RasterParams{}
	}
	c.RasterParams.FilterAgentsThreshold = ptrFloat64(v)
}

// BuilderConfig converts the resolved values to a sampling.Config.
func (c *SamplingConfig) BuilderConfig() sampling.Config {
	return sampling.Config{
		HistoryNumFrames:      c.GetHistoryNumFrames(),
		HistoryStepSize:       c.GetHistoryStepSize(),
		FutureNumFrames:       c.GetFutureNumFrames(),
		FutureStepSize:        c.GetFutureStepSize(),
		FilterAgentsThreshold: c.GetFilterAgentsThreshold(),
	}
}

// RasterConfig converts the resolved values to raster.Params.
func (c *SamplingConfig) RasterConfig() raster.Params {
	return raster.Params{
		RasterSize:            c.GetRasterSize(),
		PixelSize:             c.GetPixelSize(),
		EgoCenter:             c.GetEgoCenter(),
		FilterAgentsThreshold: c.GetFilterAgentsThreshold(),
	}
}
