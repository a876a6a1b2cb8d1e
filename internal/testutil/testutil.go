// Package testutil provides shared test fixtures and assertions.
//
// The fixtures here are the synthetic single-scene dataset and raster
// parameters that the sampling, storage and visualization tests share.
package testutil

import (
	"testing"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/raster"
)

// SingleSceneFrames is the frame count of SingleScene.
const SingleSceneFrames = 200

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SingleSceneConfig is the generator configuration behind SingleScene.
func SingleSceneConfig() dataset.SyntheticScene {
	cfg := dataset.DefaultSyntheticScene()
	cfg.FrameCount = SingleSceneFrames
	return cfg
}

// SingleScene returns a fresh one-scene dataset with gap-free tracks.
func SingleScene() *dataset.Tables {
	return dataset.GenerateScene(SingleSceneConfig())
}

// OccludedScene returns a one-scene dataset where every track drops out
// periodically and track 2 is below the 0.5 confidence threshold.
func OccludedScene() *dataset.Tables {
	cfg := SingleSceneConfig()
	cfg.OcclusionEvery = 4
	cfg.LowConfidenceTracks = []uint64{2}
	return dataset.GenerateScene(cfg)
}

// RasterParams mirrors the default raster configuration.
func RasterParams() raster.Params {
	return raster.Params{
		RasterSize:            [2]int{224, 224},
		PixelSize:             [2]float64{0.5, 0.5},
		EgoCenter:             [2]float64{0.25, 0.5},
		FilterAgentsThreshold: 0.5,
	}
}

// StubRasterizer returns a raster.Stub over RasterParams.
func StubRasterizer(t *testing.T) *raster.Stub {
	t.Helper()
	r, err := raster.NewStub(RasterParams())
	AssertNoError(t, err)
	return r
}
