package sampling

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/monitoring"
	"golang.org/x/sync/errgroup"
)

// Runner builds many samples in parallel. Each Build call is
// independent, so work is split across centre indices, never within
// one sample.
type Runner struct {
	Builder *Builder
	// Workers bounds concurrent Build calls; <= 0 uses GOMAXPROCS.
	Workers int
}

// NewRunner returns a Runner over b.
func NewRunner(b *Builder, workers int) *Runner {
	return &Runner{Builder: b, Workers: workers}
}

// job is one (centre, target) request; results keep job order.
type job struct {
	center int
	target dataset.Target
}

// SampleScene builds one sample per frame of scene sceneIdx for target.
// Frames where an agent target cannot be anchored are skipped.
func (r *Runner) SampleScene(ctx context.Context, acc dataset.Accessor, sceneIdx int, target dataset.Target) ([]*Sample, error) {
	scene, err := acc.Scene(sceneIdx)
	if err != nil {
		return nil, err
	}
	jobs := make([]job, scene.FrameIndexInterval.Len())
	for i := range jobs {
		jobs[i] = job{center: i, target: target}
	}
	return r.run(ctx, acc, sceneIdx, jobs)
}

// SampleAgents builds one sample for every agent record of scene
// sceneIdx that passes the builder's confidence filter.
func (r *Runner) SampleAgents(ctx context.Context, acc dataset.Accessor, sceneIdx int) ([]*Sample, error) {
	refs, err := dataset.EligibleAgents(acc, sceneIdx, r.Builder.cfg.FilterAgentsThreshold)
	if err != nil {
		return nil, err
	}
	jobs := make([]job, len(refs))
	for i, ref := range refs {
		jobs[i] = job{center: ref.FrameIndex, target: dataset.AgentTarget(ref.TrackID)}
	}
	return r.run(ctx, acc, sceneIdx, jobs)
}

func (r *Runner) run(ctx context.Context, acc dataset.Accessor, sceneIdx int, jobs []job) ([]*Sample, error) {
	_, frames, err := dataset.SceneFrames(acc, sceneIdx)
	if err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Sample, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			s, err := r.Builder.Build(frames, acc, j.center, j.target)
			if errors.Is(err, ErrAnchorNotFound) {
				monitoring.SamplesSkipped.WithLabelValues(skipReason(err)).Inc()
				monitoring.Debugf("scene %d frame %d: skipping %s: %v", sceneIdx, j.center, j.target, err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("scene %d frame %d %s: %w", sceneIdx, j.center, j.target, err)
			}
			monitoring.BuildSeconds.Observe(time.Since(start).Seconds())
			monitoring.SamplesBuilt.WithLabelValues(targetKind(j.target)).Inc()
			s.SceneIndex = sceneIdx
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*Sample, 0, len(results))
	for _, s := range results {
		if s != nil {
			out = append(out, s)
		}
	}
	monitoring.Logf("scene %d: built %d samples from %d requests (%d skipped)", sceneIdx, len(out), len(jobs), len(jobs)-len(out))
	return out, nil
}

func skipReason(err error) string {
	if errors.Is(err, ErrAnchorFiltered) {
		return "filtered"
	}
	return "not_found"
}

func targetKind(t dataset.Target) string {
	if t.IsEgo() {
		return "ego"
	}
	return "agent"
}
