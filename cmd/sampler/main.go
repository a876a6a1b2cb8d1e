// Command sampler builds training samples from a SQLite driving log and
// stores them next to the log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/l5sampler/internal/api"
	"github.com/banshee-data/l5sampler/internal/config"
	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/fsutil"
	"github.com/banshee-data/l5sampler/internal/monitoring"
	"github.com/banshee-data/l5sampler/internal/raster"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"github.com/banshee-data/l5sampler/internal/storage/sqlite"
	"github.com/banshee-data/l5sampler/internal/timeutil"
	"github.com/banshee-data/l5sampler/internal/version"
	"github.com/banshee-data/l5sampler/internal/visualization"
)

var (
	dbPath     = flag.String("db", "dataset.db", "Path to the SQLite dataset")
	configPath = flag.String("config", "", "Sampling config (.yaml, .yml or .json); defaults when empty")
	sceneFlag  = flag.Int("scene", -1, "Scene index to sample (-1 for every scene)")
	targetFlag = flag.String("target", "ego", `What to sample: "ego", "agents" or "track:<id>"`)
	workers    = flag.Int("workers", 0, "Concurrent sample builds (0 for GOMAXPROCS)")
	inMemory   = flag.Bool("in-memory", false, "Load the dataset into memory before sampling")
	plotDir    = flag.String("plot-dir", "", "Write plots, overlays and charts for each scene's first samples here")
	plotLimit  = flag.Int("plot-limit", 5, "Samples per scene to render when -plot-dir is set")
	listen     = flag.String("listen", "", "Serve the sample API and debug SQL console on this address after sampling")
	debug      = flag.Bool("debug", false, "Log skipped samples")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// targetMode is the parsed -target flag.
type targetMode struct {
	agents bool
	target dataset.Target
}

func parseTarget(s string) (targetMode, error) {
	switch {
	case s == "ego":
		return targetMode{target: dataset.EgoTarget()}, nil
	case s == "agents":
		return targetMode{agents: true}, nil
	case strings.HasPrefix(s, "track:"):
		id, err := strconv.ParseUint(strings.TrimPrefix(s, "track:"), 10, 64)
		if err != nil {
			return targetMode{}, fmt.Errorf("invalid track id in %q: %w", s, err)
		}
		return targetMode{target: dataset.AgentTarget(id)}, nil
	default:
		return targetMode{}, fmt.Errorf("unknown target %q", s)
	}
}

func loadConfig(path string) (*config.SamplingConfig, error) {
	if path == "" {
		return config.EmptySamplingConfig(), nil
	}
	return config.LoadSamplingConfig(path)
}

// sceneRange returns the scene indices selected by the -scene flag.
func sceneRange(scene, numScenes int) ([]int, error) {
	if scene >= numScenes {
		return nil, fmt.Errorf("scene %d requested, dataset has %d: %w", scene, numScenes, dataset.ErrIndexOutOfRange)
	}
	if scene >= 0 {
		return []int{scene}, nil
	}
	out := make([]int, numScenes)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

type options struct {
	cfg       *config.SamplingConfig
	scene     int
	mode      targetMode
	workers   int
	inMemory  bool
	plotDir   string
	plotLimit int
	fsys      fsutil.FileSystem // artifact sink; OSFileSystem when nil
	clock     timeutil.Clock    // RealClock when nil
}

// summary reports what a run produced.
type summary struct {
	RunID   string
	Scenes  int
	Samples int
	Elapsed time.Duration
}

func run(ctx context.Context, store *sqlite.Store, opts options) (summary, error) {
	if opts.plotLimit < 0 {
		return summary{}, fmt.Errorf("plot limit must not be negative, got %d", opts.plotLimit)
	}
	if opts.fsys == nil {
		opts.fsys = fsutil.OSFileSystem{}
	}
	if opts.clock == nil {
		opts.clock = timeutil.RealClock{}
	}
	start := opts.clock.Now()

	rasterizer, err := raster.NewStub(opts.cfg.RasterConfig())
	if err != nil {
		return summary{}, err
	}
	builder, err := sampling.NewBuilder(opts.cfg.BuilderConfig(), rasterizer)
	if err != nil {
		return summary{}, err
	}
	runner := sampling.NewRunner(builder, opts.workers)

	var acc dataset.Accessor = store
	if opts.inMemory {
		tables, err := store.LoadTables(ctx)
		if err != nil {
			return summary{}, fmt.Errorf("load dataset: %w", err)
		}
		acc = tables
	}

	scenes, err := sceneRange(opts.scene, acc.NumScenes())
	if err != nil {
		return summary{}, err
	}

	samples := sqlite.NewSampleStore(store.DB(), sqlite.WithClock(opts.clock))
	sampleRun, err := samples.CreateRun(ctx, opts.cfg)
	if err != nil {
		return summary{}, err
	}
	sum := summary{RunID: sampleRun.RunID}

	for _, sceneIdx := range scenes {
		var built []*sampling.Sample
		if opts.mode.agents {
			built, err = runner.SampleAgents(ctx, acc, sceneIdx)
		} else {
			built, err = runner.SampleScene(ctx, acc, sceneIdx, opts.mode.target)
		}
		if err != nil {
			return sum, fmt.Errorf("scene %d: %w", sceneIdx, err)
		}
		if _, err := samples.InsertSamples(ctx, sampleRun.RunID, built); err != nil {
			return sum, fmt.Errorf("store scene %d: %w", sceneIdx, err)
		}
		sum.Scenes++
		sum.Samples += len(built)

		if opts.plotDir != "" {
			for _, s := range built[:min(opts.plotLimit, len(built))] {
				if _, err := visualization.WriteArtifacts(opts.fsys, opts.plotDir, s, visualization.DefaultDrawConfig()); err != nil {
					return sum, err
				}
			}
		}
	}
	sum.Elapsed = opts.clock.Since(start)
	return sum, nil
}

// debugHandler serves the sample API and metrics next to the SQL
// console.
func debugHandler(store *sqlite.Store, cfg *config.SamplingConfig) (http.Handler, error) {
	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	api.NewServer(sqlite.NewSampleStore(store.DB()), cfg).Attach(mux)
	mux.Handle("/metrics", promhttp.Handler())
	return api.LoggingMiddleware(mux), nil
}

func serveDebug(ctx context.Context, handler http.Handler, addr string) error {
	server := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		log.Printf("sample API on http://%s/api/, debug console on http://%s/debug/", addr, addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return server.Close()
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String("sampler"))
		return
	}
	if *debug {
		monitoring.SetDebugLogger(log.Printf)
	}

	mode, err := parseTarget(*targetFlag)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open dataset: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, store, options{
		cfg:       cfg,
		scene:     *sceneFlag,
		mode:      mode,
		workers:   *workers,
		inMemory:  *inMemory,
		plotDir:   *plotDir,
		plotLimit: *plotLimit,
	})
	if err != nil {
		log.Fatalf("sampling failed: %v", err)
	}
	log.Printf("run %s: %d samples from %d scenes in %s", sum.RunID, sum.Samples, sum.Scenes, sum.Elapsed.Round(time.Millisecond))

	if *listen != "" {
		handler, err := debugHandler(store, cfg)
		if err != nil {
			log.Fatalf("debug routes: %v", err)
		}
		if err := serveDebug(ctx, handler, *listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("debug server: %v", err)
		}
	}
}
