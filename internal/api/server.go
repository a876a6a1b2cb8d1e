// Package api serves stored sampling runs over HTTP: run metadata,
// sample listings, decoded samples and their rendered plots.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/l5sampler/internal/config"
	"github.com/banshee-data/l5sampler/internal/httputil"
	"github.com/banshee-data/l5sampler/internal/monitoring"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"github.com/banshee-data/l5sampler/internal/storage/sqlite"
	"github.com/banshee-data/l5sampler/internal/visualization"
)

const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// SampleReader is the read side of the sample store.
type SampleReader interface {
	GetRun(ctx context.Context, runID string) (*sqlite.Run, error)
	ListSamples(ctx context.Context, runID string) ([]*sqlite.SampleRecord, error)
	GetSample(ctx context.Context, sampleID string) (*sqlite.SampleRecord, error)
	FindByDigest(ctx context.Context, digest uint64) ([]*sqlite.SampleRecord, error)
}

// Server exposes a sample store read-only. Stored samples carry no image
// pixels, so only the plot and chart renderings are offered.
type Server struct {
	samples SampleReader
	cfg     *config.SamplingConfig
}

// NewServer returns a Server reading from samples. cfg is reported by
// /api/config and may be nil.
func NewServer(samples SampleReader, cfg *config.SamplingConfig) *Server {
	if cfg == nil {
		cfg = config.EmptySamplingConfig()
	}
	return &Server{
		samples: samples,
		cfg:     cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers the API routes on a fresh mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Attach(mux)
	return mux
}

// Attach registers the API routes on mux.
func (s *Server) Attach(mux *http.ServeMux) {
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/runs/{run}", s.showRun)
	mux.HandleFunc("/api/runs/{run}/samples", s.listSamples)
	mux.HandleFunc("/api/samples/{sample}", s.showSample)
	mux.HandleFunc("/api/samples/{sample}/chart", s.sampleChart)
	mux.HandleFunc("/api/samples/{sample}/plot.png", s.samplePlot)
	mux.HandleFunc("/api/digests/{digest}", s.findDigest)
}

// effectiveConfig is the sampling config with defaults applied.
type effectiveConfig struct {
	RasterSize            [2]int     `json:"raster_size"`
	PixelSize             [2]float64 `json:"pixel_size"`
	EgoCenter             [2]float64 `json:"ego_center"`
	FilterAgentsThreshold float64    `json:"filter_agents_threshold"`
	HistoryNumFrames      int        `json:"history_num_frames"`
	HistoryStepSize       int        `json:"history_step_size"`
	FutureNumFrames       int        `json:"future_num_frames"`
	FutureStepSize        int        `json:"future_step_size"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, effectiveConfig{
		RasterSize:            s.cfg.GetRasterSize(),
		PixelSize:             s.cfg.GetPixelSize(),
		EgoCenter:             s.cfg.GetEgoCenter(),
		FilterAgentsThreshold: s.cfg.GetFilterAgentsThreshold(),
		HistoryNumFrames:      s.cfg.GetHistoryNumFrames(),
		HistoryStepSize:       s.cfg.GetHistoryStepSize(),
		FutureNumFrames:       s.cfg.GetFutureNumFrames(),
		FutureStepSize:        s.cfg.GetFutureStepSize(),
	})
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	run, err := s.samples.GetRun(r.Context(), r.PathValue("run"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

// sampleSummary is a listed sample without its payload.
type sampleSummary struct {
	SampleID         string  `json:"sample_id"`
	SceneIndex       int     `json:"scene_index"`
	CenterIndex      int     `json:"center_index"`
	Timestamp        int64   `json:"timestamp"`
	TrackID          *uint64 `json:"track_id,omitempty"`
	AvailableTargets int     `json:"available_targets"`
	AvailableHistory int     `json:"available_history"`
	Digest           string  `json:"digest"`
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	scene := -1
	if v := r.URL.Query().Get("scene"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "invalid 'scene' parameter")
			return
		}
		scene = n
	}

	runID := r.PathValue("run")
	if _, err := s.samples.GetRun(r.Context(), runID); err != nil {
		writeStoreError(w, err)
		return
	}
	records, err := s.samples.ListSamples(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]sampleSummary, 0, len(records))
	for _, rec := range records {
		if scene >= 0 && rec.SceneIndex != scene {
			continue
		}
		out = append(out, summarize(rec))
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rec, err := s.samples.GetSample(r.Context(), r.PathValue("sample"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, rec)
}

func (s *Server) sampleChart(w http.ResponseWriter, r *http.Request) {
	s.renderSample(w, r, "text/html; charset=utf-8", visualization.RenderSampleChart)
}

func (s *Server) samplePlot(w http.ResponseWriter, r *http.Request) {
	s.renderSample(w, r, "image/png", func(out io.Writer, smp *sampling.Sample) error {
		return visualization.WriteSamplePlot(out, smp, "png")
	})
}

func (s *Server) renderSample(w http.ResponseWriter, r *http.Request, contentType string, render func(io.Writer, *sampling.Sample) error) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rec, err := s.samples.GetSample(r.Context(), r.PathValue("sample"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	smp, err := rec.Sample()
	if err != nil {
		monitoring.Logf("decode sample %s: %v", rec.SampleID, err)
		httputil.InternalServerError(w, "failed to decode sample")
		return
	}
	httputil.WriteRendered(w, contentType, func(out io.Writer) error {
		return render(out, smp)
	})
}

func (s *Server) findDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	digest, err := strconv.ParseUint(r.PathValue("digest"), 16, 64)
	if err != nil {
		httputil.BadRequest(w, "digest must be hexadecimal")
		return
	}
	records, err := s.samples.FindByDigest(r.Context(), digest)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]sampleSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	httputil.WriteJSONOK(w, out)
}

func summarize(rec *sqlite.SampleRecord) sampleSummary {
	return sampleSummary{
		SampleID:         rec.SampleID,
		SceneIndex:       rec.SceneIndex,
		CenterIndex:      rec.CenterIndex,
		Timestamp:        rec.Timestamp,
		TrackID:          rec.TrackID,
		AvailableTargets: rec.AvailableTargets,
		AvailableHistory: rec.AvailableHistory,
		Digest:           fmt.Sprintf("%016x", rec.Digest),
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, sqlite.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	monitoring.Logf("sample store: %v", err)
	httputil.InternalServerError(w, "failed to read sample store")
}
