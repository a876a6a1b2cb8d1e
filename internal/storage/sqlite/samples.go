package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/sampling"
	"github.com/banshee-data/l5sampler/internal/timeutil"
)

// ErrNotFound is returned when a run or sample does not exist.
var ErrNotFound = errors.New("not found")

// Run is one invocation of the sampler.
type Run struct {
	RunID       string          `json:"run_id"`
	ConfigJSON  json.RawMessage `json:"config_json,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	SampleCount int             `json:"sample_count"`
}

// SampleRecord is a persisted sample. Payload is the sample's JSON
// encoding, which omits image pixels.
type SampleRecord struct {
	SampleID         string          `json:"sample_id"`
	RunID            string          `json:"run_id"`
	SceneIndex       int             `json:"scene_index"`
	CenterIndex      int             `json:"center_index"`
	Timestamp        int64           `json:"timestamp"`
	TrackID          *uint64         `json:"track_id,omitempty"` // nil for the ego
	AvailableTargets int             `json:"available_targets"`
	AvailableHistory int             `json:"available_history"`
	Digest           uint64          `json:"digest"`
	Payload          json.RawMessage `json:"payload"`
	CreatedAt        int64           `json:"created_at"`
}

// Sample decodes the payload. Image pixels are not stored, so Image
// keeps only its shape.
func (r *SampleRecord) Sample() (*sampling.Sample, error) {
	var s sampling.Sample
	if err := json.Unmarshal(r.Payload, &s); err != nil {
		return nil, fmt.Errorf("decode sample %s: %w", r.SampleID, err)
	}
	s.Target = dataset.EgoTarget()
	if r.TrackID != nil {
		s.Target = dataset.AgentTarget(*r.TrackID)
	}
	return &s, nil
}

// SampleStore persists sampling runs and their output.
type SampleStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// SampleStoreOption configures a SampleStore.
type SampleStoreOption func(*SampleStore)

// WithClock sets the clock used for created_at stamps.
func WithClock(c timeutil.Clock) SampleStoreOption {
	return func(s *SampleStore) { s.clock = c }
}

// NewSampleStore creates a new SampleStore.
func NewSampleStore(db *sql.DB, opts ...SampleStoreOption) *SampleStore {
	s := &SampleStore{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRun registers a new run and returns it with a fresh UUID.
func (s *SampleStore) CreateRun(ctx context.Context, cfg any) (*Run, error) {
	run := &Run{
		RunID:     uuid.New().String(),
		CreatedAt: s.clock.Now().UnixNano(),
	}
	var cfgStr interface{}
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("encode run config: %w", err)
		}
		run.ConfigJSON = raw
		cfgStr = string(raw)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sample_runs (run_id, config_json, created_at) VALUES (?, ?, ?)`,
			run.RunID, cfgStr, run.CreatedAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// InsertSamples stores samples under runID in one transaction.
func (s *SampleStore) InsertSamples(ctx context.Context, runID string, samples []*sampling.Sample) ([]*SampleRecord, error) {
	now := s.clock.Now().UnixNano()
	records := make([]*SampleRecord, 0, len(samples))
	for _, smp := range samples {
		payload, err := json.Marshal(smp)
		if err != nil {
			return nil, fmt.Errorf("encode sample scene %d frame %d: %w", smp.SceneIndex, smp.CenterIndex, err)
		}
		rec := &SampleRecord{
			SampleID:         uuid.New().String(),
			RunID:            runID,
			SceneIndex:       smp.SceneIndex,
			CenterIndex:      smp.CenterIndex,
			Timestamp:        smp.Timestamp,
			AvailableTargets: smp.AvailableTargets(),
			AvailableHistory: smp.AvailableHistory(),
			Digest:           smp.Digest(),
			Payload:          payload,
			CreatedAt:        now,
		}
		if id, ok := smp.Target.TrackID(); ok {
			rec.TrackID = &id
		}
		records = append(records, rec)
	}

	err := retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO samples (
				sample_id, run_id, scene_index, center_index, timestamp, track_id,
				available_targets, available_history, digest, payload, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare samples: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			var trackID interface{}
			if rec.TrackID != nil {
				trackID = int64(*rec.TrackID)
			}
			_, err := stmt.ExecContext(ctx,
				rec.SampleID, rec.RunID, rec.SceneIndex, rec.CenterIndex, rec.Timestamp, trackID,
				rec.AvailableTargets, rec.AvailableHistory, formatDigest(rec.Digest), string(rec.Payload), rec.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert sample %s: %w", rec.SampleID, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

const sampleColumns = `sample_id, run_id, scene_index, center_index, timestamp, track_id,
	available_targets, available_history, digest, payload, created_at`

// ListSamples returns the samples of a run ordered by scene, centre
// frame and track.
func (s *SampleStore) ListSamples(ctx context.Context, runID string) ([]*SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE run_id = ?
		ORDER BY scene_index, center_index, track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()
	return collectSamples(rows)
}

// GetSample returns one stored sample by ID.
func (s *SampleStore) GetSample(ctx context.Context, sampleID string) (*SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE sample_id = ?`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("query sample: %w", err)
	}
	defer rows.Close()
	recs, err := collectSamples(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("sample %s: %w", sampleID, ErrNotFound)
	}
	return recs[0], nil
}

// FindByDigest returns every stored sample with the given digest.
func (s *SampleStore) FindByDigest(ctx context.Context, digest uint64) ([]*SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sampleColumns+` FROM samples
		WHERE digest = ? ORDER BY created_at`, formatDigest(digest))
	if err != nil {
		return nil, fmt.Errorf("query samples by digest: %w", err)
	}
	defer rows.Close()
	return collectSamples(rows)
}

// GetRun returns a run with its sample count.
func (s *SampleStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.run_id, r.config_json, r.created_at,
		       (SELECT COUNT(*) FROM samples s WHERE s.run_id = r.run_id)
		FROM sample_runs r
		WHERE r.run_id = ?`, runID)

	var (
		run    Run
		cfgStr sql.NullString
	)
	err := row.Scan(&run.RunID, &cfgStr, &run.CreatedAt, &run.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if cfgStr.Valid {
		run.ConfigJSON = json.RawMessage(cfgStr.String)
	}
	return &run, nil
}

// DeleteRun removes a run and, through the foreign key, its samples.
func (s *SampleStore) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM sample_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

func collectSamples(rows *sql.Rows) ([]*SampleRecord, error) {
	var out []*SampleRecord
	for rows.Next() {
		var (
			rec     SampleRecord
			trackID sql.NullInt64
			digest  string
			payload string
		)
		err := rows.Scan(&rec.SampleID, &rec.RunID, &rec.SceneIndex, &rec.CenterIndex, &rec.Timestamp, &trackID,
			&rec.AvailableTargets, &rec.AvailableHistory, &digest, &payload, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if trackID.Valid {
			id := uint64(trackID.Int64)
			rec.TrackID = &id
		}
		if rec.Digest, err = strconv.ParseUint(digest, 16, 64); err != nil {
			return nil, fmt.Errorf("sample %s digest %q: %w", rec.SampleID, digest, err)
		}
		rec.Payload = json.RawMessage(payload)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// formatDigest renders a digest as fixed-width hex; SQLite integers are
// signed and cannot hold every uint64.
func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}
