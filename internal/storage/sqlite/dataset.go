package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/l5sampler/internal/dataset"
	"github.com/banshee-data/l5sampler/internal/monitoring"
)

var _ dataset.Accessor = (*Store)(nil)

const (
	sceneColumns = `scene_index, frame_start, frame_end, host, start_time, end_time`
	frameColumns = `frame_index, timestamp, agent_start, agent_end, ego_tx, ego_ty, ego_tz,
		rot_00, rot_01, rot_02, rot_10, rot_11, rot_12, rot_20, rot_21, rot_22`
	agentColumns = `agent_index, centroid_x, centroid_y, extent_x, extent_y, extent_z,
		yaw, velocity_x, velocity_y, track_id, label_probabilities`
)

// NumScenes implements dataset.SceneReader.
func (s *Store) NumScenes() int { return s.snapshotCounts().scenes }

// NumFrames implements dataset.FrameReader.
func (s *Store) NumFrames() int { return s.snapshotCounts().frames }

// NumAgents implements dataset.AgentReader.
func (s *Store) NumAgents() int { return s.snapshotCounts().agents }

// Scene implements dataset.SceneReader.
func (s *Store) Scene(idx int) (dataset.Scene, error) {
	row := s.db.QueryRow(`SELECT `+sceneColumns+` FROM scenes WHERE scene_index = ?`, idx)
	var (
		scene dataset.Scene
		index int
	)
	err := row.Scan(&index, &scene.FrameIndexInterval.Start, &scene.FrameIndexInterval.End,
		&scene.Host, &scene.StartTime, &scene.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return dataset.Scene{}, fmt.Errorf("scene %d of %d: %w", idx, s.NumScenes(), dataset.ErrIndexOutOfRange)
	}
	if err != nil {
		return dataset.Scene{}, fmt.Errorf("query scene %d: %w", idx, err)
	}
	return scene, nil
}

// Frames implements dataset.FrameReader with one range query.
func (s *Store) Frames(start, end int) ([]dataset.Frame, error) {
	if err := checkRange(start, end, s.NumFrames()); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	rows, err := s.db.Query(`SELECT `+frameColumns+` FROM frames
		WHERE frame_index >= ? AND frame_index < ? ORDER BY frame_index`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query frames [%d, %d): %w", start, end, err)
	}
	defer rows.Close()

	frames := make([]dataset.Frame, 0, end-start)
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(frames) != end-start {
		return nil, fmt.Errorf("frames [%d, %d): got %d rows, table has gaps", start, end, len(frames))
	}
	return frames, nil
}

// Agents implements dataset.AgentReader with one range query. Results
// are cached and shared between callers, which must not modify them.
func (s *Store) Agents(start, end int) ([]dataset.Agent, error) {
	if err := checkRange(start, end, s.NumAgents()); err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	key := [2]int{start, end}
	if cached, ok := s.agents.Get(key); ok {
		return cached, nil
	}
	rows, err := s.db.Query(`SELECT `+agentColumns+` FROM agents
		WHERE agent_index >= ? AND agent_index < ? ORDER BY agent_index`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query agents [%d, %d): %w", start, end, err)
	}
	defer rows.Close()

	agents := make([]dataset.Agent, 0, end-start)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(agents) != end-start {
		return nil, fmt.Errorf("agents [%d, %d): got %d rows, table has gaps", start, end, len(agents))
	}
	s.agents.Add(key, agents)
	return agents, nil
}

func checkRange(start, end, n int) error {
	if start < 0 || end < start || end > n {
		return fmt.Errorf("slice [%d, %d) of %d rows: %w", start, end, n, dataset.ErrIndexOutOfRange)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFrame(r scanner) (dataset.Frame, error) {
	var (
		f     dataset.Frame
		index int
	)
	rot := &f.EgoRotation
	err := r.Scan(&index, &f.Timestamp, &f.AgentIndexInterval.Start, &f.AgentIndexInterval.End,
		&f.EgoTranslation[0], &f.EgoTranslation[1], &f.EgoTranslation[2],
		&rot[0], &rot[1], &rot[2], &rot[3], &rot[4], &rot[5], &rot[6], &rot[7], &rot[8])
	if err != nil {
		return dataset.Frame{}, fmt.Errorf("scan frame: %w", err)
	}
	return f, nil
}

func scanAgent(r scanner) (dataset.Agent, error) {
	var (
		a       dataset.Agent
		index   int
		trackID int64
		labels  string
	)
	err := r.Scan(&index, &a.Centroid[0], &a.Centroid[1],
		&a.Extent[0], &a.Extent[1], &a.Extent[2],
		&a.Yaw, &a.Velocity[0], &a.Velocity[1], &trackID, &labels)
	if err != nil {
		return dataset.Agent{}, fmt.Errorf("scan agent: %w", err)
	}
	a.TrackID = uint64(trackID)
	if err := json.Unmarshal([]byte(labels), &a.LabelProbabilities); err != nil {
		return dataset.Agent{}, fmt.Errorf("agent %d label_probabilities: %w", index, err)
	}
	return a, nil
}

// WriteTables appends t to the stored dataset in one transaction.
// Interval columns are shifted by the rows already present, so several
// generated logs can be concatenated into one file.
func (s *Store) WriteTables(ctx context.Context, t *dataset.Tables) error {
	base := s.snapshotCounts()

	err := retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		if err := insertScenes(ctx, tx, base, t.SceneRows); err != nil {
			return err
		}
		if err := insertFrames(ctx, tx, base, t.FrameRows); err != nil {
			return err
		}
		if err := insertAgents(ctx, tx, base, t.AgentRows); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}
	if err := s.refreshCounts(); err != nil {
		return err
	}
	monitoring.Debugf("wrote %d scenes, %d frames, %d agents to %s",
		len(t.SceneRows), len(t.FrameRows), len(t.AgentRows), s.path)
	return nil
}

func insertScenes(ctx context.Context, tx *sql.Tx, base tableCounts, scenes []dataset.Scene) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scenes (`+sceneColumns+`) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare scenes: %w", err)
	}
	defer stmt.Close()

	for i, sc := range scenes {
		_, err := stmt.ExecContext(ctx, base.scenes+i,
			base.frames+sc.FrameIndexInterval.Start, base.frames+sc.FrameIndexInterval.End,
			sc.Host, sc.StartTime, sc.EndTime)
		if err != nil {
			return fmt.Errorf("insert scene %d: %w", i, err)
		}
	}
	return nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, base tableCounts, frames []dataset.Frame) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO frames (`+frameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare frames: %w", err)
	}
	defer stmt.Close()

	for i, f := range frames {
		r := f.EgoRotation
		_, err := stmt.ExecContext(ctx, base.frames+i, f.Timestamp,
			base.agents+f.AgentIndexInterval.Start, base.agents+f.AgentIndexInterval.End,
			f.EgoTranslation[0], f.EgoTranslation[1], f.EgoTranslation[2],
			r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8])
		if err != nil {
			return fmt.Errorf("insert frame %d: %w", i, err)
		}
	}
	return nil
}

func insertAgents(ctx context.Context, tx *sql.Tx, base tableCounts, agents []dataset.Agent) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare agents: %w", err)
	}
	defer stmt.Close()

	for i, a := range agents {
		labels, err := json.Marshal(a.LabelProbabilities)
		if err != nil {
			return fmt.Errorf("agent %d labels: %w", i, err)
		}
		_, err = stmt.ExecContext(ctx, base.agents+i,
			a.Centroid[0], a.Centroid[1], a.Extent[0], a.Extent[1], a.Extent[2],
			a.Yaw, a.Velocity[0], a.Velocity[1], int64(a.TrackID), string(labels))
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", i, err)
		}
	}
	return nil
}

// LoadTables reads the whole dataset into memory.
func (s *Store) LoadTables(ctx context.Context) (*dataset.Tables, error) {
	t := &dataset.Tables{}

	rows, err := s.db.QueryContext(ctx, `SELECT `+sceneColumns+` FROM scenes ORDER BY scene_index`)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	for rows.Next() {
		var (
			sc    dataset.Scene
			index int
		)
		if err := rows.Scan(&index, &sc.FrameIndexInterval.Start, &sc.FrameIndexInterval.End,
			&sc.Host, &sc.StartTime, &sc.EndTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		t.SceneRows = append(t.SceneRows, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+frameColumns+` FROM frames ORDER BY frame_index`)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		t.FrameRows = append(t.FrameRows, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY agent_index`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		t.AgentRows = append(t.AgentRows, a)
	}
	return t, rows.Err()
}
