// Package state keeps edusmoke's run history in BoltDB.
// All writes are transactional; reads use read-only transactions.
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/thesyncim/edusmoke/pkg/errs"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

// Bucket names
var (
	bucketRuns      = []byte("runs")
	bucketArtifacts = []byte("artifacts")
)

// ArtifactKind names the server-side entity a run left behind.
type ArtifactKind string

const (
	KindAccount    ArtifactKind = "account"
	KindCourse     ArtifactKind = "course"
	KindEnrollment ArtifactKind = "enrollment"
)

// ScenarioRecord is the persisted form of one smoke.Result.
type ScenarioRecord struct {
	Name       smoke.Name          `json:"name"`
	Status     smoke.Status        `json:"status"`
	Detail     string              `json:"detail,omitempty"`
	Artifact   string              `json:"artifact,omitempty"`
	Outcome    smoke.EnrollOutcome `json:"outcome,omitempty"`
	Code       errs.ErrorCode      `json:"code,omitempty"`
	Error      string              `json:"error,omitempty"`
	DurationMS int64               `json:"duration_ms"`
}

// RunRecord is the persisted form of one smoke run.
type RunRecord struct {
	ID         string           `json:"id"`
	BaseURL    string           `json:"base_url"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Passed     bool             `json:"passed"`
	Failure    string           `json:"failure,omitempty"`
	Scenarios  []ScenarioRecord `json:"scenarios"`
}

// Artifact records an entity created on the server under test. The server
// owns its lifecycle; the history only makes it findable.
type Artifact struct {
	RunID     string       `json:"run_id"`
	Kind      ArtifactKind `json:"kind"`
	Value     string       `json:"value"`
	CreatedAt time.Time    `json:"created_at"`
}

// DB wraps a BoltDB instance with typed accessor methods.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the state database at the given path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errs.New(errs.ErrStateRead, "state.open", err).
			WithResource(path).
			WithAdvice("another edusmoke process may hold the history lock")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketArtifacts} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errs.New(errs.ErrStateWrite, "state.init", err)
	}

	return &DB{bolt: db}, nil
}

// Close closes the underlying BoltDB file.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Runs
// ─────────────────────────────────────────────────────────────────────────────

// FromRun converts a runner result into its persisted form.
func FromRun(res *smoke.RunResult) RunRecord {
	rec := RunRecord{
		ID:         res.ID,
		BaseURL:    res.BaseURL,
		StartedAt:  res.StartedAt,
		FinishedAt: res.Finished,
		Passed:     res.Passed(),
		Scenarios:  make([]ScenarioRecord, len(res.Results)),
	}
	for i, r := range res.Results {
		rec.Scenarios[i] = ScenarioRecord{
			Name:       r.Name,
			Status:     r.Status,
			Detail:     r.Detail,
			Artifact:   r.Artifact,
			Outcome:    r.Outcome,
			Code:       r.Code,
			Error:      r.ErrText(),
			DurationMS: r.Duration.Milliseconds(),
		}
	}
	if f := res.Failed(); f != nil {
		rec.Failure = fmt.Sprintf("%s: %s", f.Name, f.ErrText())
	}
	return rec
}

// PutRun upserts a run record. Run IDs sort by start time.
func (db *DB) PutRun(rec RunRecord) error {
	if rec.ID == "" {
		return errs.Newf(errs.ErrValidation, "state.put-run", "run ID is required")
	}
	if err := db.putJSON(bucketRuns, rec.ID, rec); err != nil {
		return errs.New(errs.ErrStateWrite, "state.put-run", err).WithResource(rec.ID)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil, nil if not found.
func (db *DB) GetRun(id string) (*RunRecord, error) {
	var rec RunRecord
	found, err := db.getJSON(bucketRuns, id, &rec)
	if err != nil {
		return nil, errs.New(errs.ErrStateRead, "state.get-run", err).WithResource(id)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal run %q: %w", k, err)
			}
			runs = append(runs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, errs.New(errs.ErrStateRead, "state.list-runs", err)
	}
	return runs, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Artifacts
// ─────────────────────────────────────────────────────────────────────────────

// ArtifactsFromRun lists the entities res created on the server. A browse
// leaves nothing behind, and an enrollment that already existed is not new.
// An enrollment is recorded as "<student email> -> <course title>".
func ArtifactsFromRun(res *smoke.RunResult) []Artifact {
	var out []Artifact
	for _, r := range res.Results {
		if r.Status != smoke.Passed || r.Artifact == "" {
			continue
		}
		var kind ArtifactKind
		switch r.Name {
		case smoke.Register:
			kind = KindAccount
		case smoke.CreateCourse:
			kind = KindCourse
		case smoke.Enroll:
			if r.Outcome != smoke.Enrolled {
				continue
			}
			kind = KindEnrollment
		default:
			continue
		}
		out = append(out, Artifact{
			RunID:     res.ID,
			Kind:      kind,
			Value:     r.Artifact,
			CreatedAt: res.Finished,
		})
	}
	return out
}

// PutArtifact records one created entity.
func (db *DB) PutArtifact(a Artifact) error {
	if a.RunID == "" || a.Kind == "" {
		return errs.Newf(errs.ErrValidation, "state.put-artifact", "run ID and kind are required")
	}
	key := a.RunID + "/" + string(a.Kind) + "/" + a.Value
	if err := db.putJSON(bucketArtifacts, key, a); err != nil {
		return errs.New(errs.ErrStateWrite, "state.put-artifact", err).WithResource(key)
	}
	return nil
}

// ListArtifacts returns artifacts in run order, optionally filtered by kind.
// Pass empty string to return all artifacts.
func (db *DB) ListArtifacts(kind ArtifactKind) ([]Artifact, error) {
	var out []Artifact
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifacts).ForEach(func(k, v []byte) error {
			var a Artifact
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal artifact %q: %w", k, err)
			}
			if kind == "" || a.Kind == kind {
				out = append(out, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errs.New(errs.ErrStateRead, "state.list-artifacts", err)
	}
	return out, nil
}

// Record persists a finished run and the artifacts it created.
func (db *DB) Record(res *smoke.RunResult) error {
	if err := db.PutRun(FromRun(res)); err != nil {
		return err
	}
	for _, a := range ArtifactsFromRun(res) {
		if err := db.PutArtifact(a); err != nil {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic helpers
// ─────────────────────────────────────────────────────────────────────────────

func (db *DB) putJSON(bucket []byte, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (db *DB) getJSON(bucket []byte, key string, out any) (bool, error) {
	var data []byte
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return true, nil
}
