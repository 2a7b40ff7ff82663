// Package store keeps a history of navigation sessions in BoltDB. Each
// session gets its own bucket of step telemetry records in arrival order,
// plus a summary entry for listing.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"MazeRover/internal/model"
)

var (
	bucketSessions  = []byte("sessions")
	bucketSummaries = []byte("summaries")
)

// ErrSessionNotFound is returned for an id with no stored records.
var ErrSessionNotFound = errors.New("session not found")

// RunLog is a BoltDB-backed session history. It is safe for concurrent use.
type RunLog struct {
	db *bbolt.DB
}

// Open opens or creates the run log at path, creating parent directories.
func Open(path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("[store] failed to create %s: %w", filepath.Dir(path), err)
	}
	db, err := bbolt.Open(path, 0o666, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[store] failed to open BoltDB: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSummaries)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[store] failed to init buckets: %w", err)
	}
	return &RunLog{db: db}, nil
}

// Close closes the database.
func (r *RunLog) Close() error {
	return r.db.Close()
}

// Append stores one telemetry record and updates the session summary.
func (r *RunLog) Append(t model.StepTelemetry) error {
	if t.SessionID == "" {
		return errors.New("telemetry without session id")
	}
	value, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		sb, err := tx.Bucket(bucketSessions).CreateBucketIfNotExists([]byte(t.SessionID))
		if err != nil {
			return err
		}
		seq, err := sb.NextSequence()
		if err != nil {
			return err
		}
		if err := sb.Put(itob(seq), value); err != nil {
			return err
		}

		summaries := tx.Bucket(bucketSummaries)
		sum := model.SessionSummary{ID: t.SessionID, Started: t.Time}
		if raw := summaries.Get([]byte(t.SessionID)); raw != nil {
			if err := json.Unmarshal(raw, &sum); err != nil {
				return fmt.Errorf("corrupt summary for %s: %w", t.SessionID, err)
			}
		}
		sum.Steps = max(sum.Steps, t.Step)
		sum.Updated = t.Time
		sum.Last = t.Cell
		sum.Outcome = t.Outcome
		raw, err := json.Marshal(sum)
		if err != nil {
			return err
		}
		return summaries.Put([]byte(t.SessionID), raw)
	})
}

// Sessions lists all stored sessions, most recently updated first.
func (r *RunLog) Sessions() ([]model.SessionSummary, error) {
	var out []model.SessionSummary
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).ForEach(func(_, v []byte) error {
			var s model.SessionSummary
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			out = append(out, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Updated.Equal(out[j].Updated) {
			return out[i].Updated.After(out[j].Updated)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Steps returns every record of a session in the order it was appended.
func (r *RunLog) Steps(id string) ([]model.StepTelemetry, error) {
	var out []model.StepTelemetry
	err := r.db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketSessions).Bucket([]byte(id))
		if sb == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return sb.ForEach(func(_, v []byte) error {
			var t model.StepTelemetry
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	return out, err
}

// Latest returns the most recent record of a session.
func (r *RunLog) Latest(id string) (model.StepTelemetry, error) {
	var t model.StepTelemetry
	err := r.db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketSessions).Bucket([]byte(id))
		if sb == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		_, v := sb.Cursor().Last()
		if v == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return json.Unmarshal(v, &t)
	})
	return t, err
}

// itob encodes a sequence number as a sortable big-endian key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
