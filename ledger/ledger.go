// Package ledger keeps a bbolt record of completed conformance runs.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/sha3"
)

var (
	bucketRuns     = []byte("runs")
	bucketFamilies = []byte("families")
)

var ErrClosed = errors.New("ledger: closed")

// FamilyOutcome is the result of one family within a run.
type FamilyOutcome struct {
	Family string `json:"family"`
	OK     bool   `json:"ok"`
	Case   string `json:"case,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Record is one completed run.
type Record struct {
	ID          string          `json:"id"`
	Seq         uint64          `json:"seq"`
	Started     time.Time       `json:"started"`
	Finished    time.Time       `json:"finished"`
	Provider    string          `json:"provider"`
	Reference   string          `json:"reference"`
	Policy      string          `json:"policy"`
	Round       int             `json:"round"`
	State       string          `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	Families    []FamilyOutcome `json:"families"`
}

// FamilyStats counts outcomes of one family across every recorded run.
type FamilyStats struct {
	Passed    uint64 `json:"passed"`
	Failed    uint64 `json:"failed"`
	LastStage string `json:"last_stage,omitempty"`
	LastRunID string `json:"last_run_id,omitempty"`
}

type DB struct {
	path string
	db   *bolt.DB
}

// Open creates or opens the ledger file at path, creating parent
// directories as needed.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketFamilies} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{path: path, db: bdb}, nil
}

func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *DB) live() error {
	if d == nil || d.db == nil {
		return ErrClosed
	}
	return nil
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// Record stores r and updates the per-family counters. An empty ID is
// filled with a random UUID. The stored record is returned.
func (d *DB) Record(r Record) (Record, error) {
	if err := d.live(); err != nil {
		return Record{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if _, err := uuid.Parse(r.ID); err != nil {
		return Record{}, fmt.Errorf("run id: %w", err)
	}
	err := d.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		seq, err := runs.NextSequence()
		if err != nil {
			return err
		}
		r.Seq = seq
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode run: %w", err)
		}
		if err := runs.Put(seqKey(seq), b); err != nil {
			return err
		}

		fams := tx.Bucket(bucketFamilies)
		for _, fo := range r.Families {
			var st FamilyStats
			if v := fams.Get([]byte(fo.Family)); v != nil {
				if err := json.Unmarshal(v, &st); err != nil {
					return fmt.Errorf("decode family %s: %w", fo.Family, err)
				}
			}
			if fo.OK {
				st.Passed++
			} else {
				st.Failed++
			}
			st.LastStage = fo.Stage
			st.LastRunID = r.ID
			sb, err := json.Marshal(st)
			if err != nil {
				return err
			}
			if err := fams.Put([]byte(fo.Family), sb); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (d *DB) List(limit int) ([]Record, error) {
	if err := d.live(); err != nil {
		return nil, err
	}
	var out []Record
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode run %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the record with the given run ID.
func (d *DB) Get(id string) (Record, bool, error) {
	if err := d.live(); err != nil {
		return Record{}, false, err
	}
	var out Record
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, v []byte) error {
			if ok {
				return nil
			}
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.ID == id {
				out, ok = r, true
			}
			return nil
		})
	})
	if err != nil {
		return Record{}, false, err
	}
	return out, ok, nil
}

// Stats returns the per-family counters.
func (d *DB) Stats() (map[string]FamilyStats, error) {
	if err := d.live(); err != nil {
		return nil, err
	}
	out := make(map[string]FamilyStats)
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFamilies).ForEach(func(k, v []byte) error {
			var st FamilyStats
			if err := json.Unmarshal(v, &st); err != nil {
				return fmt.Errorf("decode family %s: %w", string(k), err)
			}
			out[string(k)] = st
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fingerprint is the hex SHA3-256 of the report lines, newline terminated.
// Two runs with the same outcome and diagnostics share a fingerprint.
func Fingerprint(lines []string) string {
	h := sha3.New256()
	for _, l := range lines {
		_, _ = h.Write([]byte(l))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
