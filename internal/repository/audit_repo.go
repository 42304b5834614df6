package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jaam8/election_bot/internal/models"
	"github.com/tarantool/go-tarantool"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// EventsSpace is the tarantool space holding mirrored ledger events.
	EventsSpace = "election_events"

	boltFileName      = "audit.db"
	bucketEventsName  = "election_events"
	boltOpenTimeout   = time.Second
	boltDirPermission = 0750
)

var ErrAuditDirRequired = errors.New("audit data directory is required")

type tarantoolInserter interface {
	Insert(space interface{}, tuple interface{}) (*tarantool.Response, error)
}

// TarantoolAuditSink mirrors events into a tarantool space, one tuple per event:
// {seq, id, kind, election_id, candidate_id|nil, actor, at_unix_nano}.
type TarantoolAuditSink struct {
	db tarantoolInserter
	l  *zap.Logger
}

// NewTarantoolAuditSink writes through db, usually a *tarantool.Connection.
func NewTarantoolAuditSink(db tarantoolInserter, l *zap.Logger) *TarantoolAuditSink {
	return &TarantoolAuditSink{
		db: db,
		l:  l,
	}
}

// Record inserts one tuple into EventsSpace.
func (r *TarantoolAuditSink) Record(_ context.Context, event models.Event) error {
	var candidateID interface{}
	if event.CandidateID != nil {
		candidateID = *event.CandidateID
	}
	tuple := []interface{}{
		event.Seq,
		event.ID.String(),
		string(event.Kind),
		event.ElectionID,
		candidateID,
		event.Actor,
		event.At.UnixNano(),
	}

	resp, err := r.db.Insert(EventsSpace, tuple)
	if resp != nil {
		r.l.Debug("tarantool response",
			zap.Uint32("status_code", resp.Code),
			zap.Any("resp", resp.Data),
			zap.String("error", resp.Error))
	}
	if err != nil {
		r.l.Debug("error inserting event", zap.Error(err))
		return fmt.Errorf("repository: database insert error: %w", err)
	}
	return nil
}

// BoltAuditSink mirrors events into a local bbolt file, keyed by sequence number.
type BoltAuditSink struct {
	db *bolt.DB
	l  *zap.Logger
}

// NewBoltAuditSink opens or creates the audit file under dataDir.
func NewBoltAuditSink(dataDir string, l *zap.Logger) (*BoltAuditSink, error) {
	if dataDir == "" {
		return nil, ErrAuditDirRequired
	}
	if err := os.MkdirAll(dataDir, boltDirPermission); err != nil {
		return nil, fmt.Errorf("repository: fail to create directory %s: %w", dataDir, err)
	}
	db, err := bolt.Open(filepath.Join(dataDir, boltFileName), 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("repository: fail to open audit db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEventsName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: fail to create bucket: %w", err)
	}
	return &BoltAuditSink{
		db: db,
		l:  l,
	}, nil
}

// Record stores the event as JSON under its sequence number.
func (r *BoltAuditSink) Record(_ context.Context, event models.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("repository: json marshal error: %w", err)
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEventsName)).Put(encodeUint64(event.Seq), value)
	})
	if err != nil {
		r.l.Debug("error storing event", zap.Uint64("seq", event.Seq), zap.Error(err))
		return fmt.Errorf("repository: bolt put error: %w", err)
	}
	return nil
}

// Events reads the mirrored events back in sequence order.
func (r *BoltAuditSink) Events() ([]models.Event, error) {
	var out []models.Event
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEventsName)).ForEach(func(_, v []byte) error {
			var event models.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			out = append(out, event)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("repository: bolt read error: %w", err)
	}
	return out, nil
}

// Close releases the bbolt file lock.
func (r *BoltAuditSink) Close() error {
	return r.db.Close()
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
