package store

import (
	"fmt"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// LoadRecord describes one file handed to the store by a bulk load.
type LoadRecord struct {
	JobID      string `msgpack:"job"`
	File       string `msgpack:"file"`
	Quads      uint64 `msgpack:"quads"`
	DurationMS uint64 `msgpack:"ms"`
	Error      string `msgpack:"err,omitempty"`
	FinishedAt int64  `msgpack:"at"`
}

// NewLoadRecord builds a record for a finished file. quads must not be
// negative.
func NewLoadRecord(jobID, file string, quads int, took time.Duration, loadErr error) (LoadRecord, error) {
	n, err := safecast.Conv[uint64](quads)
	if err != nil {
		return LoadRecord{}, fmt.Errorf("quad count: %w", err)
	}
	ms, err := safecast.Conv[uint64](took.Milliseconds())
	if err != nil {
		return LoadRecord{}, fmt.Errorf("duration: %w", err)
	}
	rec := LoadRecord{JobID: jobID, File: file, Quads: n, DurationMS: ms, FinishedAt: time.Now().Unix()}
	if loadErr != nil {
		rec.Error = loadErr.Error()
	}
	return rec, nil
}

func loadKey(jobID, file string) []byte {
	return []byte(jobID + "\x00" + file)
}

// RecordLoad stores rec under its job id and file name.
func (s *TripleStore) RecordLoad(rec LoadRecord) error {
	value, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode load record: %w", err)
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer func() { _ = txn.Rollback() }()

	if err := txn.Set(TableLoads, loadKey(rec.JobID, rec.File), value); err != nil {
		return err
	}
	return txn.Commit()
}

// Loads returns the records of one job ordered by file name.
func (s *TripleStore) Loads(jobID string) ([]LoadRecord, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(TableLoads, []byte(jobID+"\x00"), nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []LoadRecord
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		var rec LoadRecord
		if err := msgpack.Unmarshal(value, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode load record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
