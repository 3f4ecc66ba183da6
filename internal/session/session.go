// Package session is the short-term interaction store: the most recent N
// turns of query → plan outcomes, kept so follow-up requests can be planned
// with recent context. Backed by LevelDB (single-writer; one deskmate
// process per store directory).
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB key scheme — "|" separator, timestamp first so lexicographic key
// order is chronological order:
//
//	i|<RFC3339Nano>|<id> → Interaction JSON
const prefixInteraction = "i|"

// defaultMaxInteractions is how many turns Record retains.
const defaultMaxInteractions = 10

// Interaction is one recorded pipeline turn.
type Interaction struct {
	ID           string   `json:"id"`
	Timestamp    string   `json:"timestamp"`
	SessionID    string   `json:"session_id"`
	Query        string   `json:"query"`
	Domain       string   `json:"domain"`
	Intent       string   `json:"intent"`
	HITLRequired bool     `json:"hitl_required"`
	HITLReason   *string  `json:"hitl_reason,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Store is the LevelDB-backed interaction history.
type Store struct {
	db  *leveldb.DB
	max int
}

// Open opens (or creates) the store at dbPath, a directory path.
func Open(dbPath string) (*Store, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", dbPath, err)
	}
	return &Store{db: db, max: defaultMaxInteractions}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one interaction and prunes the store down to the retention
// cap. Assigns ID and Timestamp when missing.
func (s *Store) Record(in Interaction) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.Timestamp == "" {
		in.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("session: marshal interaction: %w", err)
	}
	key := []byte(prefixInteraction + in.Timestamp + "|" + in.ID)
	if err := s.db.Put(key, raw, nil); err != nil {
		return fmt.Errorf("session: put interaction: %w", err)
	}

	return s.prune()
}

// prune deletes the oldest interactions beyond the retention cap in one batch.
func (s *Store) prune() error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixInteraction)), nil)
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		keys = append(keys, k)
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("session: prune scan: %w", err)
	}
	if len(keys) <= s.max {
		return nil
	}

	batch := new(leveldb.Batch)
	for _, k := range keys[:len(keys)-s.max] {
		batch.Delete(k)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("session: prune delete: %w", err)
	}
	log.Printf("[SESSION] pruned %d old interactions", len(keys)-s.max)
	return nil
}

// Recent returns up to n interactions, newest first.
func (s *Store) Recent(n int) ([]Interaction, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixInteraction)), nil)
	defer iter.Release()

	var all []Interaction
	for iter.Next() {
		var in Interaction
		if err := json.Unmarshal(iter.Value(), &in); err != nil {
			log.Printf("[SESSION] WARNING: corrupt interaction at %s — skipped", iter.Key())
			continue
		}
		all = append(all, in)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("session: scan: %w", err)
	}

	// Keys iterate oldest → newest; reverse the tail for newest-first.
	if n > len(all) {
		n = len(all)
	}
	out := make([]Interaction, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
