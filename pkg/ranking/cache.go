package ranking

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/soundprediction/toponimo/pkg/types"
)

// CandidateStore persists per-method match results in a Badger database
// so repeated corpora skip recomputation across sessions. Keys combine
// the matching method and the raw surface form; values are the matched
// variant scores.
type CandidateStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCandidateStore opens, creating if needed, a candidate store at dir.
// A zero ttl keeps entries until the store directory is removed.
func OpenCandidateStore(dir string, ttl time.Duration) (*CandidateStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, types.NewResourceError(dir, err)
	}
	return &CandidateStore{db: db, ttl: ttl}, nil
}

// OpenInMemoryCandidateStore opens a store that lives only for the
// process. Intended for tests and ephemeral runs.
func OpenInMemoryCandidateStore(ttl time.Duration) (*CandidateStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, types.NewResourceError("in-memory candidate store", err)
	}
	return &CandidateStore{db: db, ttl: ttl}, nil
}

func storeKey(method Method, surface string) []byte {
	return []byte(string(method) + "\x00" + surface)
}

// Get returns the stored variant scores for a surface form, reporting
// whether an entry existed.
func (s *CandidateStore) Get(method Method, surface string) (map[string]float64, bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(method, surface))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	scores := make(map[string]float64)
	if err := sonic.Unmarshal(raw, &scores); err != nil {
		return nil, false, err
	}
	return scores, true, nil
}

// Put stores the variant scores for a surface form, replacing any
// previous entry for the same method.
func (s *CandidateStore) Put(method Method, surface string, scores map[string]float64) error {
	raw, err := sonic.Marshal(scores)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(storeKey(method, surface), raw)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Close releases the underlying database.
func (s *CandidateStore) Close() error {
	return s.db.Close()
}
