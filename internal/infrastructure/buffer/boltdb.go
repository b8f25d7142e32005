package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var indexBucket = []byte("index")

// Store is a BoltDB-backed queue. Items are ordered by priority then enqueue
// time; a secondary bucket maps item IDs to their queue keys.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open creates the database file and its buckets if needed.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "buffer"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Enqueue appends an item. Re-enqueuing an existing ID replaces the old entry.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	item.key = queueKey(item)

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		queue, index := tx.Bucket(s.bucket), tx.Bucket(indexBucket)
		if old := index.Get([]byte(item.ID)); old != nil {
			if err := queue.Delete(old); err != nil {
				return err
			}
		}
		if err := queue.Put(item.key, payload); err != nil {
			return err
		}
		return index.Put([]byte(item.ID), item.key)
	})
}

// Peek returns up to limit items in queue order without removing them.
func (s *Store) Peek(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.key = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Ack removes a processed item.
func (s *Store) Ack(id string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(indexBucket)
		key := index.Get([]byte(id))
		if key == nil {
			return nil
		}
		if err := tx.Bucket(s.bucket).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
}

// Retry puts a failed item back, keeping its queue position and retry count.
func (s *Store) Retry(item Item) error {
	item.Retries++
	return s.Enqueue(item)
}

// Len returns the number of queued items.
func (s *Store) Len() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Prune drops items enqueued before olderThan and returns how many were removed.
func (s *Store) Prune(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		queue, index := tx.Bucket(s.bucket), tx.Bucket(indexBucket)

		// Collect first: deleting while a cursor walks the bucket skips entries.
		var stale []Item
		c := queue.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Timestamp.Before(olderThan) {
				item.key = append([]byte(nil), k...)
				stale = append(stale, item)
			}
		}
		for _, item := range stale {
			if err := queue.Delete(item.key); err != nil {
				return err
			}
			if err := index.Delete([]byte(item.ID)); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// queueKey sorts lexicographically by priority, then enqueue time.
func queueKey(item Item) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID))
}
