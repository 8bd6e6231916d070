package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const credentialBucket = "credentials"

// boltStore implements a Writer backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed credential store.
func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credential directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the credential stored under key.
func (b *boltStore) Get(key string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	var value string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		// bbolt values are only valid inside the transaction.
		value = string(bucket.Get([]byte(key)))
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, value != "", nil
}

// Put stores value under key, replacing any previous entry.
func (b *boltStore) Put(key, value string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("credential store is not open")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

// Delete removes the entry under key. Deleting a missing key is not an error.
func (b *boltStore) Delete(key string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("credential store is not open")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Delete([]byte(key))
	})
}
