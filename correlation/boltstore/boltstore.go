// Package boltstore persists correlation records in a bbolt file so a flow survives a
// restart of the callback host between init and redirect.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"go.etcd.io/bbolt"
)

const (
	fileName   = "correlation.db"
	bucketName = "oauth_correlation"
)

var _ correlation.Store = (*BoltStore)(nil)

// BoltStore wraps a bbolt database holding a single bucket of correlation values.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the store file inside dataDir.
func Open(dataDir string) (*BoltStore, error) {
	db, err := bbolt.Open(filepath.Join(dataDir, fileName), 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("[boltstore Open] failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("[boltstore Open] failed to create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, correlation.ErrEmptyKey
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v != nil {
			// v is only valid for the life of the transaction
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("[boltstore Get] %w", err)
	}
	return value, found, nil
}

func (s *BoltStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("[boltstore Set] %w", err)
	}
	return nil
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return correlation.ErrEmptyKey
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("[boltstore Delete] %w", err)
	}
	return nil
}
