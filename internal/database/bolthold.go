// Package database provides data persistence using BoltDB.
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	// Default database filename
	defaultDBFile = "data.db"

	tmdbBucket   = "tmdb_cache"
	magnetBucket = "magnets"
)

// TMDBCache represents cached TMDB metadata for movies and TV shows.
type TMDBCache struct {
	IMDBId           string
	Type             string // "movie" or "series"
	Title            string
	Year             int
	OriginalLanguage string
	CreatedAt        time.Time
}

// Magnet represents a magnet link with associated metadata.
type Magnet struct {
	ID           string    // Unique identifier
	Hash         string    // Info hash
	Name         string    // Torrent name
	AddedAt      time.Time // When it was added
	AllDebridID  string    // AllDebrid magnet ID for cleanup
	AllDebridKey string    // API key used (for cleanup)
}

// Database defines the interface for data persistence operations.
type Database interface {
	// GetCachedTMDB retrieves cached TMDB data by IMDB ID
	GetCachedTMDB(imdbId string) (*TMDBCache, error)
	// StoreTMDBCache stores TMDB metadata
	StoreTMDBCache(cache *TMDBCache) error
	// StoreMagnet stores a magnet link
	StoreMagnet(magnet *Magnet) error
	// GetMagnets retrieves all stored magnets
	GetMagnets() ([]Magnet, error)
	// GetOldMagnets retrieves magnets older than specified duration
	GetOldMagnets(olderThan time.Duration) ([]Magnet, error)
	// DeleteMagnet removes a magnet by ID
	DeleteMagnet(id string) error
	// Close closes the database connection
	Close() error
}

// BoltDB implements the Database interface directly on go.etcd.io/bbolt,
// keyed by ID within per-kind buckets and JSON-encoded.
type BoltDB struct {
	conn *bolt.DB
}

// NewBolt creates a new BoltDB database instance.
// If dbPath is empty, uses the default database file in current directory.
func NewBolt(dbPath string) (*BoltDB, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = conn.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(tmdbBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(magnetBucket))
		return err
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltDB{conn: conn}, nil
}

// Close closes the database connection.
func (db *BoltDB) Close() error {
	return db.conn.Close()
}

// GetCachedTMDB retrieves cached TMDB data by IMDB ID.
// Returns nil if not found, without error.
func (db *BoltDB) GetCachedTMDB(imdbId string) (*TMDBCache, error) {
	var cache *TMDBCache
	err := db.conn.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(tmdbBucket)).Get([]byte(imdbId))
		if raw == nil {
			return nil
		}
		var c TMDBCache
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		cache = &c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get TMDB cache: %w", err)
	}
	return cache, nil
}

// StoreTMDBCache stores TMDB metadata in the database.
// Updates existing entries or creates new ones.
func (db *BoltDB) StoreTMDBCache(cache *TMDBCache) error {
	stored := *cache
	stored.CreatedAt = time.Now()

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode TMDB cache: %w", err)
	}

	err = db.conn.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(tmdbBucket)).Put([]byte(cache.IMDBId), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to store TMDB cache: %w", err)
	}
	return nil
}

// StoreMagnet stores a magnet link in the database.
// Updates existing entries or creates new ones.
func (db *BoltDB) StoreMagnet(magnet *Magnet) error {
	stored := *magnet
	stored.AddedAt = time.Now()

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode magnet: %w", err)
	}

	err = db.conn.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(magnetBucket)).Put([]byte(magnet.ID), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to store magnet: %w", err)
	}
	return nil
}

// GetMagnets retrieves all stored magnets from the database.
func (db *BoltDB) GetMagnets() ([]Magnet, error) {
	var magnets []Magnet
	err := db.conn.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(magnetBucket)).ForEach(func(k, v []byte) error {
			var m Magnet
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			magnets = append(magnets, m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get magnets: %w", err)
	}
	return magnets, nil
}

// DeleteMagnet removes a magnet by ID from the database.
// Returns nil if the magnet doesn't exist.
func (db *BoltDB) DeleteMagnet(id string) error {
	err := db.conn.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(magnetBucket)).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete magnet: %w", err)
	}
	return nil
}

// GetOldMagnets returns magnets older than the specified duration.
// Used primarily for cleanup operations.
func (db *BoltDB) GetOldMagnets(olderThan time.Duration) ([]Magnet, error) {
	cutoff := time.Now().Add(-olderThan)
	var magnets []Magnet
	err := db.conn.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(magnetBucket)).ForEach(func(k, v []byte) error {
			var m Magnet
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if m.AddedAt.Before(cutoff) {
				magnets = append(magnets, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get old magnets: %w", err)
	}
	return magnets, nil
}
