package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var embeddingBucket = []byte("embeddings")

// EmbeddingStore persists claim embeddings across runs in a bbolt file so
// repeat analyses of the same video skip the embedding API entirely.
// Vectors are stored as little-endian float64 sequences keyed by the
// normalized claim text.
type EmbeddingStore struct {
	db *bolt.DB
}

// OpenEmbeddingStore opens (or creates) the store under dir
func OpenEmbeddingStore(dir string) (*EmbeddingStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create embedding cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "embeddings.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(embeddingBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embedding bucket: %w", err)
	}

	return &EmbeddingStore{db: db}, nil
}

// Get returns the stored vector for a claim, or (nil, false) when absent
func (s *EmbeddingStore) Get(claim string) ([]float64, bool) {
	var vector []float64
	s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(embeddingBucket).Get([]byte(claim))
		if data == nil || len(data)%8 != 0 {
			return nil
		}
		vector = decodeVector(data)
		return nil
	})
	return vector, vector != nil
}

// Put stores a vector for a claim
func (s *EmbeddingStore) Put(claim string, vector []float64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(embeddingBucket).Put([]byte(claim), encodeVector(vector))
	})
}

// Close closes the underlying bbolt file
func (s *EmbeddingStore) Close() error {
	return s.db.Close()
}

func encodeVector(vector []float64) []byte {
	buf := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float64 {
	vector := make([]float64, len(data)/8)
	for i := range vector {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vector
}
