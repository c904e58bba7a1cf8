package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"claimlens-backend/cache"
)

// EmbeddingCache memoizes embeddings by normalized claim text for the
// lifetime of one pipeline run, optionally backed by a persistent store.
// The map is append-only: concurrent readers are safe and each key is
// written at most once.
type EmbeddingCache struct {
	mu      sync.RWMutex
	client  EmbeddingClient
	store   *cache.EmbeddingStore
	vectors map[string][]float64
}

// NewEmbeddingCache creates a per-run cache. store may be nil.
func NewEmbeddingCache(client EmbeddingClient, store *cache.EmbeddingStore) *EmbeddingCache {
	return &EmbeddingCache{
		client:  client,
		store:   store,
		vectors: make(map[string][]float64),
	}
}

// Get returns the embedding for a claim, computing and caching it on miss
func (c *EmbeddingCache) Get(ctx context.Context, claim string) ([]float64, error) {
	key := NormalizeClaim(claim)

	c.mu.RLock()
	vector, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		return vector, nil
	}

	if c.store != nil {
		if vector, ok := c.store.Get(key); ok {
			c.put(key, vector)
			return vector, nil
		}
	}

	vector, err := c.client.Embed(ctx, key)
	if err != nil {
		return nil, err
	}
	c.put(key, vector)

	if c.store != nil {
		if err := c.store.Put(key, vector); err != nil {
			// Persistence is best-effort; the in-run cache already has it
			return vector, nil
		}
	}
	return vector, nil
}

func (c *EmbeddingCache) put(key string, vector []float64) {
	c.mu.Lock()
	c.vectors[key] = vector
	c.mu.Unlock()
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). Mismatched or
// zero-norm vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ClusterClaims groups semantically near-duplicate claims. Claims are
// embedded (through the cache), a full pairwise cosine matrix is built, and
// clusters form greedily: each unclustered claim seeds a cluster and absorbs
// every later unclustered claim whose similarity to the seed exceeds the
// threshold. Seed-based single-link, so members are similar to the seed but
// not necessarily to each other.
//
// Returned clusters hold indices into the input slice; the first index of
// each cluster is its seed. Input order is preserved.
func ClusterClaims(ctx context.Context, embeddings *EmbeddingCache, claims []string, threshold float64, batchSize int) ([][]int, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	vectors, err := RunBatches(ctx, claims, func(ctx context.Context, claim string) ([]float64, error) {
		return embeddings.Get(ctx, claim)
	}, BatchOptions{BatchSize: batchSize, OperationName: "embed-claims"})
	if err != nil {
		return nil, fmt.Errorf("failed to embed claims: %w", err)
	}

	n := len(claims)
	similarity := make([][]float64, n)
	for i := range similarity {
		similarity[i] = make([]float64, n)
		for j := range similarity[i] {
			if i == j {
				similarity[i][j] = 1
			} else if j < i {
				similarity[i][j] = similarity[j][i]
			} else {
				similarity[i][j] = CosineSimilarity(vectors[i], vectors[j])
			}
		}
	}

	used := make([]bool, n)
	var clusters [][]int
	for seed := 0; seed < n; seed++ {
		if used[seed] {
			continue
		}
		used[seed] = true
		cluster := []int{seed}
		for j := seed + 1; j < n; j++ {
			if !used[j] && similarity[seed][j] >= threshold {
				used[j] = true
				cluster = append(cluster, j)
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters, nil
}
