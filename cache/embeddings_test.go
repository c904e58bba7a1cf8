package cache

import (
	"math"
	"testing"
)

func TestEmbeddingStoreRoundTrip(t *testing.T) {
	store, err := OpenEmbeddingStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	vector := []float64{0.1, -2.5, 3.14159, 0, math.MaxFloat64}
	if err := store.Put("vaccines: vaccines are safe.", vector); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, ok := store.Get("vaccines: vaccines are safe.")
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(got) != len(vector) {
		t.Fatalf("length = %d, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}

func TestEmbeddingStoreMiss(t *testing.T) {
	store, err := OpenEmbeddingStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if _, ok := store.Get("never stored"); ok {
		t.Error("expected a miss")
	}
}

func TestEmbeddingStoreOverwrite(t *testing.T) {
	store, err := OpenEmbeddingStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if err := store.Put("claim", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("claim", []float64{3}); err != nil {
		t.Fatal(err)
	}

	got, ok := store.Get("claim")
	if !ok || len(got) != 1 || got[0] != 3 {
		t.Errorf("got %v, want [3]", got)
	}
}

func TestVectorEncoding(t *testing.T) {
	vector := []float64{1.5, -0.25, 1e-300}
	decoded := decodeVector(encodeVector(vector))
	for i := range vector {
		if decoded[i] != vector[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], vector[i])
		}
	}
}
