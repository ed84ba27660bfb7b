package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	err = idx.Add(ctx,
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0.6, 0.8, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("expected a with score 1, got %s %f", results[0].ID, results[0].Score)
	}
	if results[1].ID != "c" {
		t.Errorf("expected c second, got %s", results[1].ID)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx, _ := NewMemoryIndex(3)
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error on dimension mismatch")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected error on query dimension mismatch")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Remove(ctx, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1 after remove, got %d", idx.Size())
	}
	if idx.Has("a") {
		t.Error("removed id should not be present")
	}
	if !idx.Has("b") {
		t.Error("remaining id should be present")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.idx")
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"x", "y"}, [][]float32{{0.6, 0.8}, {1, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("expected 2 vectors after load, got %d", loaded.Size())
	}
	vec, ok := loaded.Vector("x")
	if !ok {
		t.Fatal("vector x missing after load")
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Errorf("vector not round-tripped: %v", vec)
	}

	wrongDim, _ := NewMemoryIndex(3)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryIndex_LoadMissingFileIsNoop(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	if err := idx.Load(filepath.Join(t.TempDir(), "missing.idx")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
	if idx.Size() != 0 {
		t.Error("index should be unchanged")
	}
}

func TestInnerProduct(t *testing.T) {
	if got := InnerProduct([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors should have 0 product, got %f", got)
	}
	if got := InnerProduct([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("length mismatch should return 0, got %f", got)
	}
	got := InnerProduct([]float32{0.6, 0.8}, []float32{0.6, 0.8})
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("unit self-product should be 1, got %f", got)
	}
}
