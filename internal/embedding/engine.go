package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/modelscout/modelscout/internal/models"
	"github.com/modelscout/modelscout/internal/vector"
)

// ErrNotReady is returned when the engine failed to initialize or has not
// been initialized yet. Callers must route to fallback classification rather
// than retrying.
var ErrNotReady = errors.New("embedding engine not ready")

// Factory creates the underlying embedder once model weights are available.
type Factory func(modelPath string, dimensions, maxTokens, cacheSize int) (Embedder, error)

// Options configures an Engine.
type Options struct {
	ModelName  string
	ModelsDir  string
	ModelURL   string
	Dimensions int
	MaxTokens  int
	CacheSize  int
	// InitTimeout bounds the whole initialization (download + load + corpus
	// embedding). Zero means no timeout.
	InitTimeout     time.Duration
	DisableDownload bool
	// CorpusIndexPath, when set, persists reference embeddings so warm starts
	// skip re-embedding an unchanged corpus.
	CorpusIndexPath string
	Observer        Observer
	Logger          *zap.Logger
	Factory         Factory
	Downloader      Downloader
}

// Engine wraps an embedder with lazy, idempotent initialization and holds the
// pre-embedded reference corpus. Initialization runs at most once: concurrent
// callers await the same in-flight load via singleflight, and once it has
// completed (successfully or not) the stored outcome is returned directly.
type Engine struct {
	opts  Options
	group singleflight.Group

	mu       sync.RWMutex
	seeds    []models.ReferenceExample
	refs     map[string]models.ReferenceExample // key -> embedded reference
	index    *vector.MemoryIndex
	embedder Embedder
	ready    bool
	done     bool
	initErr  error
	loadTime time.Duration
}

// NewEngine creates an engine over the given corpus seeds. Nothing is loaded
// until Initialize (or the first classification) runs.
func NewEngine(seeds []models.ReferenceExample, opts Options) *Engine {
	if opts.Factory == nil {
		opts.Factory = func(modelPath string, dimensions, maxTokens, cacheSize int) (Embedder, error) {
			return NewONNXEmbedder(modelPath, dimensions, maxTokens, cacheSize)
		}
	}
	if opts.Downloader == nil {
		opts.Downloader = HTTPDownload
	}
	return &Engine{
		opts:  opts,
		seeds: seeds,
		refs:  make(map[string]models.ReferenceExample),
	}
}

// refKey identifies a reference example across reloads.
func refKey(r models.ReferenceExample) string {
	return r.Category + "|" + r.Subcategory + "|" + r.Text
}

// Initialize acquires model weights (cache first, then remote), loads the
// embedder, and pre-computes the embedding for every reference seed. It is
// idempotent and safe under concurrent callers. A failed initialization is
// terminal: subsequent calls return the stored error without retrying.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.RLock()
	if e.done {
		err := e.initErr
		e.mu.RUnlock()
		return err
	}
	e.mu.RUnlock()

	result := e.group.DoChan("init", func() (interface{}, error) {
		// Detached from the triggering caller so one caller's cancellation
		// does not abort initialization for everyone awaiting it.
		initCtx := context.Background()
		if e.opts.InitTimeout > 0 {
			var cancel context.CancelFunc
			initCtx, cancel = context.WithTimeout(initCtx, e.opts.InitTimeout)
			defer cancel()
		}
		err := e.initialize(initCtx)
		e.mu.Lock()
		e.done = true
		e.initErr = err
		e.ready = err == nil
		e.mu.Unlock()
		return nil, err
	})

	select {
	case res := <-result:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) initialize(ctx context.Context) error {
	start := time.Now()
	observer := e.opts.Observer

	modelPath, err := e.acquireWeights(ctx)
	if err != nil {
		observer.emit(Event{Status: StatusError, Message: err.Error()})
		return fmt.Errorf("acquire model weights: %w", err)
	}

	observer.emit(Event{Status: StatusLoading, Message: e.opts.ModelName})
	embedder, err := e.opts.Factory(modelPath, e.opts.Dimensions, e.opts.MaxTokens, e.opts.CacheSize)
	if err != nil {
		observer.emit(Event{Status: StatusError, Message: err.Error()})
		return fmt.Errorf("load embedder: %w", err)
	}

	observer.emit(Event{Status: StatusProcessing, Message: "embedding reference corpus"})
	index, refs, err := e.embedCorpus(ctx, embedder)
	if err != nil {
		_ = embedder.Close()
		observer.emit(Event{Status: StatusError, Message: err.Error()})
		return fmt.Errorf("embed reference corpus: %w", err)
	}

	e.mu.Lock()
	e.embedder = embedder
	e.index = index
	e.refs = refs
	e.loadTime = time.Since(start)
	e.mu.Unlock()

	if e.opts.CorpusIndexPath != "" {
		if saveErr := index.Save(e.opts.CorpusIndexPath); saveErr != nil && e.opts.Logger != nil {
			e.opts.Logger.Warn("corpus index save failed",
				zap.String("path", e.opts.CorpusIndexPath), zap.Error(saveErr))
		}
	}

	observer.emit(Event{Status: StatusReady, Message: e.opts.ModelName})
	if e.opts.Logger != nil {
		e.opts.Logger.Info("embedding engine ready",
			zap.String("model", e.opts.ModelName),
			zap.Int("references", len(refs)),
			zap.Duration("load_time", time.Since(start)))
	}
	return nil
}

// acquireWeights returns the local weights path, downloading on first use.
func (e *Engine) acquireWeights(ctx context.Context) (string, error) {
	modelPath := filepath.Join(e.opts.ModelsDir, e.opts.ModelName+".onnx")
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}
	if e.opts.DisableDownload || e.opts.ModelURL == "" {
		// No cached weights and no remote source. The factory decides whether
		// that is fatal (the mock embedder ignores the path entirely).
		return modelPath, nil
	}
	observer := e.opts.Observer
	observer.emit(Event{Status: StatusDownloading, Percent: 0, Message: e.opts.ModelName})
	err := e.opts.Downloader(ctx, e.opts.ModelURL, modelPath, func(percent float64) {
		observer.emit(Event{Status: StatusDownloading, Percent: percent, Message: e.opts.ModelName})
	})
	if err != nil {
		return "", err
	}
	return modelPath, nil
}

// embedCorpus computes embeddings for all seeds, reusing any persisted corpus
// index entries whose key matches.
func (e *Engine) embedCorpus(ctx context.Context, embedder Embedder) (*vector.MemoryIndex, map[string]models.ReferenceExample, error) {
	e.mu.RLock()
	seeds := make([]models.ReferenceExample, len(e.seeds))
	copy(seeds, e.seeds)
	e.mu.RUnlock()

	index, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, nil, err
	}

	cached, _ := vector.NewMemoryIndex(embedder.Dimensions())
	if e.opts.CorpusIndexPath != "" {
		if loadErr := cached.Load(e.opts.CorpusIndexPath); loadErr != nil && e.opts.Logger != nil {
			e.opts.Logger.Warn("corpus index load skipped",
				zap.String("path", e.opts.CorpusIndexPath), zap.Error(loadErr))
		}
	}

	refs := make(map[string]models.ReferenceExample, len(seeds))
	var missing []models.ReferenceExample
	for _, seed := range seeds {
		key := refKey(seed)
		if vec, ok := cached.Vector(key); ok {
			seed.Embedding = vec
			refs[key] = seed
			if err := index.Add(ctx, []string{key}, [][]float32{vec}); err != nil {
				return nil, nil, err
			}
			continue
		}
		missing = append(missing, seed)
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, seed := range missing {
			texts[i] = seed.Text
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, err
		}
		for i, seed := range missing {
			key := refKey(seed)
			seed.Embedding = vectors[i]
			refs[key] = seed
			if err := index.Add(ctx, []string{key}, [][]float32{vectors[i]}); err != nil {
				return nil, nil, err
			}
		}
	}
	return index, refs, nil
}

// Ready reports whether the engine initialized successfully.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Embed returns the embedding for text. ErrNotReady when initialization has
// not completed successfully.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	embedder := e.embedder
	ready := e.ready
	e.mu.RUnlock()
	if !ready || embedder == nil {
		return nil, ErrNotReady
	}
	return embedder.Embed(ctx, text)
}

// Search embeds nothing; it scores the given query vector against every
// reference embedding and returns the k most similar as neighbor matches.
func (e *Engine) Search(ctx context.Context, query []float32, k int) ([]models.NeighborMatch, error) {
	e.mu.RLock()
	index := e.index
	ready := e.ready
	e.mu.RUnlock()
	if !ready || index == nil {
		return nil, ErrNotReady
	}
	hits, err := index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	matches := make([]models.NeighborMatch, 0, len(hits))
	for _, hit := range hits {
		ref, ok := e.refs[hit.ID]
		if !ok {
			continue
		}
		matches = append(matches, models.NeighborMatch{
			Text:        ref.Text,
			Category:    ref.Category,
			Subcategory: ref.Subcategory,
			Similarity:  hit.Score,
		})
	}
	return matches, nil
}

// UpdateSeeds replaces the corpus seeds. When the engine is ready, only new
// seeds are embedded and removed ones are dropped from the index; reference
// embeddings are independent of each other, so incremental append is safe.
// When not yet initialized, the seeds simply replace the pending set.
func (e *Engine) UpdateSeeds(ctx context.Context, seeds []models.ReferenceExample) error {
	e.mu.Lock()
	e.seeds = make([]models.ReferenceExample, len(seeds))
	copy(e.seeds, seeds)
	ready := e.ready
	embedder := e.embedder
	index := e.index
	e.mu.Unlock()
	if !ready {
		return nil
	}

	wanted := make(map[string]models.ReferenceExample, len(seeds))
	for _, seed := range seeds {
		wanted[refKey(seed)] = seed
	}

	e.mu.RLock()
	var stale []string
	var added []models.ReferenceExample
	for key := range e.refs {
		if _, ok := wanted[key]; !ok {
			stale = append(stale, key)
		}
	}
	for key, seed := range wanted {
		if _, ok := e.refs[key]; !ok {
			added = append(added, seed)
		}
	}
	e.mu.RUnlock()

	if len(added) > 0 {
		texts := make([]string, len(added))
		for i, seed := range added {
			texts[i] = seed.Text
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed new references: %w", err)
		}
		for i := range added {
			added[i].Embedding = vectors[i]
		}
	}

	e.mu.Lock()
	for _, key := range stale {
		delete(e.refs, key)
	}
	for _, seed := range added {
		e.refs[refKey(seed)] = seed
	}
	e.mu.Unlock()

	if len(stale) > 0 {
		if err := index.Remove(ctx, stale); err != nil {
			return err
		}
	}
	for _, seed := range added {
		if err := index.Add(ctx, []string{refKey(seed)}, [][]float32{seed.Embedding}); err != nil {
			return err
		}
	}
	if e.opts.CorpusIndexPath != "" {
		if err := index.Save(e.opts.CorpusIndexPath); err != nil && e.opts.Logger != nil {
			e.opts.Logger.Warn("corpus index save failed", zap.Error(err))
		}
	}
	if e.opts.Logger != nil {
		e.opts.Logger.Info("reference corpus updated",
			zap.Int("added", len(added)), zap.Int("removed", len(stale)))
	}
	return nil
}

// References returns the embedded reference corpus.
func (e *Engine) References() []models.ReferenceExample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.ReferenceExample, 0, len(e.refs))
	for _, ref := range e.refs {
		out = append(out, ref)
	}
	return out
}

// ReferenceCount returns the number of embedded references.
func (e *Engine) ReferenceCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.refs)
}

// ModelName returns the configured model name.
func (e *Engine) ModelName() string { return e.opts.ModelName }

// Dimensions returns the configured embedding dimension.
func (e *Engine) Dimensions() int { return e.opts.Dimensions }

// LoadTime returns how long initialization took, zero if not initialized.
func (e *Engine) LoadTime() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadTime
}

// Close releases the underlying embedder.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.embedder != nil {
		err := e.embedder.Close()
		e.embedder = nil
		e.ready = false
		return err
	}
	return nil
}
