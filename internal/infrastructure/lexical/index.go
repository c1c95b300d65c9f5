// Package lexical keeps a term-matching index over the chunk corpus as a
// complement to dense retrieval. The bleve index is expensive to build, so
// it is constructed lazily on first query and cached until invalidated;
// every successful corpus add must invalidate it so stale state is never
// served. The corpus itself can be mirrored to a disk snapshot, which is how
// the api process sees chunks the worker indexes: queries re-stat the
// snapshot and reload it whenever another process has rewritten it.
package lexical

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

type Index struct {
	snapshotPath string

	mu     sync.Mutex
	corpus []domain.Chunk
	index  bleve.Index
	dirty  bool

	// fingerprint of the snapshot the corpus was last synced with
	snapLoaded bool
	snapMod    time.Time
	snapSize   int64
}

// New builds a memory-only index with no snapshot.
func New() *Index {
	return &Index{}
}

// NewPersistent builds an index whose corpus is mirrored to a JSON snapshot
// at path. An existing snapshot is loaded immediately; its presence is what
// marks an already-populated store.
func NewPersistent(path string) (*Index, error) {
	ix := &Index{snapshotPath: path}
	if err := ix.refreshSnapshot(); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *Index) Add(chunks []domain.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.refreshSnapshot(); err != nil {
		return err
	}
	ix.corpus = append(ix.corpus, chunks...)
	return ix.saveSnapshot()
}

// Invalidate drops the cached bleve index; the next query rebuilds it from
// the full corpus.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dirty = true
}

// Reset drops the corpus, the cached index and the snapshot file.
func (ix *Index) Reset() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.corpus = nil
	ix.dirty = false
	ix.snapLoaded = false
	if ix.index != nil {
		_ = ix.index.Close()
		ix.index = nil
	}

	if ix.snapshotPath == "" {
		return nil
	}
	if err := os.Remove(ix.snapshotPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove corpus snapshot: %w", err)
	}
	return nil
}

func (ix *Index) TopK(query string, k int) ([]domain.Chunk, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.refreshSnapshot(); err != nil {
		return nil, err
	}
	if len(ix.corpus) == 0 || k <= 0 {
		return nil, nil
	}

	if err := ix.ensureIndex(); err != nil {
		return nil, err
	}

	request := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	result, err := ix.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	out := make([]domain.Chunk, 0, len(result.Hits))
	for _, hit := range result.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(ix.corpus) {
			continue
		}
		out = append(out, ix.corpus[pos])
	}
	return out, nil
}

func (ix *Index) saveSnapshot() error {
	if ix.snapshotPath == "" {
		return nil
	}
	data, err := json.Marshal(ix.corpus)
	if err != nil {
		return fmt.Errorf("encode corpus snapshot: %w", err)
	}
	if err := os.WriteFile(ix.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("write corpus snapshot: %w", err)
	}
	if info, err := os.Stat(ix.snapshotPath); err == nil {
		ix.snapLoaded = true
		ix.snapMod = info.ModTime()
		ix.snapSize = info.Size()
	}
	return nil
}

// refreshSnapshot reconciles the in-memory corpus with the snapshot file.
// Another process rewriting the snapshot changes its mtime or size; a removed
// snapshot (a reset elsewhere) empties the corpus. Callers hold ix.mu.
func (ix *Index) refreshSnapshot() error {
	if ix.snapshotPath == "" {
		return nil
	}

	info, err := os.Stat(ix.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		if ix.snapLoaded {
			ix.corpus = nil
			ix.dirty = true
			ix.snapLoaded = false
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat corpus snapshot: %w", err)
	}
	if ix.snapLoaded && info.ModTime().Equal(ix.snapMod) && info.Size() == ix.snapSize {
		return nil
	}

	data, err := os.ReadFile(ix.snapshotPath)
	if err != nil {
		return fmt.Errorf("read corpus snapshot: %w", err)
	}
	var corpus []domain.Chunk
	if err := json.Unmarshal(data, &corpus); err != nil {
		return fmt.Errorf("decode corpus snapshot: %w", err)
	}

	ix.corpus = corpus
	ix.dirty = true
	ix.snapLoaded = true
	ix.snapMod = info.ModTime()
	ix.snapSize = info.Size()
	return nil
}

func (ix *Index) ensureIndex() error {
	if ix.index != nil && !ix.dirty {
		return nil
	}
	if ix.index != nil {
		_ = ix.index.Close()
		ix.index = nil
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create lexical index: %w", err)
	}

	batch := index.NewBatch()
	for i, chunk := range ix.corpus {
		doc := map[string]any{
			"text":   chunk.Text,
			"source": chunk.Metadata.Source,
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("index chunk %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("apply lexical batch: %w", err)
	}

	ix.index = index
	ix.dirty = false
	return nil
}
