package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/bcqa/bcqa-backend/internal/pkg/errors"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
)

const loadConcurrency = 4

// Registry loads template definition files from a directory and serves them
// by template_id. The cache is shared across the process: lookups take a read
// lock, reloads insert each fully-validated template under the write lock, so
// no lookup ever observes a partially-built template.
type Registry struct {
	dir string
	log *logger.Logger

	mu    sync.RWMutex
	cache map[string]*Template
}

func NewRegistry(dir string, baseLog *logger.Logger) *Registry {
	return &Registry{
		dir:   dir,
		log:   baseLog.With("component", "TemplateRegistry", "dir", dir),
		cache: make(map[string]*Template),
	}
}

// LoadAll parses and validates every template definition file in the
// directory. A malformed file is logged and skipped; it does not abort the
// rest of the load. A missing directory is logged and yields an empty set.
func (r *Registry) LoadAll(ctx context.Context) ([]*Template, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Warn("Templates directory does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(r.dir, e.Name()))
		}
	}

	var (
		outMu sync.Mutex
		out   []*Template
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := ParseFile(path)
			if err != nil {
				r.log.Warn("Skipping malformed template", "file", filepath.Base(path), "error", err)
				return nil
			}
			r.mu.Lock()
			r.cache[t.Meta.TemplateID] = t
			r.mu.Unlock()
			outMu.Lock()
			out = append(out, t)
			outMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Meta.TemplateID < out[j].Meta.TemplateID
	})
	r.log.Debug("Templates loaded", "count", len(out))
	return out, nil
}

// Get returns the cached template for id. On a miss it reloads the directory
// once, to pick up templates added after process start, before reporting
// not-found.
func (r *Registry) Get(ctx context.Context, id string) (*Template, error) {
	r.mu.RLock()
	t, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	if _, err := r.LoadAll(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	t, ok = r.cache[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrTemplateNotFound, id)
	}
	return t, nil
}
