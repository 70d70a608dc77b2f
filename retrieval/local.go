package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

const manifestName = ".manifest"

// Local is a directory-backed retrieval. Every regular file in the directory
// is one item; the file name is its identifier. A hidden manifest file holds
// the cached id list.
type Local struct {
	basePath string
	log      *logger.Logger
}

// NewLocal creates a Local retrieval rooted at basePath.
func NewLocal(basePath string) (*Local, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("retrieval: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("retrieval: create base directory: %w", err)
	}
	return &Local{
		basePath: abs,
		log:      logger.Get("retrieval"),
	}, nil
}

// List enumerates the file names in the base directory, sorted.
func (l *Local) List(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, errors.RetrievalFailed("list", err)
	}

	ids := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		ids = append(ids, de.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Fetch reads the payload file for the given id.
func (l *Local) Fetch(_ context.Context, id string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(l.basePath, filepath.Clean(id)))
	if err != nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("id", id)
	}
	return raw, nil
}

// IsCached reports whether the id manifest exists.
func (l *Local) IsCached() bool {
	_, err := os.Stat(l.manifestPath())
	return err == nil
}

// LoadFromCache rebuilds entities from the manifest's id list.
func (l *Local) LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error) {
	raw, err := os.ReadFile(l.manifestPath())
	if err != nil {
		return nil, errors.CacheFailed("read", err)
	}

	var entities []entity.Entity
	for _, id := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if id == "" {
			continue
		}
		e, err := f(ctx, id, l)
		if err != nil {
			return nil, errors.CacheFailed("load", err).WithDetail("id", id)
		}
		entities = append(entities, e)
	}

	l.log.Info("loaded entities from cache", logger.Fields(logger.FieldCount, len(entities)))
	return entities, nil
}

// Cache persists the entity id list to the manifest.
func (l *Local) Cache(_ context.Context, entities []entity.Entity) error {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.UniqueID()
	}
	if err := os.WriteFile(l.manifestPath(), []byte(strings.Join(ids, "\n")), 0o640); err != nil {
		return errors.CacheFailed("write", err)
	}
	l.log.Debug("cached entity ids", logger.Fields(logger.FieldCount, len(ids)))
	return nil
}

func (l *Local) manifestPath() string {
	return filepath.Join(l.basePath, manifestName)
}
