package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codefionn/codeflink/internal/logger"
)

// FileInfo represents file metadata
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// FileSystem is an abstraction over filesystem operations
type FileSystem interface {
	// ReadFile reads the entire file
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile writes data to a file, creating parent directories
	WriteFile(ctx context.Context, path string, data []byte) error
	// Stat returns file information
	Stat(ctx context.Context, path string) (*FileInfo, error)
	// ListDir lists directory contents
	ListDir(ctx context.Context, path string) ([]*FileInfo, error)
	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)
}

// CachedFS is a filesystem implementation with directory listing cache
type CachedFS struct {
	baseDir    string
	dirCache   map[string]*dirCacheEntry
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
	maxEntries int
	watcher    *fsnotify.Watcher
	stopWatch  chan struct{}
}

type dirCacheEntry struct {
	entries   []*FileInfo
	timestamp time.Time
}

// NewCachedFS creates a new cached filesystem with fsnotify invalidation
func NewCachedFS(baseDir string, cacheTTL time.Duration, maxEntries int) *CachedFS {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Global().Warn("failed to create file watcher: %v", err)
	}

	cfs := &CachedFS{
		baseDir:    baseDir,
		dirCache:   make(map[string]*dirCacheEntry),
		cacheTTL:   cacheTTL,
		maxEntries: maxEntries,
		watcher:    watcher,
		stopWatch:  make(chan struct{}),
	}

	if watcher != nil {
		go cfs.watchFiles()
	}

	return cfs
}

// Close closes the filesystem watcher
func (cfs *CachedFS) Close() error {
	close(cfs.stopWatch)
	if cfs.watcher != nil {
		return cfs.watcher.Close()
	}
	return nil
}

// watchFiles monitors filesystem events and invalidates cache
func (cfs *CachedFS) watchFiles() {
	for {
		select {
		case <-cfs.stopWatch:
			return
		case event, ok := <-cfs.watcher.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(event.Name)
			cfs.cacheMu.Lock()
			delete(cfs.dirCache, dir)
			cfs.cacheMu.Unlock()
		case err, ok := <-cfs.watcher.Errors:
			if !ok {
				return
			}
			logger.Global().Error("filesystem watcher error: %v", err)
		}
	}
}

// InvalidateDirCache removes a directory from cache
func (cfs *CachedFS) InvalidateDirCache(path string) {
	cfs.cacheMu.Lock()
	defer cfs.cacheMu.Unlock()
	delete(cfs.dirCache, cfs.absPath(path))
}

func (cfs *CachedFS) absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfs.baseDir, path)
}

func (cfs *CachedFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	// No caching for file reads, always read from disk
	return os.ReadFile(cfs.absPath(path))
}

func (cfs *CachedFS) WriteFile(ctx context.Context, path string, data []byte) error {
	absPath := cfs.absPath(path)

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return err
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return err
	}

	cfs.InvalidateDirCache(filepath.Dir(path))

	if cfs.watcher != nil {
		if err := cfs.watcher.Add(filepath.Dir(absPath)); err != nil {
			logger.Global().Warn("CachedFS: failed to add watcher for %s: %v", absPath, err)
		}
	}

	return nil
}

func (cfs *CachedFS) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := os.Stat(cfs.absPath(path))
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

func (cfs *CachedFS) ListDir(ctx context.Context, path string) ([]*FileInfo, error) {
	absPath := cfs.absPath(path)

	cfs.cacheMu.RLock()
	if entry, ok := cfs.dirCache[absPath]; ok {
		if time.Since(entry.timestamp) < cfs.cacheTTL {
			cfs.cacheMu.RUnlock()
			return entry.entries, nil
		}
	}
	cfs.cacheMu.RUnlock()

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}

	result := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, &FileInfo{
			Path:    filepath.Join(path, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}

	cfs.cacheMu.Lock()
	if len(cfs.dirCache) >= cfs.maxEntries {
		// Simple eviction: remove oldest entry
		var oldestKey string
		var oldestTime time.Time
		for k, v := range cfs.dirCache {
			if oldestKey == "" || v.timestamp.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.timestamp
			}
		}
		delete(cfs.dirCache, oldestKey)
	}
	cfs.dirCache[absPath] = &dirCacheEntry{
		entries:   result,
		timestamp: time.Now(),
	}
	cfs.cacheMu.Unlock()

	if cfs.watcher != nil {
		if err := cfs.watcher.Add(absPath); err != nil {
			logger.Global().Warn("CachedFS: failed to add watcher for %s: %v", absPath, err)
		}
	}

	return result, nil
}

func (cfs *CachedFS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(cfs.absPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
