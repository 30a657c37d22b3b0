package program

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSourceCacheSize is the number of files a SourceCache keeps.
const DefaultSourceCacheSize = 2048

// ContentReader reads file content given a file path.
type ContentReader func(filePath string) ([]byte, error)

type cachedSource struct {
	modTime time.Time
	size    int64
	content []byte
}

// SourceCache keeps recently read files keyed by path. An entry is only served
// while the file's modification time and size are unchanged.
type SourceCache struct {
	entries *lru.Cache[string, cachedSource]
}

// NewSourceCache creates a cache holding up to size files.
func NewSourceCache(size int) (*SourceCache, error) {
	entries, err := lru.New[string, cachedSource](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	return &SourceCache{entries: entries}, nil
}

func (c *SourceCache) read(fileName string, info os.FileInfo, reader ContentReader) ([]byte, error) {
	if c == nil {
		return reader(fileName)
	}
	if entry, ok := c.entries.Get(fileName); ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.content, nil
	}
	content, err := reader(fileName)
	if err != nil {
		return nil, err
	}
	c.entries.Add(fileName, cachedSource{modTime: info.ModTime(), size: info.Size(), content: content})
	return content, nil
}

// Len returns the number of cached files.
func (c *SourceCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// CompilerHost is the file-system backed resolution host of a compilation.
// File names it accepts and returns are absolute and slash-separated.
type CompilerHost struct {
	currentDir string
	cache      *SourceCache
}

// NewCompilerHost creates a host rooted at the process working directory.
// cache may be nil.
func NewCompilerHost(cache *SourceCache) (*CompilerHost, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return &CompilerHost{currentDir: filepath.ToSlash(wd), cache: cache}, nil
}

// ReadFile returns the content of fileName.
func (h *CompilerHost) ReadFile(fileName string) ([]byte, error) {
	native := filepath.FromSlash(fileName)
	info, err := os.Stat(native)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to read %s: is a directory", fileName)
	}
	return h.cache.read(fileName, info, func(string) ([]byte, error) {
		return os.ReadFile(native)
	})
}

// FileExists reports whether fileName is a regular file.
func (h *CompilerHost) FileExists(fileName string) bool {
	info, err := os.Stat(filepath.FromSlash(fileName))
	return err == nil && !info.IsDir()
}

// GetCurrentDirectory returns the directory relative names resolve against.
func (h *CompilerHost) GetCurrentDirectory() string {
	return h.currentDir
}

// GetCanonicalFileName returns the absolute, slash-separated form of fileName.
func (h *CompilerHost) GetCanonicalFileName(fileName string) string {
	return CanonicalFileName(h.currentDir, fileName)
}

// CanonicalFileName normalizes fileName to an absolute slash-separated path,
// independent of the host OS separator.
func CanonicalFileName(currentDir, fileName string) string {
	normalized := filepath.ToSlash(fileName)
	if !path.IsAbs(normalized) && filepath.VolumeName(fileName) == "" {
		normalized = path.Join(currentDir, normalized)
	}
	return path.Clean(normalized)
}
