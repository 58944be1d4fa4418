// --- START OF FINAL REVISED FILE pkg/formatter/cache/cache.go ---
package cache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// --- Constants ---

// CacheFileName is the standard name for the clean-file index.
const CacheFileName = ".stackformatter.cache"

// CacheSchemaVersion is the version of the on-disk layout. A mismatch on Load
// invalidates the whole index.
const CacheSchemaVersion = "1.0"

const (
	// DefaultCacheFormat specifies the default serialization format.
	DefaultCacheFormat = CacheFormatGob
	CacheFormatGob     = "gob"
	CacheFormatJSON    = "json"
	CacheFormatMsgpack = "msgpack"
)

// --- Error Variables ---

// ErrCacheLoad indicates the index file exists but could not be opened.
// Undecodable content is a miss, not an error.
var ErrCacheLoad = errors.New("failed to load cache index")

// ErrCachePersist indicates the index could not be written.
var ErrCachePersist = errors.New("failed to persist cache index")

// --- Data Structures ---

// CacheEntry records that a file with a given content hash is already clean
// under a given options fingerprint.
type CacheEntry struct {
	ContentHash   string    `json:"contentHash" msgpack:"contentHash"`
	OptionsHash   string    `json:"optionsHash" msgpack:"optionsHash"`
	CheckedAt     time.Time `json:"checkedAt" msgpack:"checkedAt"`
	SchemaVersion string    `json:"schemaVersion" msgpack:"schemaVersion"`
	ToolVersion   string    `json:"toolVersion" msgpack:"toolVersion"`
}

// CacheFileHeader identifies who wrote an index file.
type CacheFileHeader struct {
	SchemaVersion string `json:"schemaVersion" msgpack:"schemaVersion"`
	ToolVersion   string `json:"toolVersion" msgpack:"toolVersion"`
}

type cacheFile struct {
	Header CacheFileHeader       `json:"header" msgpack:"header"`
	Index  map[string]CacheEntry `json:"index" msgpack:"index"`
}

// FileCacheManager is a file-backed clean-file index. It satisfies
// formatter.CacheManager and is safe for concurrent use.
type FileCacheManager struct {
	index         map[string]CacheEntry
	mu            sync.RWMutex
	logger        *slog.Logger
	schemaVersion string
	toolVersion   string
	format        string
	now           func() time.Time
}

// NewFileCacheManager creates an empty manager. Unknown formats fall back to gob.
func NewFileCacheManager(loggerHandler slog.Handler, toolVersion string, cacheFormat string) *FileCacheManager { // minimal comment
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	format := strings.ToLower(strings.TrimSpace(cacheFormat))
	if !ValidFormat(format) {
		format = DefaultCacheFormat
	}
	if toolVersion == "" {
		toolVersion = "dev"
	}
	logger := slog.New(loggerHandler).With(
		slog.String("component", "cacheManager"),
		slog.String("format", format),
	)
	return &FileCacheManager{
		index:         make(map[string]CacheEntry),
		logger:        logger,
		schemaVersion: CacheSchemaVersion,
		toolVersion:   toolVersion,
		format:        format,
		now:           time.Now,
	}
}

// ValidFormat reports whether format names a supported serialization.
func ValidFormat(format string) bool {
	switch format {
	case CacheFormatGob, CacheFormatJSON, CacheFormatMsgpack:
		return true
	}
	return false
}

// Format returns the serialization in use.
func (c *FileCacheManager) Format() string { return c.format }

// Len returns the number of entries in memory.
func (c *FileCacheManager) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}

// Load replaces the in-memory index with the file at cachePath. A missing,
// empty, corrupt or version-mismatched file leaves an empty index.
func (c *FileCacheManager) Load(cachePath string) error { // minimal comment
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = make(map[string]CacheEntry)

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Info("Cache file not found, starting with an empty index", slog.String("path", cachePath))
			return nil
		}
		c.logger.Error("Critical cache load error", slog.String("path", cachePath), slog.Any("error", err))
		return fmt.Errorf("%w: failed to read cache file '%s': %w", ErrCacheLoad, cachePath, err)
	}
	if len(data) == 0 {
		c.logger.Warn("Cache file is empty, treating as miss", slog.String("path", cachePath))
		return nil
	}

	var loaded cacheFile
	if err := c.decode(data, &loaded); err != nil {
		c.logger.Warn("Failed to decode cache file, treating as miss",
			slog.String("path", cachePath), slog.String("format_expected", c.format), slog.Any("error", err))
		return nil
	}
	if loaded.Header.SchemaVersion != c.schemaVersion {
		c.logger.Warn("Cache file schema version mismatch, invalidating cache",
			slog.String("path", cachePath), slog.String("file_schema", loaded.Header.SchemaVersion))
		return nil
	}
	if !c.compatibleTool(loaded.Header.ToolVersion) {
		c.logger.Warn("Cache file tool version mismatch, invalidating cache",
			slog.String("path", cachePath), slog.String("file_tool", loaded.Header.ToolVersion), slog.String("tool", c.toolVersion))
		return nil
	}
	if loaded.Index != nil {
		c.index = loaded.Index
	}
	c.logger.Info("Cache loaded", slog.String("path", cachePath), slog.Int("entries", len(c.index)))
	return nil
}

// compatibleTool treats "dev" builds as compatible with everything.
func (c *FileCacheManager) compatibleTool(v string) bool {
	return c.toolVersion == "dev" || v == "dev" || v == c.toolVersion
}

// Check reports whether path is known clean for both hashes.
func (c *FileCacheManager) Check(path string, contentHash string, optionsHash string) bool { // minimal comment
	key := filepath.Clean(path)
	c.mu.RLock()
	entry, found := c.index[key]
	c.mu.RUnlock()

	logger := c.logger.With(slog.String("path", key))
	switch {
	case !found:
		logger.Debug("Cache check: miss (entry not found)")
		return false
	case entry.SchemaVersion != c.schemaVersion || !c.compatibleTool(entry.ToolVersion):
		logger.Debug("Cache check: miss (entry version mismatch)")
		return false
	case entry.ContentHash != contentHash:
		logger.Debug("Cache check: miss (content changed)")
		return false
	case entry.OptionsHash != optionsHash:
		logger.Debug("Cache check: miss (options changed)")
		return false
	}
	logger.Debug("Cache check: hit")
	return true
}

// Update records path as clean.
func (c *FileCacheManager) Update(path string, contentHash string, optionsHash string) error { // minimal comment
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[filepath.Clean(path)] = CacheEntry{
		ContentHash:   contentHash,
		OptionsHash:   optionsHash,
		CheckedAt:     c.now(),
		SchemaVersion: c.schemaVersion,
		ToolVersion:   c.toolVersion,
	}
	return nil
}

// Persist writes the index atomically. An empty index removes the file.
func (c *FileCacheManager) Persist(cachePath string) error { // minimal comment
	c.mu.RLock()
	snapshot := maps.Clone(c.index)
	c.mu.RUnlock()

	if len(snapshot) == 0 {
		if err := os.Remove(cachePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to remove empty cache file", slog.String("path", cachePath), slog.Any("error", err))
		}
		return nil
	}

	data, err := c.encode(cacheFile{
		Header: CacheFileHeader{SchemaVersion: c.schemaVersion, ToolVersion: c.toolVersion},
		Index:  snapshot,
	})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrCachePersist, c.format, err)
	}

	cacheDir := filepath.Dir(cachePath)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to ensure cache directory exists '%s': %w", ErrCachePersist, cacheDir, err)
	}
	tempFile, err := os.CreateTemp(cacheDir, filepath.Base(cachePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary cache file in '%s': %w", ErrCachePersist, cacheDir, err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: failed to write temporary cache file: %w", ErrCachePersist, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: failed to close temporary cache file: %w", ErrCachePersist, err)
	}
	if err := os.Rename(tempPath, cachePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: failed to rename temporary cache file to '%s': %w", ErrCachePersist, cachePath, err)
	}
	c.logger.Debug("Cache persisted", slog.String("path", cachePath), slog.Int("entries", len(snapshot)))
	return nil
}

func (c *FileCacheManager) encode(v cacheFile) ([]byte, error) {
	switch c.format {
	case CacheFormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case CacheFormatMsgpack:
		return msgpack.Marshal(v)
	default:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func (c *FileCacheManager) decode(data []byte, v *cacheFile) error {
	switch c.format {
	case CacheFormatJSON:
		return json.Unmarshal(data, v)
	case CacheFormatMsgpack:
		return msgpack.Unmarshal(data, v)
	default:
		return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
	}
}

// --- END OF FINAL REVISED FILE pkg/formatter/cache/cache.go ---
