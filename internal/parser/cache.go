package parser

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// cacheSchemaVersion is bumped whenever the cached tree shape changes.
const cacheSchemaVersion uint16 = 1

// cacheEntry is the on-disk record for one parsed fragment.
type cacheEntry struct {
	Schema  uint16                 `msgpack:"schema"`
	Backend string                 `msgpack:"backend"`
	Tree    map[string]interface{} `msgpack:"tree"`
}

// CachingParser memoizes another parser's results on disk, keyed by the
// backend name and the exact source bytes. Cache problems are logged and
// bypassed; they never fail a parse.
type CachingParser struct {
	inner  Parser
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewCachingParser wraps inner with a cache rooted at dir.
func NewCachingParser(inner Parser, dir string, logger *slog.Logger) (*CachingParser, error) {
	if inner == nil {
		return nil, mberrors.New(mberrors.InternalError, "caching parser needs an inner parser")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, fmt.Sprintf("create parse cache %s", dir), err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingParser{inner: inner, dir: dir, logger: logger}, nil
}

// Name implements Parser.
func (c *CachingParser) Name() string { return c.inner.Name() }

// Parse implements Parser.
func (c *CachingParser) Parse(ctx context.Context, source []byte) (*tree.Node, error) {
	key := c.key(source)

	if n, ok := c.get(key); ok {
		return n, nil
	}

	n, err := c.inner.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := c.put(key, n); err != nil {
		c.logger.Warn("Parse cache write failed", "key", key, "error", err.Error())
	}
	return n, nil
}

func (c *CachingParser) key(source []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(c.inner.Name()))
	h.Write([]byte{0})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachingParser) pathFor(key string) string {
	return filepath.Join(c.dir, key[:2], key+".mp")
}

func (c *CachingParser) get(key string) (*tree.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Parse cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	defer f.Close()

	var entry cacheEntry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		c.logger.Warn("Parse cache entry unreadable", "key", key, "error", err.Error())
		return nil, false
	}
	if entry.Schema != cacheSchemaVersion || entry.Backend != c.inner.Name() {
		return nil, false
	}
	n, err := tree.FromGeneric(entry.Tree)
	if err != nil {
		c.logger.Warn("Parse cache entry invalid", "key", key, "error", err.Error())
		return nil, false
	}
	c.logger.Debug("Parse cache hit", "key", key)
	return n, true
}

func (c *CachingParser) put(key string, n *tree.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	entry := cacheEntry{Schema: cacheSchemaVersion, Backend: c.inner.Name(), Tree: tree.ToGeneric(n)}
	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Clear removes every cached entry.
func (c *CachingParser) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
