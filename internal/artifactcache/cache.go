// Package artifactcache maps (kind, fingerprint, variant) to a sharded
// on-disk location for derived artifacts such as posters.
package artifactcache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2s"
)

// Cache is a content-addressed directory tree rooted at Root.
type Cache struct {
	root string
}

// New returns a cache rooted at dir. The directory is created lazily.
func New(dir string) *Cache {
	return &Cache{root: dir}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Key hashes the parts with BLAKE2s-256, each part followed by '|'.
func Key(parts ...string) string {
	h, _ := blake2s.New256(nil)
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte("|"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShardPath returns root/key[0:2]/key[2:4]/key.
func (c *Cache) ShardPath(key string) string {
	if len(key) < 4 {
		return filepath.Join(c.root, key)
	}
	return filepath.Join(c.root, key[0:2], key[2:4], key)
}

// Path returns the artifact path for (kind, fingerprint, variant) with the
// given extension and creates its parent directories.
func (c *Cache) Path(kind, fingerprint, variant, ext string) (string, error) {
	key := Key(kind, fingerprint, variant)
	p := c.ShardPath(key) + "." + strings.TrimPrefix(ext, ".")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create cache shard: %w", err)
	}
	return p, nil
}

// Exists reports whether an artifact already exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
