package metadata

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// fileCache stores JSON blobs on a filesystem with a per-key TTL. Resolution
// results (external IDs, trailers, provider bundles, series stats) are cached
// so repeated detail views do not re-hit external APIs.
type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
}

func newFileCache(fs afero.Fs, dir string, ttl time.Duration) *fileCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &fileCache{fs: fs, dir: dir, ttl: ttl}
}

// jitteredTTL staggers expiry between the base TTL and base TTL + 6 hours.
// The jitter is derived from the key hash so the same key always gets the
// same TTL, preventing cache churn.
func (c *fileCache) jitteredTTL(key string) time.Duration {
	h := sha256.Sum256([]byte(key))
	n := binary.BigEndian.Uint64(h[:8])
	jitter := time.Duration(n % uint64(6*time.Hour))
	return c.ttl + jitter
}

func (c *fileCache) get(key string, v any) (bool, error) {
	if key == "" {
		return false, errors.New("empty key")
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return false, err
	}
	path := filepath.Join(c.dir, key+".json")
	fi, err := c.fs.Stat(path)
	if err != nil {
		return false, nil
	}
	if time.Since(fi.ModTime()) > c.jitteredTTL(key) {
		_ = c.fs.Remove(path)
		return false, nil
	}
	f, err := c.fs.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *fileCache) set(key string, v any) error {
	if key == "" {
		return errors.New("empty key")
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	f, err := c.fs.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		_ = c.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	return c.fs.Rename(tmp, path)
}

// clear removes all cached entries. Used when API keys change.
func (c *fileCache) clear() error {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return nil // nothing to clear
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".json" {
			_ = c.fs.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}
