package kvstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore keeps one JSON file per key under Root.
//
// Layout:
//
//	<root>/kv/<hash(key)>.json
//
// Keys are hashed for the filename (keys embed user-chosen names), so each file
// carries an envelope with the original key.
type FileStore struct {
	Root string

	mu    sync.Mutex
	quota int
}

type fileEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DefaultStorageRoot resolves the on-disk storage directory, preferring the XDG
// data dir and falling back to ~/.local/share.
func DefaultStorageRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "emotic", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "emotic", "storage")
	}
	return filepath.Join(os.TempDir(), "emotic", "storage")
}

// NewFileStore returns a FileStore rooted at root (DefaultStorageRoot when empty)
// limited to quota bytes. quota <= 0 means unlimited.
func NewFileStore(root string, quota int) *FileStore {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	return &FileStore{Root: filepath.Clean(root), quota: quota}
}

func (s *FileStore) dir() string {
	return filepath.Join(s.Root, "kv")
}

func (s *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir(), hex.EncodeToString(sum[:])[:16]+".json")
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	var ent fileEntry
	if err := json.Unmarshal(b, &ent); err != nil {
		return "", false
	}
	return ent.Value, true
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return err
	}
	if s.quota > 0 {
		total := 0
		for _, ent := range s.readAll() {
			if ent.Key == key {
				continue
			}
			total += len(ent.Key) + len(ent.Value)
		}
		if total+len(key)+len(value) > s.quota {
			return ErrQuotaExceeded
		}
	}
	b, err := json.Marshal(fileEntry{Key: key, Value: value})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), b, 0o644)
}

func (s *FileStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path(key))
}

func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ents := s.readAll()
	keys := make([]string, 0, len(ents))
	for _, ent := range ents {
		keys = append(keys, ent.Key)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStore) readAll() []fileEntry {
	dirents, err := os.ReadDir(s.dir())
	if err != nil {
		return nil
	}
	out := make([]fileEntry, 0, len(dirents))
	for _, e := range dirents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir(), e.Name()))
		if err != nil {
			continue
		}
		var ent fileEntry
		if err := json.Unmarshal(b, &ent); err != nil {
			continue
		}
		out = append(out, ent)
	}
	return out
}
