package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store provides thread-safe storage of fetched issue records, partitioned by query key.
type Store struct {
	mu      sync.RWMutex
	records map[string][]IssueRecord
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string][]IssueRecord),
	}
}

// Put replaces the records held for a key.
func (s *Store) Put(key string, records []IssueRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = records
}

// Get returns the records held for a key.
func (s *Store) Get(key string) ([]IssueRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.records[key]
	return recs, ok
}

// Count returns the number of records held for a key.
func (s *Store) Count(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[key])
}

// Clear drops the records for a key.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// Load reads records from the JSONL cache file for key. A missing file or one older than
// ttl is not an error; ok reports whether fresh records were loaded.
func (s *Store) Load(cacheDir, key string, ttl time.Duration) (ok bool, err error) {
	path := CachePath(cacheDir, key)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat cache: %w", err)
	}
	if ttl > 0 && time.Since(info.ModTime()) > ttl {
		log.Info().Str("key", key).Time("modified", info.ModTime()).Msg("Cache expired")
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open cache: %w", err)
	}
	defer file.Close()

	var records []IssueRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var r IssueRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Skipping invalid JSON line in cache")
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("error reading cache: %w", err)
	}

	log.Info().Str("key", key).Int("count", len(records)).Msg("Loaded issues from cache")
	s.Put(key, records)
	return true, nil
}

// Save persists the records for key to a JSONL cache file.
func (s *Store) Save(cacheDir, key string) error {
	records, ok := s.Get(key)
	if !ok {
		return nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := CachePath(cacheDir, key)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode issue: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("key", key).Int("count", len(records)).Msg("Issues saved to cache")
	return nil
}

// DeleteCache removes the cache file for key.
func DeleteCache(cacheDir, key string) error {
	err := os.Remove(CachePath(cacheDir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "-")

// CachePath returns the cache file location for a key.
func CachePath(cacheDir, key string) string {
	return filepath.Join(cacheDir, keyReplacer.Replace(key)+".jsonl")
}
