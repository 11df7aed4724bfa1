package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// stateFileExtension is the extension of state envelope files.
const stateFileExtension = ".json"

// FileBackend stores each key as a JSON envelope file in a directory.
// Writes go to a temporary file that is renamed into place.
type FileBackend struct {
	directory     string
	ttlSeconds    int
	maxEntryBytes int
	now           func() time.Time

	mu sync.RWMutex
}

// FileOption configures a FileBackend.
type FileOption func(*FileBackend)

// WithTTL sets the lifetime of written entries in seconds.
func WithTTL(seconds int) FileOption {
	return func(b *FileBackend) { b.ttlSeconds = seconds }
}

// WithMaxEntryBytes caps the payload size of a single entry. Zero disables the cap.
func WithMaxEntryBytes(n int) FileOption {
	return func(b *FileBackend) { b.maxEntryBytes = n }
}

// WithFileClock overrides the time source used for expiry.
func WithFileClock(now func() time.Time) FileOption {
	return func(b *FileBackend) { b.now = now }
}

// NewFileBackend opens (creating if needed) a state directory.
func NewFileBackend(directory string, opts ...FileOption) (*FileBackend, error) {
	if directory == "" {
		return nil, errors.New("state directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	b := &FileBackend{
		directory:     directory,
		ttlSeconds:    DefaultTTLSeconds,
		maxEntryBytes: DefaultMaxEntryBytes,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Get implements Backend. Expired entries are removed and reported as
// ErrNotFound.
func (b *FileBackend) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	path := b.keyToFilePath(key)

	b.mu.RLock()
	raw, err := os.ReadFile(path)
	b.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr != nil {
		// The envelope itself is damaged; hand the raw bytes up so the
		// adapter treats it as corrupt state and deletes it.
		return raw, nil
	}

	// Entries written under another key are not ours to return.
	if entry.Key != key {
		return nil, ErrNotFound
	}

	if entry.IsExpired(b.now()) {
		b.mu.Lock()
		_ = os.Remove(path)
		b.mu.Unlock()
		return nil, ErrNotFound
	}

	return entry.Data, nil
}

// Set implements Backend.
func (b *FileBackend) Set(key string, data []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if b.maxEntryBytes > 0 && len(data) > b.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes > %d", ErrEntryTooLarge, len(data), b.maxEntryBytes)
	}

	if !json.Valid(data) {
		return errors.New("state payload is not valid JSON")
	}

	entry := NewEntry(key, json.RawMessage(data), b.ttlSeconds, b.now())
	encoded, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state entry: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.keyToFilePath(key)
	tmp := path + ".tmp"
	if writeErr := os.WriteFile(tmp, encoded, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write state file: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, path); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename state file: %w", renameErr)
	}
	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.keyToFilePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// Keys returns the keys of every live entry, sorted by file name.
func (b *FileBackend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dirEntries, err := os.ReadDir(b.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	now := b.now()
	var keys []string
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != stateFileExtension {
			continue
		}
		raw, readErr := os.ReadFile(filepath.Join(b.directory, de.Name()))
		if readErr != nil {
			continue
		}
		var entry Entry
		if json.Unmarshal(raw, &entry) != nil || entry.IsExpired(now) {
			continue
		}
		keys = append(keys, entry.Key)
	}
	return keys, nil
}

// CleanupExpired removes every expired entry and returns how many were removed.
func (b *FileBackend) CleanupExpired() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dirEntries, err := os.ReadDir(b.directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read state directory: %w", err)
	}

	now := b.now()
	removed := 0
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != stateFileExtension {
			continue
		}
		path := filepath.Join(b.directory, de.Name())
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		var entry Entry
		if json.Unmarshal(raw, &entry) != nil {
			continue
		}
		if entry.IsExpired(now) && os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// Directory returns the state directory.
func (b *FileBackend) Directory() string {
	return b.directory
}

// keyToFilePath maps a key to a file name safe on every platform. Query
// escaping keeps only unreserved characters and is injective, so distinct
// keys never share a file.
func (b *FileBackend) keyToFilePath(key string) string {
	return filepath.Join(b.directory, url.QueryEscape(key)+stateFileExtension)
}
