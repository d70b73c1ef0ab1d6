package dedup

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/klauspost/compress/gzip"

	"photomerge/internal/fileutil"
	"photomerge/internal/logging"
)

// Store is a content-hash index with optional gzip JSON persistence.
type Store struct {
	path    string
	logger  *slog.Logger
	records map[string]string
}

// New returns an empty in-memory store. Save on it returns ErrNoPath.
func New() *Store {
	return &Store{logger: logging.NewNop(), records: make(map[string]string)}
}

// Open returns a store backed by path, loading any records already
// persisted there. A missing file yields an empty store; an unreadable one
// yields a *CorruptStoreError.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("dedup store path is empty")
	}
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "dedup"),
		records: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, or "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Seen reports whether hash is recorded.
func (s *Store) Seen(hash string) bool {
	_, ok := s.records[hash]
	return ok
}

// SeenBytes reports whether the digest of content is recorded.
func (s *Store) SeenBytes(content []byte) bool {
	return s.Seen(HashBytes(content))
}

// Add records hash at location. It fails with *DuplicateKeyError when the
// hash is already present and never overwrites.
func (s *Store) Add(hash, location string) error {
	if hash == "" {
		return errors.New("dedup hash cannot be empty")
	}
	if _, exists := s.records[hash]; exists {
		return &DuplicateKeyError{Hash: hash, Location: location}
	}
	s.records[hash] = location
	return nil
}

// AddBytes hashes content and records it at location, returning the hash.
func (s *Store) AddBytes(content []byte, location string) (string, error) {
	hash := HashBytes(content)
	return hash, s.Add(hash, location)
}

// Replace records hash at location whether or not it is already present.
// It reports whether an existing record was overwritten.
func (s *Store) Replace(hash, location string) bool {
	_, existed := s.records[hash]
	s.records[hash] = location
	return existed
}

// Location returns where hash was last written.
func (s *Store) Location(hash string) (string, bool) {
	loc, ok := s.records[hash]
	return loc, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Hashes returns every recorded hash in ascending order.
func (s *Store) Hashes() []string {
	hashes := make([]string, 0, len(s.records))
	for h := range s.records {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// Save writes a snapshot of every record to the backing file. The previous
// file is replaced only once the new one is fully written and synced.
func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	err := fileutil.WriteAtomic(s.path, 0o644, func(f *os.File) error {
		buffered := bufio.NewWriter(f)
		zw := gzip.NewWriter(buffered)
		if err := json.NewEncoder(zw).Encode(s.records); err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("finish gzip stream: %w", err)
		}
		return buffered.Flush()
	})
	if err != nil {
		return fmt.Errorf("save dedup store %s: %w", s.path, err)
	}
	s.logger.Debug("saved dedup store",
		logging.Int("record_count", len(s.records)),
		logging.String("path", s.path))
	return nil
}

// load merges the persisted records into memory.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open dedup store: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return &CorruptStoreError{Path: s.path, Err: err}
	}
	defer zr.Close()

	var persisted map[string]string
	dec := json.NewDecoder(zr)
	if err := dec.Decode(&persisted); err != nil {
		return &CorruptStoreError{Path: s.path, Err: err}
	}
	// Exactly one object; anything but whitespace after it is corruption.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after records object")
		}
		return &CorruptStoreError{Path: s.path, Err: err}
	}
	// Drain so the gzip trailer checksum is verified.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return &CorruptStoreError{Path: s.path, Err: err}
	}
	for hash, location := range persisted {
		s.records[hash] = location
	}

	s.logger.Debug("loaded dedup store",
		logging.Int("record_count", len(s.records)),
		logging.String("path", s.path))
	return nil
}
