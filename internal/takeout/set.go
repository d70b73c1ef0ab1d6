package takeout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"photomerge/internal/logging"
)

// DefaultMaxSidecarBytes bounds how much of a sidecar Extract buffers.
const DefaultMaxSidecarBytes int64 = 4 << 20

// DefaultMaxIndexBytes bounds the sidecar bodies Open keeps in memory.
const DefaultMaxIndexBytes int64 = 256 << 20

// Options tunes how a Set enumerates and extracts entries.
type Options struct {
	// FoldExtensionCase matches media extensions case-insensitively, so
	// IMG_0001.JPG is a candidate.
	FoldExtensionCase bool
	// MaxSidecarBytes caps sidecar size. Zero means DefaultMaxSidecarBytes.
	MaxSidecarBytes int64
	// MaxIndexBytes caps the sidecar bodies buffered while indexing. Zero
	// means DefaultMaxIndexBytes. Sidecars past the cap are read from the
	// archive on demand.
	MaxIndexBytes int64
	Logger        *slog.Logger
}

// Stats counts what a Set has seen so far.
type Stats struct {
	Archives   int
	Sidecars   int
	Entries    int
	Candidates int
	Pairs      int
	Missing    int
	// Buffered counts sidecars held in memory since Open.
	Buffered int
	// Rewinds counts archive re-reads from the start to reach a member
	// behind a lookup cursor.
	Rewinds int
}

// Set is an open group of Takeout archives. It is not safe for concurrent
// use.
type Set struct {
	id       uuid.UUID
	opts     Options
	logger   *slog.Logger
	archives []*archive
	sidecars map[string]Location
	bodies   map[string][]byte
	budget   int64

	current int
	scan    *cursor
	lookup  map[int]*cursor
	err     error
	closed  bool
	stats   Stats
}

// Open opens every archive in paths and indexes their sidecars. The archives
// are drained in the order given; when several contain the same sidecar name
// the first one wins. On failure everything already opened is closed and the
// error is an *ArchiveError.
func Open(paths []string, opts Options) (*Set, error) {
	if len(paths) == 0 {
		return nil, errors.New("no archives given")
	}
	if opts.MaxSidecarBytes <= 0 {
		opts.MaxSidecarBytes = DefaultMaxSidecarBytes
	}
	if opts.MaxIndexBytes <= 0 {
		opts.MaxIndexBytes = DefaultMaxIndexBytes
	}
	s := &Set{
		id:       uuid.New(),
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "takeout"),
		sidecars: make(map[string]Location),
		bodies:   make(map[string][]byte),
		budget:   opts.MaxIndexBytes,
		lookup:   make(map[int]*cursor),
	}
	for i, path := range paths {
		a, err := openArchive(path)
		if err != nil {
			_ = s.Close()
			return nil, &ArchiveError{Path: path, Op: "open", Err: err}
		}
		s.archives = append(s.archives, a)
		if err := s.index(i, a); err != nil {
			_ = s.Close()
			return nil, &ArchiveError{Path: path, Op: "index", Err: err}
		}
	}
	s.stats.Archives = len(s.archives)
	s.stats.Sidecars = len(s.sidecars)
	return s, nil
}

// index records the location of every sidecar in archive i not already
// claimed by an earlier archive, and buffers its body while the index
// budget lasts. The bodies are decompressed here anyway, so keeping them
// lets Extract serve sidecars in any order without re-reading archives.
func (s *Set) index(i int, a *archive) error {
	c, err := a.cursor()
	if err != nil {
		return err
	}
	defer c.close()

	added := 0
	for {
		entry, err := c.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if !isSidecar(entry) {
			continue
		}
		if _, exists := s.sidecars[entry.Name]; exists {
			continue
		}
		s.sidecars[entry.Name] = Location{Archive: i, Entry: entry}
		added++
		if entry.Size > s.opts.MaxSidecarBytes || entry.Size > s.budget {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(c.take(), entry.Size))
		if err != nil {
			return err
		}
		s.bodies[entry.Name] = body
		s.budget -= int64(len(body))
	}
	s.stats.Buffered = len(s.bodies)
	s.logger.Debug("indexed archive",
		logging.String(logging.FieldArchive, a.path),
		logging.Int("members", c.ordinal+1),
		logging.Int("sidecars", added))
	return nil
}

// Archives returns the archive paths in drain order.
func (s *Set) Archives() []string {
	paths := make([]string, len(s.archives))
	for i, a := range s.archives {
		paths[i] = a.path
	}
	return paths
}

// ArchivePath returns the path of archive i, or "" when out of range.
func (s *Set) ArchivePath(i int) string {
	if i < 0 || i >= len(s.archives) {
		return ""
	}
	return s.archives[i].path
}

// Stats returns the counters accumulated so far.
func (s *Set) Stats() Stats {
	return s.stats
}

// Next returns the next media entry paired with its sidecar.
//
// It returns io.EOF once every archive is drained, and on every call after.
// A media entry with no sidecar yields a *MetadataMissingError; calling Next
// again moves past it. A read failure yields an *ArchiveError, which is
// returned again by every later call.
func (s *Set) Next() (Pair, error) {
	if s.closed {
		return Pair{}, ErrClosed
	}
	if s.err != nil {
		return Pair{}, s.err
	}
	for s.current < len(s.archives) {
		a := s.archives[s.current]
		if s.scan == nil {
			c, err := a.cursor()
			if err != nil {
				return Pair{}, s.fail(&ArchiveError{Path: a.path, Op: "read", Err: err})
			}
			s.scan = c
		}
		entry, err := s.scan.next()
		if errors.Is(err, io.EOF) {
			s.logger.Debug("archive drained",
				logging.String(logging.FieldArchive, a.path),
				logging.Int("members", s.scan.ordinal+1))
			_ = s.scan.close()
			s.scan = nil
			s.current++
			continue
		}
		if err != nil {
			return Pair{}, s.fail(&ArchiveError{Path: a.path, Op: "read", Err: err})
		}
		s.stats.Entries++
		if !entry.Regular || !IsMedia(entry.Name, s.opts.FoldExtensionCase) {
			continue
		}
		s.stats.Candidates++

		meta, ok := s.sidecars[SidecarName(entry.Name)]
		if !ok {
			s.stats.Missing++
			return Pair{}, &MetadataMissingError{Name: entry.Name, Archive: a.path}
		}
		s.stats.Pairs++
		return Pair{
			Content:  Location{Archive: s.current, Entry: entry},
			Metadata: meta,
			set:      s.id,
		}, nil
	}
	return Pair{}, io.EOF
}

func (s *Set) fail(err error) error {
	s.err = err
	return err
}

// Pairs adapts Next for range loops. Missing sidecars are yielded with
// their error and iteration continues; any other error is yielded once and
// ends the loop.
func (s *Set) Pairs() iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		for {
			p, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var missing *MetadataMissingError
				if !errors.As(err, &missing) {
					yield(Pair{}, err)
					return
				}
			}
			if !yield(p, err) {
				return
			}
		}
	}
}

// Extract returns readers over a pair's media bytes and sidecar bytes.
//
// The sidecar is read fully into memory. The media reader streams from the
// archive and stays valid until the next call to Next or Extract; closing it
// is optional but releases nothing on its own. Both readers must be used
// before the Set is closed.
func (s *Set) Extract(p Pair) (content io.ReadCloser, metadata io.ReadCloser, err error) {
	if s.closed {
		return nil, nil, ErrClosed
	}
	if p.set != s.id {
		return nil, nil, ErrForeignPair
	}

	meta, err := s.readSidecar(p.Metadata)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.open(p.Content)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(body), io.NopCloser(bytes.NewReader(meta)), nil
}

func (s *Set) readSidecar(loc Location) ([]byte, error) {
	limit := s.opts.MaxSidecarBytes
	if loc.Size > limit {
		return nil, fmt.Errorf("%s is %d bytes (limit %d): %w", loc.Name, loc.Size, limit, ErrSidecarTooLarge)
	}
	if body, ok := s.bodies[loc.Name]; ok && s.sidecars[loc.Name] == loc {
		return body, nil
	}
	r, err := s.open(loc)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &ArchiveError{Path: s.archives[loc.Archive].path, Op: "extract", Err: err}
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", loc.Name, limit, ErrSidecarTooLarge)
	}
	return data, nil
}

// open positions a cursor on loc and returns the member body. The scanning
// cursor is used when it is sitting on loc; otherwise the archive's lookup
// cursor is advanced, reopening it only when loc is behind it.
func (s *Set) open(loc Location) (io.Reader, error) {
	if loc.Archive < 0 || loc.Archive >= len(s.archives) {
		return nil, fmt.Errorf("archive index %d out of range", loc.Archive)
	}
	if loc.Archive == s.current && s.scan.at(loc.Ordinal) && s.scan.entry.Name == loc.Name {
		return s.scan.take(), nil
	}

	a := s.archives[loc.Archive]
	c := s.lookup[loc.Archive]
	if c != nil && (c.ordinal > loc.Ordinal || (c.ordinal == loc.Ordinal && c.consumed)) {
		_ = c.close()
		c = nil
		s.stats.Rewinds++
	}
	if c == nil {
		fresh, err := a.cursor()
		if err != nil {
			return nil, &ArchiveError{Path: a.path, Op: "extract", Err: err}
		}
		c = fresh
		s.lookup[loc.Archive] = c
	}
	if err := c.seek(loc.Ordinal, loc.Name); err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "extract", Err: err}
	}
	return c.take(), nil
}

// Close releases every cursor and archive handle. It is safe to call more
// than once.
func (s *Set) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.scan != nil {
		errs = append(errs, s.scan.close())
		s.scan = nil
	}
	for i, c := range s.lookup {
		errs = append(errs, c.close())
		delete(s.lookup, i)
	}
	for _, a := range s.archives {
		if err := a.close(); err != nil {
			errs = append(errs, &ArchiveError{Path: a.path, Op: "close", Err: err})
		}
	}
	return errors.Join(errs...)
}
