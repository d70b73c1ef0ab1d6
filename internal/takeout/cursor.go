package takeout

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const readBufferSize = 256 << 10

// archive is one open tar.gz file. Cursors read it through independent
// section readers so several can be positioned at once over one handle.
type archive struct {
	path string
	file *os.File
	size int64
}

func openArchive(path string) (*archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("not a regular file")
	}
	return &archive{path: path, file: f, size: info.Size()}, nil
}

func (a *archive) close() error {
	return a.file.Close()
}

// cursor walks an archive's members forward only.
type cursor struct {
	zr *gzip.Reader
	tr *tar.Reader

	ordinal  int
	entry    Entry
	consumed bool
}

func (a *archive) cursor() (*cursor, error) {
	section := io.NewSectionReader(a.file, 0, a.size)
	zr, err := gzip.NewReader(bufio.NewReaderSize(section, readBufferSize))
	if err != nil {
		return nil, err
	}
	return &cursor{zr: zr, tr: tar.NewReader(zr), ordinal: -1}, nil
}

// next advances to the following member. It returns io.EOF at the end of
// the archive.
func (c *cursor) next() (Entry, error) {
	hdr, err := c.tr.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, err
	}
	c.ordinal++
	c.entry = entryFromHeader(hdr, c.ordinal)
	c.consumed = false
	return c.entry, nil
}

// at reports whether the cursor sits on an unread member at ordinal.
func (c *cursor) at(ordinal int) bool {
	return c != nil && c.ordinal == ordinal && !c.consumed
}

// seek advances to the member at ordinal and checks that it is still the
// named entry. The cursor must not already be past ordinal.
func (c *cursor) seek(ordinal int, name string) error {
	for c.ordinal < ordinal {
		if _, err := c.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("entry %s (#%d) not found", name, ordinal)
			}
			return err
		}
	}
	if c.ordinal != ordinal || c.entry.Name != name {
		return fmt.Errorf("entry #%d is %q, expected %q", ordinal, c.entry.Name, name)
	}
	return nil
}

// take marks the current member as read and returns its body.
func (c *cursor) take() io.Reader {
	c.consumed = true
	return c.tr
}

func (c *cursor) close() error {
	if c == nil {
		return nil
	}
	return c.zr.Close()
}
