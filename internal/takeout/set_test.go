package takeout

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

type member struct {
	name     string
	body     string
	typeflag byte
}

func file(name, body string) member {
	return member{name: name, body: body, typeflag: tar.TypeReg}
}

func writeArchive(t *testing.T, dir, name string, members ...member) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Typeflag: m.typeflag, Mode: 0o644}
		switch m.typeflag {
		case tar.TypeReg:
			hdr.Size = int64(len(m.body))
		case tar.TypeDir:
			hdr.Mode = 0o755
		case tar.TypeSymlink:
			hdr.Linkname = m.body
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", m.name, err)
		}
		if m.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(m.body)); err != nil {
				t.Fatalf("write body %s: %v", m.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openSet(t *testing.T, opts Options, paths ...string) *Set {
	t.Helper()
	set, err := Open(paths, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = set.Close() })
	return set
}

// step is one expected result of Next: a content name or a missing name.
type step struct {
	content string
	missing string
}

func drain(t *testing.T, set *Set) []step {
	t.Helper()
	var got []step
	for {
		p, err := set.Next()
		if errors.Is(err, io.EOF) {
			return got
		}
		var missing *MetadataMissingError
		switch {
		case errors.As(err, &missing):
			got = append(got, step{missing: missing.Name})
		case err != nil:
			t.Fatalf("Next: %v", err)
		default:
			if p.Metadata.Name != p.Content.Name+".json" {
				t.Fatalf("metadata %q does not match content %q", p.Metadata.Name, p.Content.Name)
			}
			got = append(got, step{content: p.Content.Name})
		}
	}
}

func assertSteps(t *testing.T, got, want []step) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d results %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPairsEverySupportedExtension(t *testing.T) {
	names := []string{"a.jpg", "b.jpeg", "c.dng", "d.png", "e.mkv", "f.mp4"}
	var members []member
	var want []step
	for _, name := range names {
		members = append(members, file(name, "data-"+name), file(name+".json", "{}"))
		want = append(want, step{content: name})
	}
	members = append(members, file("notes.txt", "x"), file("notes.txt.json", "{}"), file("album.json", "{}"))
	path := writeArchive(t, t.TempDir(), "takeout.tgz", members...)

	set := openSet(t, Options{}, path)
	assertSteps(t, drain(t, set), want)
}

func TestMissingMetadataDoesNotStopIteration(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		file("first.jpg", "1"),
		file("second.jpg", "2"),
		file("second.jpg.json", "{}"),
	)
	set := openSet(t, Options{}, path)
	assertSteps(t, drain(t, set), []step{{missing: "first.jpg"}, {content: "second.jpg"}})

	stats := set.Stats()
	if stats.Candidates != 2 || stats.Pairs != 1 || stats.Missing != 1 || stats.Entries != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestTwoArchiveScenario(t *testing.T) {
	dir := t.TempDir()
	a := writeArchive(t, dir, "a.tgz",
		file("img.png", "png-bytes"),
		file("img.png.json", `{"title":"img.png"}`),
	)
	b := writeArchive(t, dir, "b.tgz",
		file("other.jpg", "jpg-bytes"),
		file("vid.mp4", "mp4-bytes"),
		file("vid.mp4.json", `{"title":"vid.mp4"}`),
	)

	set := openSet(t, Options{}, a, b)
	assertSteps(t, drain(t, set), []step{
		{content: "img.png"},
		{missing: "other.jpg"},
		{content: "vid.mp4"},
	})
	for range 2 {
		if _, err := set.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next after exhaustion = %v, want io.EOF", err)
		}
	}
}

func TestSidecarFoundInAnotherArchive(t *testing.T) {
	dir := t.TempDir()
	a := writeArchive(t, dir, "a.tgz", file("Photos/trip.jpg", "trip"))
	b := writeArchive(t, dir, "b.tgz", file("Photos/trip.jpg.json", `{"title":"trip"}`))

	set := openSet(t, Options{}, a, b)
	p, err := set.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.Content.Archive != 0 || p.Metadata.Archive != 1 {
		t.Fatalf("archives = content %d metadata %d", p.Content.Archive, p.Metadata.Archive)
	}
	content, metadata, err := set.Extract(p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertBody(t, content, "trip")
	assertBody(t, metadata, `{"title":"trip"}`)
}

func TestFirstArchiveWinsForDuplicateSidecar(t *testing.T) {
	dir := t.TempDir()
	a := writeArchive(t, dir, "a.tgz", file("x.jpg", "x"), file("x.jpg.json", "first"))
	b := writeArchive(t, dir, "b.tgz", file("x.jpg.json", "second"))

	set := openSet(t, Options{}, a, b)
	p, err := set.Next()
	if err != nil {
		t.Fatal(err)
	}
	_, metadata, err := set.Extract(p)
	if err != nil {
		t.Fatal(err)
	}
	assertBody(t, metadata, "first")
}

func TestExtractRegardlessOfMemberOrder(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		file("b.jpg.json", "meta-b"),
		file("a.jpg", "content-a"),
		file("b.jpg", "content-b"),
		file("a.jpg.json", "meta-a"),
	)
	set := openSet(t, Options{}, path)

	var pairs []Pair
	for {
		p, err := set.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		content, metadata, err := set.Extract(p)
		if err != nil {
			t.Fatalf("Extract %s: %v", p.Content.Name, err)
		}
		name := p.Content.Name[:1]
		assertBody(t, metadata, "meta-"+name)
		assertBody(t, content, "content-"+name)
		pairs = append(pairs, p)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs", len(pairs))
	}

	// Pairs stay extractable after iteration has moved past them.
	for i := len(pairs) - 1; i >= 0; i-- {
		content, _, err := set.Extract(pairs[i])
		if err != nil {
			t.Fatalf("re-extract %s: %v", pairs[i].Content.Name, err)
		}
		assertBody(t, content, "content-"+pairs[i].Content.Name[:1])
	}
}

func TestSidecarsInReverseOrderAcrossArchives(t *testing.T) {
	dir := t.TempDir()
	const n = 20
	var media, sidecars []member
	for i := range n {
		name := fmt.Sprintf("IMG_%04d.jpg", i)
		media = append(media, file(name, "content-"+name))
		sidecars = append([]member{file(name+".json", "meta-"+name)}, sidecars...)
	}
	a := writeArchive(t, dir, "a.tgz", media...)
	b := writeArchive(t, dir, "b.tgz", sidecars...)

	extractAll := func(t *testing.T, set *Set) {
		t.Helper()
		count := 0
		for p, err := range set.Pairs() {
			if err != nil {
				t.Fatalf("Pairs: %v", err)
			}
			content, metadata, err := set.Extract(p)
			if err != nil {
				t.Fatalf("Extract %s: %v", p.Content.Name, err)
			}
			assertBody(t, metadata, "meta-"+p.Content.Name)
			assertBody(t, content, "content-"+p.Content.Name)
			count++
		}
		if count != n {
			t.Fatalf("extracted %d pairs, want %d", count, n)
		}
	}

	t.Run("buffered", func(t *testing.T) {
		set := openSet(t, Options{}, a, b)
		extractAll(t, set)
		stats := set.Stats()
		if stats.Buffered != n {
			t.Fatalf("Buffered = %d, want %d", stats.Buffered, n)
		}
		if stats.Rewinds != 0 {
			t.Fatalf("Rewinds = %d, want 0", stats.Rewinds)
		}
	})

	t.Run("index budget exhausted", func(t *testing.T) {
		set := openSet(t, Options{MaxIndexBytes: 1}, a, b)
		extractAll(t, set)
		if got := set.Stats().Buffered; got != 0 {
			t.Fatalf("Buffered = %d, want 0", got)
		}
	})
}

func TestExtensionCase(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		file("IMG_0001.JPG", "upper"),
		file("IMG_0001.JPG.json", "{}"),
		file("clip.Mp4", "mixed"),
	)

	t.Run("sensitive", func(t *testing.T) {
		set := openSet(t, Options{}, path)
		assertSteps(t, drain(t, set), nil)
	})
	t.Run("folded", func(t *testing.T) {
		set := openSet(t, Options{FoldExtensionCase: true}, path)
		assertSteps(t, drain(t, set), []step{{content: "IMG_0001.JPG"}, {missing: "clip.Mp4"}})
	})
}

func TestNonRegularMembersAreSkipped(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		member{name: "album.jpg/", typeflag: tar.TypeDir},
		member{name: "link.jpg", body: "target.jpg", typeflag: tar.TypeSymlink},
		file("link.jpg.json", "{}"),
		file("target.jpg", "t"),
		file("target.jpg.json", "{}"),
	)
	set := openSet(t, Options{}, path)
	assertSteps(t, drain(t, set), []step{{content: "target.jpg"}})
}

func TestPairsIterator(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		file("a.png", "a"),
		file("b.png", "b"),
		file("b.png.json", "{}"),
	)
	set := openSet(t, Options{}, path)

	var paired, missing int
	for p, err := range set.Pairs() {
		if IsMetadataMissing(err) {
			missing++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Content.Name != "b.png" {
			t.Fatalf("paired %q", p.Content.Name)
		}
		paired++
	}
	if paired != 1 || missing != 1 {
		t.Fatalf("paired=%d missing=%d", paired, missing)
	}
}

func TestOpenFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeArchive(t, dir, "good.tgz", file("a.jpg", "a"))
	notGzip := filepath.Join(dir, "plain.tgz")
	if err := os.WriteFile(notGzip, []byte("this is not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.tgz")
	if err := os.WriteFile(truncated, raw[:len(raw)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	tests := map[string][]string{
		"missing file":   {good, filepath.Join(dir, "absent.tgz")},
		"not gzip":       {notGzip},
		"truncated":      {truncated},
		"directory path": {dir},
	}
	for name, paths := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Open(paths, Options{})
			var archiveErr *ArchiveError
			if !errors.As(err, &archiveErr) {
				t.Fatalf("err = %v, want *ArchiveError", err)
			}
			if errors.Is(err, io.EOF) {
				t.Fatal("archive error must not be io.EOF")
			}
		})
	}

	if _, err := Open(nil, Options{}); err == nil {
		t.Fatal("expected error for empty archive list")
	}
}

func TestExtractGuards(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "takeout.tgz", file("a.jpg", "a"), file("a.jpg.json", "{}"))

	first := openSet(t, Options{}, path)
	second := openSet(t, Options{}, path)
	p, err := first.Next()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := second.Extract(p); !errors.Is(err, ErrForeignPair) {
		t.Fatalf("foreign Extract err = %v", err)
	}
	if _, _, err := first.Extract(Pair{}); !errors.Is(err, ErrForeignPair) {
		t.Fatalf("zero pair Extract err = %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, _, err := first.Extract(p); !errors.Is(err, ErrClosed) {
		t.Fatalf("Extract after Close err = %v", err)
	}
	if _, err := first.Next(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Next after Close err = %v", err)
	}
}

func TestSidecarSizeLimit(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "takeout.tgz",
		file("a.jpg", "a"),
		file("a.jpg.json", `{"title":"a long enough sidecar"}`),
	)
	set := openSet(t, Options{MaxSidecarBytes: 8}, path)
	p, err := set.Next()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := set.Extract(p); !errors.Is(err, ErrSidecarTooLarge) {
		t.Fatalf("err = %v, want ErrSidecarTooLarge", err)
	}
}

func TestArchivesAndStats(t *testing.T) {
	dir := t.TempDir()
	a := writeArchive(t, dir, "a.tgz", file("x.jpg.json", "{}"))
	b := writeArchive(t, dir, "b.tgz", file("y.jpg.json", "{}"), file("x.jpg.json", "{}"))
	set := openSet(t, Options{}, a, b)

	got := set.Archives()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("Archives = %v", got)
	}
	if set.ArchivePath(1) != b || set.ArchivePath(5) != "" {
		t.Fatal("ArchivePath mismatch")
	}
	stats := set.Stats()
	if stats.Archives != 2 || stats.Sidecars != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestIsMedia(t *testing.T) {
	tests := []struct {
		name     string
		foldCase bool
		want     bool
	}{
		{"a.jpg", false, true},
		{"dir/a.jpeg", false, true},
		{"a.JPG", false, false},
		{"a.JPG", true, true},
		{"a.jpg.json", false, false},
		{"jpg", false, false},
		{"a.heic", true, false},
		{"movie.mkv", false, true},
	}
	for _, tc := range tests {
		if got := IsMedia(tc.name, tc.foldCase); got != tc.want {
			t.Errorf("IsMedia(%q, %v) = %v, want %v", tc.name, tc.foldCase, got, tc.want)
		}
	}
}

func assertBody(t *testing.T, rc io.ReadCloser, want string) {
	t.Helper()
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}
