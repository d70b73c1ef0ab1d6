package takeout

import (
	"archive/tar"
	"path"
	"strings"

	"github.com/google/uuid"
)

// SidecarSuffix is appended to a media entry name to form its sidecar name.
const SidecarSuffix = ".json"

var (
	imageExtensions = []string{".jpg", ".jpeg", ".dng", ".png"}
	videoExtensions = []string{".mkv", ".mp4"}
)

// Entry describes one archive member.
type Entry struct {
	// Name is the slash-separated member name exactly as stored.
	Name    string
	Size    int64
	Regular bool
	// Ordinal is the zero-based position of the member in its archive.
	Ordinal int
}

// Location identifies an entry within a Set.
type Location struct {
	Archive int
	Entry
}

// Pair is a media entry and the sidecar that describes it.
// Metadata.Name is always Content.Name + SidecarSuffix.
type Pair struct {
	Content  Location
	Metadata Location

	set uuid.UUID
}

// SidecarName returns the sidecar member name expected for a media entry.
func SidecarName(name string) string {
	return name + SidecarSuffix
}

// IsMedia reports whether name carries a supported image or video extension.
// With foldCase the comparison ignores ASCII case.
func IsMedia(name string, foldCase bool) bool {
	ext := path.Ext(name)
	if ext == "" {
		return false
	}
	for _, list := range [][]string{imageExtensions, videoExtensions} {
		for _, want := range list {
			if ext == want || (foldCase && strings.EqualFold(ext, want)) {
				return true
			}
		}
	}
	return false
}

// IsVideo reports whether name carries a supported video extension.
func IsVideo(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, want := range videoExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

func entryFromHeader(hdr *tar.Header, ordinal int) Entry {
	return Entry{
		Name:    hdr.Name,
		Size:    hdr.Size,
		Regular: hdr.FileInfo().Mode().IsRegular(),
		Ordinal: ordinal,
	}
}

func isSidecar(e Entry) bool {
	return e.Regular && strings.HasSuffix(e.Name, SidecarSuffix)
}
