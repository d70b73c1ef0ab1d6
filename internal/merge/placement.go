package merge

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// OutputRelPath maps an archive entry name to a path relative to the output
// directory. The name is NFC-normalized and cleaned so it can never escape
// the output directory.
func OutputRelPath(entryName string) (string, error) {
	name := norm.NFC.String(strings.ReplaceAll(entryName, "\\", "/"))
	cleaned := strings.TrimPrefix(path.Clean("/"+name), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("entry name %q has no usable path", entryName)
	}
	return filepath.FromSlash(cleaned), nil
}

// placer hands out output paths, never returning one that already exists
// on disk or was handed out earlier in the run.
type placer struct {
	root    string
	claimed map[string]struct{}
	exists  func(string) (bool, error)
}

func newPlacer(root string) *placer {
	return &placer{root: root, claimed: make(map[string]struct{}), exists: pathExists}
}

// place returns a free path for entryName, adding " (n)" before the
// extension on collision.
func (p *placer) place(entryName string) (string, error) {
	rel, err := OutputRelPath(entryName)
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(p.root, rel)
	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	for n := 1; ; n++ {
		if _, taken := p.claimed[candidate]; !taken {
			exists, err := p.exists(candidate)
			if err != nil {
				return "", err
			}
			if !exists {
				p.claimed[candidate] = struct{}{}
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
