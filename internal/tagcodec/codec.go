package tagcodec

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

const (
	NamePassthrough = "passthrough"
	NameXMP         = "xmp"
)

// File is an extra output written beside the media file. The media output
// path plus Suffix names it.
type File struct {
	Suffix string
	Data   []byte
}

// Result is what a Codec produces for one item.
type Result struct {
	Content  []byte
	Sidecars []File
}

// Codec applies tags to media bytes.
type Codec interface {
	Name() string
	Encode(content []byte, tags Tags) (Result, error)
}

var registry = map[string]func() Codec{
	NamePassthrough: func() Codec { return Passthrough{} },
	NameXMP:         func() Codec { return XMPSidecar{} },
}

// New returns the codec registered under name, ignoring case.
func New(name string) (Codec, error) {
	ctor, ok := registry[cases.Fold().String(name)]
	if !ok {
		return nil, fmt.Errorf("unknown metadata codec %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists the registered codec names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Passthrough writes content unchanged and drops every tag.
type Passthrough struct{}

func (Passthrough) Name() string { return NamePassthrough }

func (Passthrough) Encode(content []byte, _ Tags) (Result, error) {
	return Result{Content: content}, nil
}
