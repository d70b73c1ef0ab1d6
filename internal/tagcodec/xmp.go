package tagcodec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// XMPSuffix is appended to the media file name to name its sidecar.
const XMPSuffix = ".xmp"

var xmpNamespaces = map[string]string{
	"xmp":  "http://ns.adobe.com/xap/1.0/",
	"exif": "http://ns.adobe.com/exif/1.0/",
	"dc":   "http://purl.org/dc/elements/1.1/",
	"tiff": "http://ns.adobe.com/tiff/1.0/",
}

// Properties stored as language alternatives.
var xmpLangAlt = map[string]bool{
	XmpTitle:       true,
	XmpDescription: true,
}

// XMPSidecar leaves content untouched and emits an XMP packet holding the
// Xmp.* tags. Exif.* tags have no home outside the media file and are
// dropped.
type XMPSidecar struct{}

func (XMPSidecar) Name() string { return NameXMP }

func (XMPSidecar) Encode(content []byte, tags Tags) (Result, error) {
	packet, err := MarshalXMP(tags)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Content:  content,
		Sidecars: []File{{Suffix: XMPSuffix, Data: packet}},
	}, nil
}

type xmpProperty struct {
	prefix string
	name   string
	value  string
	key    string
}

// MarshalXMP renders the Xmp.* tags as a standalone XMP packet.
func MarshalXMP(tags Tags) ([]byte, error) {
	var props []xmpProperty
	used := make(map[string]bool)
	for _, key := range tags.Keys() {
		parts := strings.SplitN(key, ".", 3)
		if len(parts) != 3 || parts[0] != "Xmp" {
			continue
		}
		if _, known := xmpNamespaces[parts[1]]; !known {
			return nil, fmt.Errorf("xmp tag %s: unsupported namespace %q", key, parts[1])
		}
		used[parts[1]] = true
		props = append(props, xmpProperty{prefix: parts[1], name: parts[2], value: tags[key], key: key})
	}

	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", " ")

	meta := start("x:xmpmeta", attr("xmlns:x", "adobe:ns:meta/"))
	rdf := start("rdf:RDF", attr("xmlns:rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"))
	desc := start("rdf:Description", attr("rdf:about", ""))
	for _, prefix := range []string{"dc", "exif", "tiff", "xmp"} {
		if used[prefix] {
			desc.Attr = append(desc.Attr, attr("xmlns:"+prefix, xmpNamespaces[prefix]))
		}
	}

	tokens := []xml.Token{meta, rdf, desc}
	for _, p := range props {
		el := start(p.prefix + ":" + p.name)
		if xmpLangAlt[p.key] {
			alt := start("rdf:Alt")
			li := start("rdf:li", attr("xml:lang", "x-default"))
			tokens = append(tokens, el, alt, li, xml.CharData(p.value), li.End(), alt.End(), el.End())
			continue
		}
		tokens = append(tokens, el, xml.CharData(p.value), el.End())
	}
	tokens = append(tokens, desc.End(), rdf.End(), meta.End())

	for _, tok := range tokens {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, fmt.Errorf("encode xmp packet: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode xmp packet: %w", err)
	}
	buf.WriteString("\n<?xpacket end=\"w\"?>\n")
	return buf.Bytes(), nil
}

func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}
