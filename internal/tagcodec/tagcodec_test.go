package tagcodec

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"photomerge/internal/sidecar"
)

const mockSidecar = `{
  "creationTime": {"timestamp": "1684784093"},
  "photoTakenTime": {"timestamp": "1621573200"},
  "geoData": {"latitude": 45.4215, "longitude": -75.6972},
  "geoDataExif": {"latitude": 45.4215, "longitude": -75.8972},
  "title": "test",
  "description": "foo"
}`

func parse(t *testing.T, doc string) *sidecar.Metadata {
	t.Helper()
	m, err := sidecar.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	return m
}

func TestDeriveFullSidecar(t *testing.T) {
	tags, problems := Derive(parse(t, mockSidecar), DeriveOptions{})
	if len(problems) != 0 {
		t.Fatalf("problems = %v", problems)
	}
	want := Tags{
		ExifDateTimeOriginal:  "2021-05-21 05:00:00+00:00",
		ExifDateTimeDigitized: "2023-05-22 19:34:53+00:00",
		ExifGPSLatitude:       "45/1 25/1 87/5",
		ExifGPSLatitudeRef:    "N",
		ExifGPSLongitude:      "75/1 41/1 1248/25",
		ExifGPSLongitudeRef:   "W",
		ExifXPTitle:           "test",
		XmpCreateDate:         "2021-05-21 05:00:00+00:00",
		XmpDateTimeOriginal:   "2021-05-21 05:00:00+00:00",
		XmpDateTimeDigitized:  "2023-05-22 19:34:53+00:00",
		XmpTitle:              "test",
		XmpDescription:        "foo",
		XmpImageDescription:   "foo",
		XmpGPSLatitude:        "45,25,17.4N",
		XmpGPSLongitude:       "75,41,49.92W",
	}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags %v, want %d", len(tags), tags.Keys(), len(want))
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("%s = %q, want %q", k, tags[k], v)
		}
	}
}

func TestDeriveLocationSource(t *testing.T) {
	m := parse(t, mockSidecar)
	tags, _ := Derive(m, DeriveOptions{LocationSource: SourceExif})
	if got := tags[ExifGPSLongitude]; got == "75/1 41/1 1248/25" {
		t.Fatalf("exif source should use geoDataExif, got %q", got)
	}

	_, source, ok := SelectLocation(m, SourceExif)
	if !ok || source != SourceExif {
		t.Fatalf("SelectLocation = %q, %v", source, ok)
	}
}

func TestSelectLocationFallsBackFromPlaceholder(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		preferred string
		source    string
		ok        bool
	}{
		{
			name:      "gphotos placeholder uses exif",
			doc:       `{"geoData": {"latitude": 0.0, "longitude": 0.0}, "geoDataExif": {"latitude": 1.5, "longitude": 2.5}}`,
			preferred: SourceGPhotos,
			source:    SourceExif,
			ok:        true,
		},
		{
			name:      "exif missing uses gphotos",
			doc:       `{"geoData": {"latitude": 1.5, "longitude": 2.5}}`,
			preferred: SourceExif,
			source:    SourceGPhotos,
			ok:        true,
		},
		{
			name:      "both placeholders",
			doc:       `{"geoData": {"latitude": 0.0, "longitude": 0.0}, "geoDataExif": {"latitude": 0.0, "longitude": 0.0}}`,
			preferred: SourceGPhotos,
		},
		{
			name: "no location at all",
			doc:  `{"title": "x"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, source, ok := SelectLocation(parse(t, tc.doc), tc.preferred)
			if ok != tc.ok || source != tc.source {
				t.Fatalf("SelectLocation = %q, %v; want %q, %v", source, ok, tc.source, tc.ok)
			}
		})
	}
}

func TestDeriveSkipsAbsentAndReportsMalformed(t *testing.T) {
	tags, problems := Derive(parse(t, `{"photoTakenTime": {"timestamp": "soon"}}`), DeriveOptions{})
	if len(tags) != 0 {
		t.Fatalf("tags = %v, want none", tags)
	}
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want one", problems)
	}
}

func TestDeriveOmitGPS(t *testing.T) {
	tags, _ := Derive(parse(t, mockSidecar), DeriveOptions{OmitGPS: true})
	if tags.HasGPS() {
		t.Fatalf("GPS tags present: %v", tags.Keys())
	}
	if tags[ExifXPTitle] != "test" {
		t.Fatal("non-GPS tags should remain")
	}
}

func TestTagsFamily(t *testing.T) {
	tags := Tags{ExifXPTitle: "a", XmpTitle: "a", XmpCreateDate: "b"}
	if got := tags.Family("Xmp"); len(got) != 2 {
		t.Fatalf("Xmp family = %v", got)
	}
	if got := tags.Family("Exif"); len(got) != 1 {
		t.Fatalf("Exif family = %v", got)
	}
}

func TestPassthroughKeepsContent(t *testing.T) {
	content := []byte("jpeg bytes")
	res, err := Passthrough{}.Encode(content, Tags{ExifXPTitle: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Content, content) || len(res.Sidecars) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestXMPSidecarPacket(t *testing.T) {
	tags, _ := Derive(parse(t, mockSidecar), DeriveOptions{})
	tags[XmpDescription] = `rock & roll <live>`

	content := []byte("png bytes")
	res, err := XMPSidecar{}.Encode(content, tags)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(res.Content, content) {
		t.Fatal("content must be unchanged")
	}
	if len(res.Sidecars) != 1 || res.Sidecars[0].Suffix != ".xmp" {
		t.Fatalf("sidecars = %+v", res.Sidecars)
	}
	packet := string(res.Sidecars[0].Data)

	for _, want := range []string{
		`<?xpacket begin=`,
		`<xmp:CreateDate>2021-05-21 05:00:00+00:00</xmp:CreateDate>`,
		`<exif:DateTimeDigitized>2023-05-22 19:34:53+00:00</exif:DateTimeDigitized>`,
		`<exif:GPSLatitude>45,25,17.4N</exif:GPSLatitude>`,
		`<exif:GPSLongitude>75,41,49.92W</exif:GPSLongitude>`,
		`<rdf:li xml:lang="x-default">test</rdf:li>`,
		`rock &amp; roll &lt;live&gt;`,
		`xmlns:dc="http://purl.org/dc/elements/1.1/"`,
		`<?xpacket end="w"?>`,
	} {
		if !strings.Contains(packet, want) {
			t.Errorf("packet missing %q\n%s", want, packet)
		}
	}
	if strings.Contains(packet, "XPTitle") {
		t.Error("Exif tags must not appear in the XMP packet")
	}

	dec := xml.NewDecoder(strings.NewReader(packet))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("packet is not well-formed XML: %v", err)
		}
	}
}

func TestXMPPacketKeepsHemisphere(t *testing.T) {
	packet := func(doc string) string {
		t.Helper()
		tags, problems := Derive(parse(t, doc), DeriveOptions{})
		if len(problems) != 0 {
			t.Fatalf("problems = %v", problems)
		}
		res, err := XMPSidecar{}.Encode(nil, tags)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		return string(res.Sidecars[0].Data)
	}

	southEast := packet(`{"geoData": {"latitude": -33.8568, "longitude": 151.2153}}`)
	northWest := packet(`{"geoData": {"latitude": 33.8568, "longitude": -151.2153}}`)
	if southEast == northWest {
		t.Fatal("mirrored locations produced the same packet")
	}
	for _, want := range []string{
		`<exif:GPSLatitude>33,51,24.48S</exif:GPSLatitude>`,
		`<exif:GPSLongitude>151,12,55.08E</exif:GPSLongitude>`,
	} {
		if !strings.Contains(southEast, want) {
			t.Errorf("packet missing %q\n%s", want, southEast)
		}
	}
	for _, want := range []string{
		`<exif:GPSLatitude>33,51,24.48N</exif:GPSLatitude>`,
		`<exif:GPSLongitude>151,12,55.08W</exif:GPSLongitude>`,
	} {
		if !strings.Contains(northWest, want) {
			t.Errorf("packet missing %q\n%s", want, northWest)
		}
	}
}

func TestMarshalXMPRejectsUnknownNamespace(t *testing.T) {
	if _, err := MarshalXMP(Tags{"Xmp.bogus.Thing": "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCodec(t *testing.T) {
	for _, name := range []string{"xmp", "XMP", "passthrough"} {
		c, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if !strings.EqualFold(c.Name(), name) {
			t.Fatalf("New(%q).Name() = %q", name, c.Name())
		}
	}
	if _, err := New("exiv2"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestHasEmbeddedGPSOnNonExifContent(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if HasEmbeddedGPS(pngHeader) {
		t.Fatal("png without exif reported GPS")
	}
	if HasEmbeddedGPS(nil) {
		t.Fatal("empty content reported GPS")
	}
}
