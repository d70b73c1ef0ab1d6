// Package sidecar decodes the per-item JSON metadata files found in Google
// Takeout exports.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"photomerge/internal/geo"
)

// ErrMissing is wrapped by accessors when the sidecar omits a field.
var ErrMissing = errors.New("field not present in sidecar")

// FieldError reports a sidecar field that is absent or malformed.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("sidecar field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Timestamp is a Takeout time value. Timestamp holds unix seconds as a
// decimal string.
type Timestamp struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted,omitempty"`
}

// GeoData is a Takeout location block. Values keep their JSON text so
// degree conversion is exact.
type GeoData struct {
	Latitude      json.Number `json:"latitude"`
	Longitude     json.Number `json:"longitude"`
	Altitude      json.Number `json:"altitude,omitempty"`
	LatitudeSpan  json.Number `json:"latitudeSpan,omitempty"`
	LongitudeSpan json.Number `json:"longitudeSpan,omitempty"`
}

// Metadata is one decoded sidecar. Unknown fields are ignored.
type Metadata struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageViews  string     `json:"imageViews,omitempty"`
	URL         string     `json:"url,omitempty"`
	Created     *Timestamp `json:"creationTime,omitempty"`
	Taken       *Timestamp `json:"photoTakenTime,omitempty"`
	Geo         *GeoData   `json:"geoData,omitempty"`
	GeoExif     *GeoData   `json:"geoDataExif,omitempty"`
	Favorited   bool       `json:"favorited,omitempty"`
	Trashed     bool       `json:"trashed,omitempty"`
}

// Location is a latitude/longitude pair ready for tag encoding.
type Location struct {
	Latitude  geo.Coordinate
	Longitude geo.Coordinate
	Altitude  string
}

// IsZero reports the 0,0 placeholder Takeout writes when it has no
// location.
func (l Location) IsZero() bool {
	return l.Latitude.IsZero() && l.Longitude.IsZero()
}

// Parse decodes a sidecar document.
func Parse(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode sidecar: %w", err)
	}
	return &m, nil
}

// Decode reads and decodes a sidecar document from r.
func Decode(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	return Parse(data)
}

// CreationTime returns when the item was uploaded, in UTC.
func (m *Metadata) CreationTime() (time.Time, error) {
	return parseTimestamp("creationTime", m.Created)
}

// PhotoTakenTime returns when the photo or video was captured, in UTC.
func (m *Metadata) PhotoTakenTime() (time.Time, error) {
	return parseTimestamp("photoTakenTime", m.Taken)
}

// GPhotosLocation returns the location Google Photos assigned to the item.
func (m *Metadata) GPhotosLocation() (Location, error) {
	return parseLocation("geoData", m.Geo)
}

// ExifLocation returns the location read from the uploaded file's EXIF.
func (m *Metadata) ExifLocation() (Location, error) {
	return parseLocation("geoDataExif", m.GeoExif)
}

func parseTimestamp(field string, ts *Timestamp) (time.Time, error) {
	if ts == nil || strings.TrimSpace(ts.Timestamp) == "" {
		return time.Time{}, &FieldError{Field: field, Err: ErrMissing}
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(ts.Timestamp), 10, 64)
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Err: err}
	}
	return time.Unix(secs, 0).UTC(), nil
}

func parseLocation(field string, g *GeoData) (Location, error) {
	if g == nil || g.Latitude == "" || g.Longitude == "" {
		return Location{}, &FieldError{Field: field, Err: ErrMissing}
	}
	lat, err := parseDegrees(g.Latitude.String(), 90)
	if err != nil {
		return Location{}, &FieldError{Field: field + ".latitude", Err: err}
	}
	lon, err := parseDegrees(g.Longitude.String(), 180)
	if err != nil {
		return Location{}, &FieldError{Field: field + ".longitude", Err: err}
	}
	return Location{
		Latitude:  geo.NewCoordinate(geo.Latitude, lat),
		Longitude: geo.NewCoordinate(geo.Longitude, lon),
		Altitude:  g.Altitude.String(),
	}, nil
}

const (
	maxDegreesText     = 64
	maxDegreesExponent = 32
)

// parseDegrees parses decimal degrees and rejects values outside
// [-limit, limit]. Length and exponent are capped before the exact parse.
func parseDegrees(text string, limit int64) (*big.Rat, error) {
	if len(text) > maxDegreesText {
		return nil, fmt.Errorf("decimal degrees longer than %d characters", maxDegreesText)
	}
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		exp, err := strconv.Atoi(text[i+1:])
		if err != nil || exp < -maxDegreesExponent || exp > maxDegreesExponent {
			return nil, fmt.Errorf("decimal degrees %q: exponent out of range", text)
		}
	}
	r, err := geo.ParseDecimal(text)
	if err != nil {
		return nil, err
	}
	if r.CmpAbs(big.NewRat(limit, 1)) > 0 {
		return nil, fmt.Errorf("decimal degrees %s outside [-%d, %d]", text, limit, limit)
	}
	return r, nil
}
