package tagcodec

import (
	"errors"

	"photomerge/internal/sidecar"
)

// Location sources selectable for GPS tags.
const (
	SourceGPhotos = "gphotos"
	SourceExif    = "exif"
)

// DeriveOptions controls which sidecar values become tags.
type DeriveOptions struct {
	// LocationSource picks geoData ("gphotos") or geoDataExif ("exif").
	// Empty means gphotos.
	LocationSource string
	// OmitGPS suppresses every GPS tag.
	OmitGPS bool
}

// SelectLocation returns the location to tag and the source it came from.
// When the preferred source is absent or the 0,0 placeholder the other
// source is used. ok is false when neither carries a real location.
func SelectLocation(m *sidecar.Metadata, preferred string) (loc sidecar.Location, source string, ok bool) {
	order := []string{SourceGPhotos, SourceExif}
	if preferred == SourceExif {
		order = []string{SourceExif, SourceGPhotos}
	}
	for _, src := range order {
		var (
			candidate sidecar.Location
			err       error
		)
		if src == SourceExif {
			candidate, err = m.ExifLocation()
		} else {
			candidate, err = m.GPhotosLocation()
		}
		if err != nil || candidate.IsZero() {
			continue
		}
		return candidate, src, true
	}
	return sidecar.Location{}, "", false
}

// Derive builds the tag set for one item. Absent sidecar fields are
// skipped quietly; malformed ones are skipped and reported in problems.
func Derive(m *sidecar.Metadata, opts DeriveOptions) (tags Tags, problems []error) {
	tags = make(Tags)
	note := func(err error) {
		if err != nil && !errors.Is(err, sidecar.ErrMissing) {
			problems = append(problems, err)
		}
	}

	if taken, err := m.PhotoTakenTime(); err == nil {
		v := FormatDate(taken)
		tags[ExifDateTimeOriginal] = v
		tags[XmpCreateDate] = v
		tags[XmpDateTimeOriginal] = v
	} else {
		note(err)
	}
	if created, err := m.CreationTime(); err == nil {
		v := FormatDate(created)
		tags[ExifDateTimeDigitized] = v
		tags[XmpDateTimeDigitized] = v
	} else {
		note(err)
	}

	if !opts.OmitGPS {
		if _, err := m.GPhotosLocation(); err != nil {
			note(err)
		}
		if _, err := m.ExifLocation(); err != nil {
			note(err)
		}
		if loc, _, ok := SelectLocation(m, opts.LocationSource); ok {
			lat := loc.Latitude.DMS.String()
			lon := loc.Longitude.DMS.String()
			tags[ExifGPSLatitude] = lat
			tags[ExifGPSLatitudeRef] = loc.Latitude.Ref()
			tags[ExifGPSLongitude] = lon
			tags[ExifGPSLongitudeRef] = loc.Longitude.Ref()
			tags[XmpGPSLatitude] = loc.Latitude.XMPString()
			tags[XmpGPSLongitude] = loc.Longitude.XMPString()
		}
	}

	if m.Title != "" {
		tags[ExifXPTitle] = m.Title
		tags[XmpTitle] = m.Title
	}
	if m.Description != "" {
		tags[XmpDescription] = m.Description
		tags[XmpImageDescription] = m.Description
	}
	return tags, problems
}
