package tagcodec

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the layout of every date tag value. Dates are always UTC.
const DateLayout = "2006-01-02 15:04:05-07:00"

const (
	ExifDateTimeOriginal  = "Exif.Photo.DateTimeOriginal"
	ExifDateTimeDigitized = "Exif.Photo.DateTimeDigitized"
	ExifGPSLatitude       = "Exif.GPSInfo.GPSLatitude"
	ExifGPSLatitudeRef    = "Exif.GPSInfo.GPSLatitudeRef"
	ExifGPSLongitude      = "Exif.GPSInfo.GPSLongitude"
	ExifGPSLongitudeRef   = "Exif.GPSInfo.GPSLongitudeRef"
	ExifXPTitle           = "Exif.Image.XPTitle"

	XmpCreateDate        = "Xmp.xmp.CreateDate"
	XmpDateTimeOriginal  = "Xmp.exif.DateTimeOriginal"
	XmpDateTimeDigitized = "Xmp.exif.DateTimeDigitized"
	XmpTitle             = "Xmp.dc.title"
	XmpDescription       = "Xmp.dc.description"
	XmpImageDescription  = "Xmp.exif.ImageDescription"
	XmpGPSLatitude       = "Xmp.exif.GPSLatitude"
	XmpGPSLongitude      = "Xmp.exif.GPSLongitude"
)

// Tags maps exiv2-style keys ("Family.Group.Name") to string values.
type Tags map[string]string

// Keys returns the tag keys in ascending order.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Family returns the subset of tags whose key starts with family + ".".
func (t Tags) Family(family string) Tags {
	prefix := family + "."
	out := make(Tags)
	for k, v := range t {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// HasGPS reports whether any GPS tag is present.
func (t Tags) HasGPS() bool {
	for _, k := range []string{ExifGPSLatitude, ExifGPSLongitude, XmpGPSLatitude, XmpGPSLongitude} {
		if _, ok := t[k]; ok {
			return true
		}
	}
	return false
}

// FormatDate renders ts in DateLayout.
func FormatDate(ts time.Time) string {
	return ts.UTC().Format(DateLayout)
}
