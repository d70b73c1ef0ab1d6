package tagcodec

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// HasEmbeddedGPS reports whether content already carries a readable EXIF
// GPS position. Formats goexif cannot parse report false.
func HasEmbeddedGPS(content []byte) bool {
	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		return false
	}
	_, _, err = x.LatLong()
	return err == nil
}
