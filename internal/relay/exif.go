package relay

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureTime extracts the EXIF capture timestamp from an image, when
// present. Used only as a suggestion at the datetime step; the reporter
// confirms or overrides it. Any decode failure just means no hint.
func captureTime(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	taken, err := x.DateTime()
	if err != nil {
		return nil
	}

	taken = taken.UTC()
	return &taken
}
