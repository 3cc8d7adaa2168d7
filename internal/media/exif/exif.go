// Package exif extracts capture metadata from photo bytes.
//
// Extraction is best-effort enrichment. Photos with stripped or mangled EXIF
// blocks are common, so every failure path yields an empty Metadata value
// instead of an error.
package exif

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata holds whatever capture information the photo carried. Any field
// may be absent.
type Metadata struct {
	TakenAt     *time.Time
	Lat         *float64
	Lng         *float64
	CameraMake  string
	CameraModel string
}

// HasLocation reports whether both coordinates were present.
func (m Metadata) HasLocation() bool {
	return m.Lat != nil && m.Lng != nil
}

// timestampTags is the ordered fallback chain for the capture timestamp.
// DateTimeOriginal is the moment the shutter fired; the later entries are
// progressively weaker approximations.
var timestampTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

const exifTimeLayout = "2006:01:02 15:04:05"

// Extract pulls timestamp, GPS, and camera identity from photo bytes.
// Undecodable input returns a zero Metadata, never an error.
func Extract(data []byte) Metadata {
	var meta Metadata
	decoded, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	if taken, ok := decodeTimestamp(decoded); ok {
		meta.TakenAt = &taken
	}

	if lat, lng, err := decoded.LatLong(); err == nil {
		if lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 {
			meta.Lat = &lat
			meta.Lng = &lng
		}
	}

	meta.CameraMake = stringTag(decoded, exif.Make)
	meta.CameraModel = stringTag(decoded, exif.Model)
	return meta
}

func decodeTimestamp(decoded *exif.Exif) (time.Time, bool) {
	for _, field := range timestampTags {
		tag, err := decoded.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if parsed, err := time.ParseInLocation(exifTimeLayout, value, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func stringTag(decoded *exif.Exif, field exif.FieldName) string {
	tag, err := decoded.Get(field)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(value, "\x00"))
}
