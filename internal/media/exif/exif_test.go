package exif

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestExtractGarbageReturnsEmpty(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("not a jpeg"),
		{0xFF, 0xD8, 0xFF, 0xD9}, // bare SOI/EOI with no APP1 block
	}
	for _, data := range cases {
		meta := Extract(data)
		if meta.TakenAt != nil {
			t.Fatalf("expected no timestamp from %d garbage bytes", len(data))
		}
		if meta.HasLocation() {
			t.Fatalf("expected no location from %d garbage bytes", len(data))
		}
		if meta.CameraMake != "" || meta.CameraModel != "" {
			t.Fatalf("expected no camera identity from %d garbage bytes", len(data))
		}
	}
}

// The fixtures below are hand-assembled little-endian TIFF streams, which the
// EXIF decoder accepts directly. Building them in code keeps the tag layout
// visible where a binary fixture file would hide it.

const (
	tagGPSLatitudeRef  = 0x0001
	tagGPSLatitude     = 0x0002
	tagGPSLongitudeRef = 0x0003
	tagGPSLongitude    = 0x0004
	tagMake            = 0x010F
	tagModel           = 0x0110
	tagDateTime        = 0x0132
	tagExifIFD         = 0x8769
	tagGPSIFD          = 0x8825
	tagDateTimeOrig    = 0x9003

	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func asciiEntry(tag uint16, value string) tiffEntry {
	return tiffEntry{tag: tag, typ: typeASCII, count: uint32(len(value)), value: []byte(value)}
}

func longEntry(tag uint16, v uint32) tiffEntry {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, v)
	return tiffEntry{tag: tag, typ: typeLong, count: 1, value: value}
}

// rationalEntry takes alternating numerator/denominator pairs.
func rationalEntry(tag uint16, parts ...uint32) tiffEntry {
	value := make([]byte, 4*len(parts))
	for i, part := range parts {
		binary.LittleEndian.PutUint32(value[i*4:], part)
	}
	return tiffEntry{tag: tag, typ: typeRational, count: uint32(len(parts) / 2), value: value}
}

func ifdSize(entries int) uint32 {
	return 2 + 12*uint32(entries) + 4
}

// buildTIFF serializes the IFDs back to back after the 8-byte header, with
// all out-of-line values in a data area at the end. Values over 4 bytes go
// out of line; shorter ones sit in the entry itself.
func buildTIFF(t *testing.T, ifds ...[]tiffEntry) []byte {
	t.Helper()

	dataOff := uint32(8)
	for _, entries := range ifds {
		dataOff += ifdSize(len(entries))
	}

	var buf bytes.Buffer
	var data bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("write tiff: %v", err)
		}
	}
	buf.WriteString("II")
	write(uint16(42))
	write(uint32(8))

	for _, entries := range ifds {
		write(uint16(len(entries)))
		for _, entry := range entries {
			write(entry.tag)
			write(entry.typ)
			write(entry.count)
			if len(entry.value) <= 4 {
				inline := make([]byte, 4)
				copy(inline, entry.value)
				buf.Write(inline)
				continue
			}
			write(dataOff + uint32(data.Len()))
			data.Write(entry.value)
		}
		write(uint32(0))
	}
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func TestExtractFullMetadata(t *testing.T) {
	exifIFDOff := uint32(8) + ifdSize(4)
	gpsIFDOff := exifIFDOff + ifdSize(1)
	photo := buildTIFF(t,
		[]tiffEntry{
			asciiEntry(tagMake, "Apple\x00"),
			asciiEntry(tagModel, "iPhone 15\x00"),
			longEntry(tagExifIFD, exifIFDOff),
			longEntry(tagGPSIFD, gpsIFDOff),
		},
		[]tiffEntry{
			asciiEntry(tagDateTimeOrig, "2025:06:14 21:30:00\x00"),
		},
		[]tiffEntry{
			asciiEntry(tagGPSLatitudeRef, "N\x00"),
			rationalEntry(tagGPSLatitude, 40, 1, 44, 1, 312, 10),
			asciiEntry(tagGPSLongitudeRef, "W\x00"),
			rationalEntry(tagGPSLongitude, 73, 1, 59, 1, 384, 10),
		},
	)

	meta := Extract(photo)
	if meta.TakenAt == nil {
		t.Fatal("expected a capture timestamp")
	}
	want := time.Date(2025, 6, 14, 21, 30, 0, 0, time.UTC)
	if !meta.TakenAt.Equal(want) {
		t.Fatalf("TakenAt = %v, want %v", meta.TakenAt, want)
	}
	if !meta.HasLocation() {
		t.Fatal("expected GPS coordinates")
	}
	// 40 deg 44' 31.2" N and 73 deg 59' 38.4" W
	if math.Abs(*meta.Lat-40.742) > 0.0005 {
		t.Fatalf("Lat = %v, want about 40.742", *meta.Lat)
	}
	if math.Abs(*meta.Lng-(-73.994)) > 0.0005 {
		t.Fatalf("Lng = %v, want about -73.994", *meta.Lng)
	}
	if meta.CameraMake != "Apple" || meta.CameraModel != "iPhone 15" {
		t.Fatalf("camera identity = %q / %q", meta.CameraMake, meta.CameraModel)
	}
}

func TestExtractTimestampFallsBackToDateTime(t *testing.T) {
	// No DateTimeOriginal or DateTimeDigitized anywhere, so the plain
	// DateTime tag at the end of the chain has to supply the timestamp.
	photo := buildTIFF(t, []tiffEntry{
		asciiEntry(tagDateTime, "2024:11:02 19:05:00\x00"),
	})

	meta := Extract(photo)
	if meta.TakenAt == nil {
		t.Fatal("expected the DateTime fallback to supply a timestamp")
	}
	want := time.Date(2024, 11, 2, 19, 5, 0, 0, time.UTC)
	if !meta.TakenAt.Equal(want) {
		t.Fatalf("TakenAt = %v, want %v", meta.TakenAt, want)
	}
	if meta.HasLocation() {
		t.Fatal("expected no location without a GPS IFD")
	}
}
