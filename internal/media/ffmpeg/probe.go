package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProbeResult represents the parsed output from an ffprobe inspection.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the media container.
type ProbeStream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Duration  string            `json:"duration"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
}

// ProbeFormat captures container-level metadata extracted by ffprobe.
type ProbeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// creationTimeTags is the ordered fallback chain for the capture timestamp.
// The QuickTime vendor tag carries the original local-time capture moment on
// iPhone footage; creation_time is the generic container field; date is a
// last-resort catch-all some muxers write.
var creationTimeTags = []string{
	"com.apple.quicktime.creationdate",
	"creation_time",
	"date",
}

// locationTags is the ordered fallback chain for GPS, all ISO 6709 encoded.
var locationTags = []string{
	"com.apple.quicktime.location.ISO6709",
	"location",
	"location-eng",
}

var creationTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Probe executes ffprobe over media bytes piped to its standard input and
// decodes the JSON response.
func Probe(ctx context.Context, binary string, data []byte) (ProbeResult, error) {
	if len(data) == 0 {
		return ProbeResult{}, errors.New("ffprobe: empty input")
	}
	output, err := runWithStdin(ctx, binary, data,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json",
		"-i", "pipe:0")
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds returns the container duration in seconds, falling back to
// the longest stream duration, or 0 when unavailable.
func (r ProbeResult) DurationSeconds() float64 {
	if parsed := parseFloat(r.Format.Duration); parsed > 0 {
		return parsed
	}
	longest := 0.0
	for _, stream := range r.Streams {
		if parsed := parseFloat(stream.Duration); parsed > longest {
			longest = parsed
		}
	}
	return longest
}

// CreationTime walks the tag fallback chain and returns the first parseable
// capture timestamp.
func (r ProbeResult) CreationTime() (time.Time, bool) {
	for _, name := range creationTimeTags {
		value, ok := r.tag(name)
		if !ok {
			continue
		}
		for _, layout := range creationTimeLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// Location walks the tag fallback chain and returns the first valid ISO 6709
// coordinate pair.
func (r ProbeResult) Location() (lat, lng float64, ok bool) {
	for _, name := range locationTags {
		value, found := r.tag(name)
		if !found {
			continue
		}
		if lat, lng, ok = ParseISO6709(value); ok {
			return lat, lng, true
		}
	}
	return 0, 0, false
}

// tag looks up a container tag case-insensitively, format tags first, then
// each stream in order.
func (r ProbeResult) tag(name string) (string, bool) {
	if value, ok := lookupTag(r.Format.Tags, name); ok {
		return value, true
	}
	for _, stream := range r.Streams {
		if value, ok := lookupTag(stream.Tags, name); ok {
			return value, true
		}
	}
	return "", false
}

func lookupTag(tags map[string]string, name string) (string, bool) {
	for key, value := range tags {
		if strings.EqualFold(key, name) {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return 0
}
