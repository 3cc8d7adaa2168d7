package analysis

import (
	"encoding/json"
	"time"

	"gigsnap/internal/matching"
	"gigsnap/internal/vision"
)

// Payload is the analysis record persisted on the media item. It surfaces
// both what the AI saw and why a concert was (or was not) linked.
type Payload struct {
	VisualAnalysis   *vision.Analysis `json:"visualAnalysis"`
	Metadata         MetadataSummary  `json:"metadata"`
	MatchMetadata    *matching.Match  `json:"matchMetadata,omitempty"`
	MatchSuggestions []matching.Match `json:"matchSuggestions,omitempty"`
	AnalyzedAt       time.Time        `json:"analyzedAt"`
}

// MetadataSummary records what capture metadata the pipeline had to work
// with and where it came from.
type MetadataSummary struct {
	HasTakenAt  bool   `json:"hasTakenAt"`
	HasLocation bool   `json:"hasLocation"`
	// TakenAtSource is "exif", "container", or "stored" depending on which
	// layer supplied the resolved timestamp.
	TakenAtSource string `json:"takenAtSource,omitempty"`
	CameraMake    string `json:"cameraMake,omitempty"`
	CameraModel   string `json:"cameraModel,omitempty"`
	FramesSampled int    `json:"framesSampled,omitempty"`
}

func (p Payload) encode() (string, error) {
	encoded, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
