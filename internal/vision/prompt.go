package vision

import (
	"fmt"
	"strings"
	"time"
)

// Context carries capture metadata the model can cross-reference against
// what it sees. Every field is optional.
type Context struct {
	TakenAt          *time.Time
	Lat              *float64
	Lng              *float64
	OriginalFilename string
	FrameCount       int
}

const systemPrompt = `You identify live music events from photos and video frames.
Look for visual cues: stage design, backdrops, screens, banners, merchandise,
venue architecture, and any visible text. Cross-reference with the capture
metadata supplied by the user.

Respond with a single JSON object and nothing else, using exactly this schema:
{
  "artist": string or null,
  "artistConfidence": number 0-1,
  "venue": string or null,
  "venueCity": string or null,
  "venueConfidence": number 0-1,
  "tourName": string or null,
  "tourConfidence": number 0-1,
  "overallConfidence": number 0-1,
  "reasoning": string
}

Use null for anything you cannot identify. Confidence reflects how certain
you are of that specific field, not of the overall scene.`

// buildUserPrompt renders the metadata block that accompanies the images.
func buildUserPrompt(meta Context) string {
	var b strings.Builder
	b.WriteString("Identify the concert in the attached image")
	if meta.FrameCount > 1 {
		fmt.Fprintf(&b, "s (%d frames sampled from one video)", meta.FrameCount)
	}
	b.WriteString(".\n")

	var facts []string
	if meta.TakenAt != nil {
		facts = append(facts, "Captured: "+meta.TakenAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if meta.Lat != nil && meta.Lng != nil {
		facts = append(facts, fmt.Sprintf("GPS: %.5f, %.5f", *meta.Lat, *meta.Lng))
	}
	if name := strings.TrimSpace(meta.OriginalFilename); name != "" {
		facts = append(facts, "Original filename: "+name)
	}
	if len(facts) == 0 {
		b.WriteString("No capture metadata is available.")
	} else {
		b.WriteString("Capture metadata:\n")
		for _, fact := range facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
