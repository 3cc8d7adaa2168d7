package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"gigsnap/internal/logging"
)

const (
	// maxSampleFrames caps vision-analysis cost per video.
	maxSampleFrames = 5
	// sampleSpanSeconds is the clip length one sampled frame is expected to
	// represent before another frame is added.
	sampleSpanSeconds = 20.0

	// thumbnailOffsetSeconds skips the likely-black leading frames.
	thumbnailOffsetSeconds = 1.0

	audioClipSeconds    = 15
	audioSampleRateHz   = 16000
	audioChannels       = 1
	defaultStageTimeout = 2 * time.Minute
)

// Sampler extracts frames, thumbnails, and audio clips from video bytes by
// piping them through ffmpeg.
type Sampler struct {
	ffmpegBinary  string
	ffprobeBinary string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewSampler constructs a Sampler. Empty binary names fall back to ffmpeg
// and ffprobe on PATH; a zero timeout takes a generous default.
func NewSampler(ffmpegBinary, ffprobeBinary string, timeout time.Duration, logger *slog.Logger) *Sampler {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	return &Sampler{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		timeout:       timeout,
		logger:        logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// Probe inspects video bytes and returns the parsed container metadata.
func (s *Sampler) Probe(ctx context.Context, data []byte) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return Probe(ctx, s.ffprobeBinary, data)
}

// FrameTimestamps returns the even-interval sample points for a clip:
// min(5, ceil(duration/20)) frames at interval = duration/(frames+1), which
// spreads samples across the clip without touching either end.
func FrameTimestamps(durationSeconds float64) []float64 {
	if durationSeconds <= 0 {
		return nil
	}
	count := int(math.Ceil(durationSeconds / sampleSpanSeconds))
	if count > maxSampleFrames {
		count = maxSampleFrames
	}
	interval := durationSeconds / float64(count+1)
	timestamps := make([]float64, count)
	for i := range timestamps {
		timestamps[i] = interval * float64(i+1)
	}
	return timestamps
}

// ExtractFrameAt decodes a single JPEG frame at the given offset. A clip the
// decoder gives up on yields (nil, nil), not an error.
func (s *Sampler) ExtractFrameAt(ctx context.Context, data []byte, seconds float64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	frame, err := runWithStdin(ctx, s.ffmpegBinary, data,
		"-v", "error", "-hide_banner", "-nostdin",
		"-ss", formatSeconds(seconds),
		"-i", "pipe:0",
		"-frames:v", "1",
		"-f", "image2",
		"pipe:1")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("extract frame at %.1fs: %w", seconds, ctxErr)
		}
		s.logger.Debug("frame extraction produced no output",
			logging.Float64("offset_seconds", seconds),
			logging.Error(err))
		return nil, nil
	}
	if len(frame) == 0 {
		return nil, nil
	}
	return frame, nil
}

// ExtractThumbnail grabs one early frame suitable as a thumbnail.
func (s *Sampler) ExtractThumbnail(ctx context.Context, data []byte) ([]byte, error) {
	return s.ExtractFrameAt(ctx, data, thumbnailOffsetSeconds)
}

// ExtractFrames samples frames at even intervals across the clip. Offsets
// that fail to decode are skipped; the returned slice may be shorter than
// the computed sample count, or empty.
func (s *Sampler) ExtractFrames(ctx context.Context, data []byte, durationSeconds float64) ([][]byte, error) {
	timestamps := FrameTimestamps(durationSeconds)
	frames := make([][]byte, 0, len(timestamps))
	for _, offset := range timestamps {
		frame, err := s.ExtractFrameAt(ctx, data, offset)
		if err != nil {
			return frames, err
		}
		if len(frame) == 0 {
			continue
		}
		frames = append(frames, frame)
	}
	s.logger.Debug("sampled video frames",
		logging.Int("requested", len(timestamps)),
		logging.Int("extracted", len(frames)),
		logging.Float64("duration_seconds", durationSeconds))
	return frames, nil
}

// ExtractAudio cuts a fixed-length mono WAV clip from the start of the
// video, sized for audio fingerprinting. A clip with no decodable audio
// yields (nil, nil).
func (s *Sampler) ExtractAudio(ctx context.Context, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	clip, err := runWithStdin(ctx, s.ffmpegBinary, data,
		"-v", "error", "-hide_banner", "-nostdin",
		"-i", "pipe:0",
		"-t", strconv.Itoa(audioClipSeconds),
		"-vn",
		"-ac", strconv.Itoa(audioChannels),
		"-ar", strconv.Itoa(audioSampleRateHz),
		"-f", "wav",
		"pipe:1")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("extract audio: %w", ctxErr)
		}
		s.logger.Debug("audio extraction produced no output", logging.Error(err))
		return nil, nil
	}
	if len(clip) == 0 {
		return nil, nil
	}
	return clip, nil
}

func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
