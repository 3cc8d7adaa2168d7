// Package ffmpeg wraps the ffmpeg and ffprobe binaries for byte-oriented
// media work: probing container metadata, sampling still frames, and cutting
// short audio clips. Media bytes are piped through standard input so nothing
// is spooled to disk.
//
// Key types:
//   - Sampler: frame, thumbnail, and audio extraction from video bytes
//   - ProbeResult: parsed ffprobe output with tag fallback helpers
//
// The ffmpeg binary routinely closes its input once it has read enough to
// satisfy a request, so every subprocess invocation here tolerates a broken
// input pipe and treats an empty result as "nothing extracted" rather than a
// hard failure.
package ffmpeg
