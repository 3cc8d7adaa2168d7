package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runWithStdin executes a binary with media bytes piped to its standard
// input and returns everything it wrote to standard output. Write errors on
// the input pipe are ignored: ffmpeg closes stdin as soon as it has the data
// it needs, and the resulting broken pipe is routine, not a failure.
func runWithStdin(ctx context.Context, binary string, input []byte, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, fmt.Errorf("run %v: empty binary", args)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdin pipe: %w", binary, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	go func() {
		// Errors here are the broken pipe we tolerate.
		_, _ = stdin.Write(input)
		_ = stdin.Close()
	}()

	if err := cmd.Wait(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", binary, err, stderrTail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// stderrTail keeps error messages readable; ffmpeg front-loads banner noise
// and puts the actual failure on the last lines.
func stderrTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
