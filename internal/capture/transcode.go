package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"leadlens/internal/fileutil"
	"leadlens/internal/logging"
)

// DefaultTargetBytes is the size compressed recordings aim for.
const DefaultTargetBytes int64 = 15 * 1024 * 1024

// Transcoder prepares a recorded video for the viewer's platform.
type Transcoder interface {
	Optimize(ctx context.Context, video *Artifact, platform Platform) (*Artifact, error)
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpegTranscoder compresses recordings toward a byte budget and then applies
// the H.264 profile the target platform plays back natively.
type FFmpegTranscoder struct {
	binary      string
	targetBytes int64
	run         CommandRunner
	logger      *slog.Logger
}

// TranscoderOption customizes FFmpegTranscoder.
type TranscoderOption func(*FFmpegTranscoder)

// WithCommandRunner swaps command execution (for testing).
func WithCommandRunner(run CommandRunner) TranscoderOption {
	return func(t *FFmpegTranscoder) {
		if run != nil {
			t.run = run
		}
	}
}

// WithTranscoderLogger attaches a logger.
func WithTranscoderLogger(logger *slog.Logger) TranscoderOption {
	return func(t *FFmpegTranscoder) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewFFmpegTranscoder builds a transcoder around the given ffmpeg binary.
func NewFFmpegTranscoder(binary string, targetBytes int64, opts ...TranscoderOption) *FFmpegTranscoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if targetBytes <= 0 {
		targetBytes = DefaultTargetBytes
	}
	t := &FFmpegTranscoder{
		binary:      binary,
		targetBytes: targetBytes,
		run:         execRunner,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "transcoder")
	return t
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(lastLines(string(output), 5)))
	}
	return output, nil
}

// TargetKbps is the average video bitrate that fits targetBytes into duration.
// It returns zero when the duration is unknown.
func TargetKbps(targetBytes int64, duration time.Duration) int64 {
	seconds := duration.Seconds()
	if seconds <= 0 || targetBytes <= 0 {
		return 0
	}
	return int64(float64(targetBytes*8) / seconds / 1000)
}

// CompressArgs builds the size-targeted H.264/AAC pass.
func CompressArgs(input, output string, duration time.Duration, targetBytes int64) []string {
	args := []string{"-hide_banner", "-i", input, "-c:v", "libx264", "-preset", "medium", "-crf", "23"}
	if kbps := TargetKbps(targetBytes, duration); kbps > 0 {
		args = append(args,
			"-b:v", strconv.FormatInt(kbps, 10)+"k",
			"-maxrate", strconv.FormatInt(kbps*3/2, 10)+"k",
			"-bufsize", strconv.FormatInt(kbps*3, 10)+"k",
		)
	}
	args = append(args, "-c:a", "aac", "-b:a", "128k", "-ar", "44100", "-movflags", "+faststart", "-y", output)
	return args
}

// PlatformArgs builds the compatibility pass for p. Desktop needs none and
// returns nil.
func PlatformArgs(input, output string, p Platform) []string {
	var profile, level string
	switch p {
	case PlatformIOS:
		profile, level = "baseline", "3.0"
	case PlatformAndroid:
		profile, level = "main", "3.1"
	default:
		return nil
	}
	args := []string{
		"-hide_banner", "-i", input,
		"-c:v", "libx264", "-preset", "fast",
		"-profile:v", profile, "-level", level,
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:a", "aac", "-b:a", "128k",
	}
	if p == PlatformAndroid {
		args = append(args, "-ar", "44100")
	}
	return append(args, "-movflags", "+faststart", "-y", output)
}

// OptimizeFile runs both passes from input to output on disk. When the
// compatibility pass fails the compressed file is kept; when compression
// fails an error is returned and output is left untouched.
func (t *FFmpegTranscoder) OptimizeFile(ctx context.Context, input, output string, duration time.Duration, p Platform) error {
	workDir, err := os.MkdirTemp("", "leadlens-transcode-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	compressed := filepath.Join(workDir, "compressed.mp4")
	if _, err := t.run(ctx, t.binary, CompressArgs(input, compressed, duration, t.targetBytes)...); err != nil {
		return fmt.Errorf("compress video: %w", err)
	}

	final := compressed
	if args := PlatformArgs(compressed, filepath.Join(workDir, "platform.mp4"), p); args != nil {
		if _, err := t.run(ctx, t.binary, args...); err != nil {
			logging.WarnWithContext(ctx, t.logger, "platform pass failed", "transcode_platform_failed",
				logging.String("platform", string(p)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "keeping compressed video without platform profile"),
			)
		} else {
			final = args[len(args)-1]
		}
	}

	if err := fileutil.CopyFileVerified(final, output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Optimize implements Transcoder over in-memory artifacts.
func (t *FFmpegTranscoder) Optimize(ctx context.Context, video *Artifact, p Platform) (*Artifact, error) {
	if video == nil || len(video.Data) == 0 {
		return nil, fmt.Errorf("optimize video: empty recording")
	}
	workDir, err := os.MkdirTemp("", "leadlens-recording-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := filepath.Join(workDir, "input"+extensionFor(video.MIMEType))
	if err := os.WriteFile(input, video.Data, 0o600); err != nil {
		return nil, fmt.Errorf("write recording: %w", err)
	}
	output := filepath.Join(workDir, "output.mp4")
	if err := t.OptimizeFile(ctx, input, output, video.Duration, p); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read optimized video: %w", err)
	}
	t.logger.DebugContext(ctx, "video optimized",
		logging.String("platform", string(p)),
		logging.Int64("input_bytes", video.Size()),
		logging.Int64("output_bytes", int64(len(data))),
	)
	return &Artifact{
		Kind:      KindVideo,
		MIMEType:  "video/mp4",
		Data:      data,
		Duration:  video.Duration,
		CreatedAt: video.CreatedAt,
	}, nil
}

func extensionFor(mimeType string) string {
	if strings.HasPrefix(mimeType, "video/mp4") {
		return ".mp4"
	}
	return ".webm"
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
