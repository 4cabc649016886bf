package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestTargetKbps(t *testing.T) {
	if got := TargetKbps(DefaultTargetBytes, 15*time.Second); got != 8388 {
		t.Fatalf("TargetKbps = %d, want 8388", got)
	}
	if got := TargetKbps(DefaultTargetBytes, 0); got != 0 {
		t.Fatalf("zero duration should give 0, got %d", got)
	}
}

func TestCompressArgs(t *testing.T) {
	args := CompressArgs("in.webm", "out.mp4", 10*time.Second, 10_000_000)
	joined := strings.Join(args, " ")
	for _, want := range []string{"-b:v 8000k", "-maxrate 12000k", "-bufsize 24000k", "-movflags +faststart", "-c:a aac"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output must be last, got %v", args)
	}
	if slices.Contains(CompressArgs("in", "out", 0, 10_000_000), "-b:v") {
		t.Fatal("unknown duration must not set a bitrate")
	}
}

func TestPlatformArgs(t *testing.T) {
	ios := strings.Join(PlatformArgs("in", "out", PlatformIOS), " ")
	if !strings.Contains(ios, "-profile:v baseline -level 3.0") || strings.Contains(ios, "-ar") {
		t.Fatalf("unexpected ios args %s", ios)
	}
	android := strings.Join(PlatformArgs("in", "out", PlatformAndroid), " ")
	if !strings.Contains(android, "-profile:v main -level 3.1") || !strings.Contains(android, "-ar 44100") {
		t.Fatalf("unexpected android args %s", android)
	}
	if !strings.Contains(android, "scale=trunc(iw/2)*2:trunc(ih/2)*2") || !strings.Contains(android, "-pix_fmt yuv420p") {
		t.Fatalf("missing even-dimension scaling %s", android)
	}
	if PlatformArgs("in", "out", PlatformDesktop) != nil {
		t.Fatal("desktop needs no platform pass")
	}
}

// writingRunner fakes ffmpeg by writing a marker into the output path.
func writingRunner(calls *[][]string, failPass int) CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		if len(*calls) == failPass {
			return nil, errors.New("exit status 1")
		}
		output := args[len(args)-1]
		return nil, os.WriteFile(output, []byte("pass"+string(rune('0'+len(*calls)))), 0o600)
	}
}

func TestOptimizeRunsBothPasses(t *testing.T) {
	var calls [][]string
	tc := NewFFmpegTranscoder("/usr/bin/ffmpeg", 0, WithCommandRunner(writingRunner(&calls, 0)))
	in := &Artifact{Kind: KindVideo, MIMEType: "video/webm", Data: []byte("raw"), Duration: 5 * time.Second}

	out, err := tc.Optimize(context.Background(), in, PlatformIOS)
	if err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}
	if len(calls) != 2 || calls[0][0] != "/usr/bin/ffmpeg" {
		t.Fatalf("expected two ffmpeg passes, got %v", calls)
	}
	if string(out.Data) != "pass2" || out.MIMEType != "video/mp4" {
		t.Fatalf("expected platform pass output, got %q %s", out.Data, out.MIMEType)
	}
}

func TestOptimizeKeepsCompressedWhenPlatformPassFails(t *testing.T) {
	var calls [][]string
	tc := NewFFmpegTranscoder("", 0, WithCommandRunner(writingRunner(&calls, 2)))
	dir := t.TempDir()
	input := filepath.Join(dir, "in.webm")
	output := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(input, []byte("raw"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := tc.OptimizeFile(context.Background(), input, output, 4*time.Second, PlatformAndroid); err != nil {
		t.Fatalf("OptimizeFile returned error: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "pass1" {
		t.Fatalf("expected compressed output, got %q %v", data, err)
	}
	if calls[0][0] != "ffmpeg" {
		t.Fatalf("expected default binary, got %s", calls[0][0])
	}
}

func TestOptimizeFailsWhenCompressionFails(t *testing.T) {
	var calls [][]string
	tc := NewFFmpegTranscoder("ffmpeg", 0, WithCommandRunner(writingRunner(&calls, 1)))
	in := &Artifact{Kind: KindVideo, MIMEType: "video/mp4", Data: []byte("raw")}
	if _, err := tc.Optimize(context.Background(), in, PlatformDesktop); err == nil {
		t.Fatal("expected compression failure")
	}
	if _, err := tc.Optimize(context.Background(), &Artifact{}, PlatformDesktop); err == nil {
		t.Fatal("expected empty recording error")
	}
}
