package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const ffmpegName = "ffmpeg"

// CheckFFmpeg reports the FFmpeg binary the capture transcoder will execute.
//
// A configured binary wins when it resolves. A bare name is looked up on PATH
// and an absolute path must be an executable file. Otherwise "ffmpeg" is
// resolved from PATH. FFmpeg is optional: without it recordings are kept in
// the format the browser produced.
func CheckFFmpeg(configured string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Optimizes recorded clips for sharing",
		Optional:    true,
	}

	if binary := strings.TrimSpace(configured); binary != "" && binary != ffmpegName {
		if resolved, ok := resolveExecutable(binary); ok {
			result.Command = resolved
			result.Available = true
			return result
		}
	}

	return CheckBinaries([]Requirement{{
		Name:        result.Name,
		Command:     ffmpegName,
		Description: result.Description,
		Optional:    true,
	}})[0]
}

func resolveExecutable(binary string) (string, bool) {
	if !filepath.IsAbs(binary) {
		resolved, err := exec.LookPath(binary)
		return resolved, err == nil
	}
	info, err := os.Stat(binary)
	if err != nil || !isExecutable(info) {
		return "", false
	}
	return binary, true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
