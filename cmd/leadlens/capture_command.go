package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leadlens/internal/capture"
	"leadlens/internal/deps"
	"leadlens/internal/fileutil"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture pipeline tools",
	}
	captureCmd.AddCommand(newCaptureOptimizeCommand(ctx))
	captureCmd.AddCommand(newCaptureProfileCommand())
	return captureCmd
}

func newCaptureOptimizeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var platform string
	var duration time.Duration
	var targetBytes int64

	cmd := &cobra.Command{
		Use:   "optimize INPUT",
		Short: "Compress a recording and apply the platform compatibility pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input := args[0]
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input recording: %w", err)
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = strings.TrimSuffix(input, filepath.Ext(input)) + "-optimized.mp4"
			}
			p, err := parsePlatform(platform)
			if err != nil {
				return err
			}
			if targetBytes <= 0 {
				targetBytes = cfg.Capture.TargetVideoBytes
			}

			out := cmd.OutOrStdout()
			ffmpeg := deps.CheckFFmpeg(cfg.Capture.FFmpegBinary)
			if !ffmpeg.Available {
				if err := fileutil.CopyFile(input, target); err != nil {
					return fmt.Errorf("copy recording: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: %s; copied recording unchanged\n", ffmpeg.Detail)
			} else {
				transcoder := capture.NewFFmpegTranscoder(ffmpeg.Command, targetBytes,
					capture.WithTranscoderLogger(cliLogger(cmd)))
				if err := transcoder.OptimizeFile(cmd.Context(), input, target, duration, p); err != nil {
					return err
				}
			}

			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("inspect output: %w", err)
			}
			shareLimit := cfg.Capture.ShareLimitBytes
			if shareLimit <= 0 {
				shareLimit = capture.ShareLimitBytes
			}
			fmt.Fprintf(out, "Wrote %s (%s, platform %s)\n", target, formatBytes(info.Size()), p)
			fmt.Fprintf(out, "Shareable: %s\n", yesNo(info.Size() <= shareLimit))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to INPUT-optimized.mp4)")
	cmd.Flags().StringVar(&platform, "platform", string(capture.PlatformDesktop), "Target platform: ios, android or desktop")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Clip duration; enables bitrate targeting")
	cmd.Flags().Int64Var(&targetBytes, "target-bytes", 0, "Target output size (defaults to capture.target_video_bytes)")
	return cmd
}

func newCaptureProfileCommand() *cobra.Command {
	var userAgent string
	var facing string

	cmd := &cobra.Command{
		Use:         "profile",
		Short:       "Print camera and recorder settings chosen for a User-Agent",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := capture.DetectPlatform(userAgent)
			mode := capture.Facing(strings.TrimSpace(facing))
			if mode != capture.FacingEnvironment {
				mode = capture.FacingUser
			}
			profile := struct {
				Platform    capture.Platform       `json:"platform"`
				Constraints capture.Constraints    `json:"constraints"`
				Recorder    capture.RecorderConfig `json:"recorder"`
				PhotoWidth  int                    `json:"photoWidth"`
			}{
				Platform:    p,
				Constraints: capture.ConstraintsFor(p, mode),
				Recorder:    capture.RecorderConfigFor(p, capture.PickMIMEType(nil)),
				PhotoWidth:  capture.PhotoTargetWidth(p),
			}
			return writeJSON(cmd, profile)
		},
	}

	cmd.Flags().StringVar(&userAgent, "user-agent", "", "Browser User-Agent string")
	cmd.Flags().StringVar(&facing, "facing", string(capture.FacingUser), "Camera facing mode: user or environment")
	return cmd
}

func parsePlatform(value string) (capture.Platform, error) {
	switch p := capture.Platform(strings.ToLower(strings.TrimSpace(value))); p {
	case capture.PlatformIOS, capture.PlatformAndroid, capture.PlatformDesktop:
		return p, nil
	case "":
		return capture.PlatformDesktop, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want ios, android or desktop)", value)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
