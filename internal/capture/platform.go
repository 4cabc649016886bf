package capture

import "strings"

// Platform is the client family detected from a User-Agent.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformDesktop Platform = "desktop"
)

// DetectPlatform classifies a User-Agent string.
func DetectPlatform(userAgent string) Platform {
	switch {
	case strings.Contains(userAgent, "iPad"),
		strings.Contains(userAgent, "iPhone"),
		strings.Contains(userAgent, "iPod"):
		return PlatformIOS
	case strings.Contains(userAgent, "Android"):
		return PlatformAndroid
	default:
		return PlatformDesktop
	}
}

// Mobile reports whether p is a phone or tablet.
func (p Platform) Mobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// Facing selects the front or rear camera.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Opposite returns the other camera.
func (f Facing) Opposite() Facing {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// Range is an ideal/max constraint pair.
type Range struct {
	Ideal int `json:"ideal"`
	Max   int `json:"max"`
}

// VideoConstraints describes the requested camera track.
type VideoConstraints struct {
	Width     Range  `json:"width"`
	Height    Range  `json:"height"`
	FrameRate Range  `json:"frameRate"`
	Facing    Facing `json:"facingMode"`
}

// AudioConstraints describes the requested microphone track.
type AudioConstraints struct {
	EchoCancellation bool `json:"echoCancellation"`
	NoiseSuppression bool `json:"noiseSuppression"`
	AutoGainControl  bool `json:"autoGainControl"`
	ChannelCount     int  `json:"channelCount"`
	SampleRate       int  `json:"sampleRate"`
	SampleSize       int  `json:"sampleSize"`
}

// Constraints is what a Camera is asked for.
type Constraints struct {
	Video VideoConstraints `json:"video"`
	Audio AudioConstraints `json:"audio"`
}

// ConstraintsFor returns the camera request for p and the given facing mode.
func ConstraintsFor(p Platform, facing Facing) Constraints {
	video := VideoConstraints{
		Width:     Range{Ideal: 1280, Max: 1920},
		Height:    Range{Ideal: 720, Max: 1080},
		FrameRate: Range{Ideal: 30, Max: 60},
	}
	if p.Mobile() {
		video = VideoConstraints{
			Width:     Range{Ideal: 720, Max: 1280},
			Height:    Range{Ideal: 1280, Max: 720},
			FrameRate: Range{Ideal: 30, Max: 30},
		}
	}
	video.Facing = facing
	return Constraints{
		Video: video,
		Audio: AudioConstraints{
			EchoCancellation: true,
			NoiseSuppression: true,
			AutoGainControl:  true,
			ChannelCount:     2,
			SampleRate:       44100,
			SampleSize:       16,
		},
	}
}

// RecorderConfig configures a recording started from the lens output.
type RecorderConfig struct {
	MIMEType           string `json:"mimeType"`
	VideoBitsPerSecond int    `json:"videoBitsPerSecond"`
	AudioBitsPerSecond int    `json:"audioBitsPerSecond"`
	FrameRate          int    `json:"frameRate"`
	TimesliceMillis    int    `json:"timeslice"`
}

// RecorderConfigFor returns recorder settings for p using mimeType.
func RecorderConfigFor(p Platform, mimeType string) RecorderConfig {
	cfg := RecorderConfig{
		MIMEType:           mimeType,
		VideoBitsPerSecond: 4_000_000,
		AudioBitsPerSecond: 128_000,
		FrameRate:          60,
		TimesliceMillis:    1000,
	}
	if p.Mobile() {
		cfg.VideoBitsPerSecond = 2_500_000
		cfg.FrameRate = 30
	}
	return cfg
}

// PhotoTargetWidth is the snapshot width in pixels for p.
func PhotoTargetWidth(p Platform) int {
	if p.Mobile() {
		return 1280
	}
	return 1920
}

// RecordingMIMETypes lists container/codec choices in preference order.
var RecordingMIMETypes = []string{
	"video/mp4;codecs=avc1.42E01F,mp4a.40.2",
	"video/webm;codecs=vp9,opus",
	"video/webm;codecs=vp8,opus",
	"video/webm",
}

// PickMIMEType returns the first preferred type the recorder supports, or
// plain webm when none is reported as supported.
func PickMIMEType(supported func(string) bool) string {
	if supported != nil {
		for _, mime := range RecordingMIMETypes {
			if supported(mime) {
				return mime
			}
		}
	}
	return "video/webm"
}
