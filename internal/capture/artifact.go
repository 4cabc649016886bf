package capture

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ShareLimitBytes is the largest file offered to the share sheet.
	ShareLimitBytes int64 = 16 * 1024 * 1024
	// PhotoMaxBytes is the size above which snapshots are re-encoded smaller.
	PhotoMaxBytes int64 = 5 * 1024 * 1024
)

// ErrTooLargeToShare is returned by Shareable for oversized recordings.
var ErrTooLargeToShare = errors.New("video is too large to share; record a shorter video or download it instead")

// Kind distinguishes photos from videos.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Artifact is a captured photo or video owned by one session.
type Artifact struct {
	Kind      Kind
	MIMEType  string
	Data      []byte
	Duration  time.Duration
	CreatedAt time.Time
}

// Size reports the payload length in bytes.
func (a *Artifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}

// FileName is the download name for the artifact.
func (a *Artifact) FileName() string {
	ms := a.CreatedAt.UnixMilli()
	if a.Kind == KindVideo {
		return fmt.Sprintf("snaplead-recording-%d.mp4", ms)
	}
	return fmt.Sprintf("snaplead-photo-%d.jpg", ms)
}

// Shareable reports whether the artifact may be handed to a share target.
// Downloads are always allowed.
func (a *Artifact) Shareable() error {
	if a.Size() > ShareLimitBytes {
		return ErrTooLargeToShare
	}
	return nil
}

// Release drops the payload. It is safe to call more than once.
func (a *Artifact) Release() {
	if a != nil {
		a.Data = nil
	}
}
