package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadlens/internal/logging"
	"leadlens/internal/services"
)

const (
	DefaultHoldDelay = 300 * time.Millisecond
	DefaultMaxRecord = 15 * time.Second
)

// ErrClosed is returned by Session methods after teardown.
var ErrClosed = errors.New("capture session closed")

// State is the session's position in the capture flow.
type State string

const (
	StateIdle              State = "idle"
	StatePermissionPending State = "permission_pending"
	StateLive              State = "live"
	StateRecording         State = "recording"
	StateProcessing        State = "processing"
	StateReady             State = "ready"
)

// Stream is an acquired camera and microphone stream.
type Stream interface {
	// Stop ends every track on the stream.
	Stop()
}

// Camera acquires media streams.
type Camera interface {
	Acquire(ctx context.Context, constraints Constraints) (Stream, error)
}

// SnapshotOptions controls photo capture.
type SnapshotOptions struct {
	Width    int
	Mirror   bool
	MaxBytes int64
}

// Recording is what a Recorder produced.
type Recording struct {
	MIMEType string
	Data     []byte
	Duration time.Duration
}

// Recorder is an in-progress recording of the lens output.
type Recorder interface {
	Stop(ctx context.Context) (Recording, error)
}

// LensSession renders the camera feed, optionally with a lens applied.
type LensSession interface {
	// ApplyLens loads lensID from the configured group. It reports false
	// when the group has no such lens.
	ApplyLens(ctx context.Context, lensID string) (bool, error)
	SetSource(ctx context.Context, stream Stream) error
	Snapshot(ctx context.Context, opts SnapshotOptions) ([]byte, error)
	SupportsMIME(mimeType string) bool
	StartRecording(ctx context.Context, cfg RecorderConfig) (Recorder, error)
	Pause()
}

// LensProvider creates lens sessions bound to a stream.
type LensProvider interface {
	NewSession(ctx context.Context, stream Stream) (LensSession, error)
}

// Timer is a stoppable pending callback.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules f after d.
type TimerFactory func(d time.Duration, f func()) Timer

func defaultTimerFactory(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Update is published on every state change.
type Update struct {
	State    State
	Artifact *Artifact
	Err      error
	LensOn   bool
	Facing   Facing
}

// Config describes one capture view.
type Config struct {
	LensID    string
	UserAgent string
	HoldDelay time.Duration
	MaxRecord time.Duration
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithTranscoder enables video optimization after recording.
func WithTranscoder(t Transcoder) SessionOption {
	return func(s *Session) { s.transcoder = t }
}

// WithTimerFactory replaces time.AfterFunc (for testing).
func WithTimerFactory(f TimerFactory) SessionOption {
	return func(s *Session) {
		if f != nil {
			s.after = f
		}
	}
}

// WithSessionLogger attaches a logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionClock overrides artifact timestamps.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type eventKind int

const (
	evStart eventKind = iota
	evPress
	evRelease
	evReset
	evSwitch
	evTeardown
	evHoldFired
	evLimitFired
	evProcessed
	evQuery
)

type event struct {
	kind     eventKind
	gen      uint64
	artifact *Artifact
	err      error
	reply    chan Update
}

// Session owns one capture view. Create it with NewSession, run Run in its
// own goroutine and drive it with the event methods.
type Session struct {
	id         string
	cfg        Config
	platform   Platform
	camera     Camera
	lenses     LensProvider
	transcoder Transcoder
	after      TimerFactory
	logger     *slog.Logger
	now        func() time.Time

	events  chan event
	updates chan Update
	done    chan struct{}

	// Loop-owned state below.
	state      State
	facing     Facing
	stream     Stream
	lens       LensSession
	lensOn     bool
	recorder   Recorder
	recStarted time.Time
	artifact   *Artifact
	holdTimer  Timer
	limitTimer Timer
	holdGen    uint64
	limitGen   uint64
	procGen    uint64
	procCancel context.CancelFunc
	workers    sync.WaitGroup
}

// NewSession constructs an idle session.
func NewSession(camera Camera, lenses LensProvider, cfg Config, opts ...SessionOption) *Session {
	if cfg.HoldDelay <= 0 {
		cfg.HoldDelay = DefaultHoldDelay
	}
	if cfg.MaxRecord <= 0 {
		cfg.MaxRecord = DefaultMaxRecord
	}
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		platform: DetectPlatform(cfg.UserAgent),
		camera:   camera,
		lenses:   lenses,
		after:    defaultTimerFactory,
		logger:   logging.NewNop(),
		now:      time.Now,
		events:   make(chan event, 16),
		updates:  make(chan Update, 64),
		done:     make(chan struct{}),
		state:    StateIdle,
		facing:   FacingUser,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "capture").With(logging.String(logging.FieldSessionID, s.id))
	return s
}

// ID is the session's correlation id.
func (s *Session) ID() string { return s.id }

// Platform is the platform detected from the configured User-Agent.
func (s *Session) Platform() Platform { return s.platform }

// Updates streams state changes. Slow readers miss intermediate updates; use
// Current for an authoritative read.
func (s *Session) Updates() <-chan Update { return s.updates }

// Done is closed once teardown has completed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start requests camera access and begins the live view.
func (s *Session) Start() error { return s.send(event{kind: evStart}) }

// Press begins a capture gesture.
func (s *Session) Press() error { return s.send(event{kind: evPress}) }

// Release ends a capture gesture: a short press takes a photo, a long one
// stops the recording.
func (s *Session) Release() error { return s.send(event{kind: evRelease}) }

// Reset discards the ready artifact and returns to the live view.
func (s *Session) Reset() error { return s.send(event{kind: evReset}) }

// SwitchCamera toggles between the front and rear camera.
func (s *Session) SwitchCamera() error { return s.send(event{kind: evSwitch}) }

// Current returns the state as seen by the loop.
func (s *Session) Current(ctx context.Context) (Update, error) {
	reply := make(chan Update, 1)
	if err := s.send(event{kind: evQuery, reply: reply}); err != nil {
		return Update{}, err
	}
	select {
	case u := <-reply:
		return u, nil
	case <-s.done:
		return Update{}, ErrClosed
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

// Teardown stops every timer, the recorder and the camera, then ends Run.
// It returns once cleanup has finished.
func (s *Session) Teardown(ctx context.Context) error {
	if err := s.send(event{kind: evTeardown}); err != nil {
		if errors.Is(err, ErrClosed) {
			return nil
		}
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) send(ev event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// post is used by timers and workers; it drops the event once the loop ended.
func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run processes events until Teardown is requested or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	ctx = services.WithSessionID(ctx, s.id)
	for {
		select {
		case <-ctx.Done():
			s.teardown(context.WithoutCancel(ctx))
			return ctx.Err()
		case ev := <-s.events:
			if ev.kind == evTeardown {
				s.teardown(ctx)
				return nil
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evStart:
		s.handleStart(ctx)
	case evPress:
		s.handlePress()
	case evRelease:
		s.handleRelease(ctx)
	case evReset:
		s.handleReset()
	case evSwitch:
		s.handleSwitch(ctx)
	case evHoldFired:
		s.handleHoldFired(ctx, ev.gen)
	case evLimitFired:
		if ev.gen == s.limitGen && s.state == StateRecording {
			s.logger.DebugContext(ctx, "recording limit reached", logging.Duration("limit", s.cfg.MaxRecord))
			s.stopRecording(ctx)
		}
	case evProcessed:
		s.handleProcessed(ctx, ev)
	case evQuery:
		ev.reply <- s.snapshotUpdate(nil)
	}
}

func (s *Session) handleStart(ctx context.Context) {
	if s.state != StateIdle {
		return
	}
	s.setState(StatePermissionPending, nil)
	if err := s.openCamera(ctx); err != nil {
		s.releaseMedia()
		s.setState(StateIdle, services.Wrap(services.KindCamera, "start camera", "Failed to initialize camera", err))
		return
	}
	s.setState(StateLive, nil)
}

func (s *Session) openCamera(ctx context.Context) error {
	stream, err := s.camera.Acquire(ctx, ConstraintsFor(s.platform, s.facing))
	if err != nil {
		return err
	}
	s.stream = stream
	lens, err := s.lenses.NewSession(ctx, stream)
	if err != nil {
		return err
	}
	s.lens = lens
	s.lensOn = false
	if s.cfg.LensID == "" {
		s.logger.InfoContext(ctx, "no lens id provided; showing plain camera")
		return nil
	}
	found, err := lens.ApplyLens(ctx, s.cfg.LensID)
	if err != nil {
		return err
	}
	if !found {
		logging.WarnWithContext(ctx, s.logger, "lens not found in group", "lens_missing",
			logging.String("lens_id", s.cfg.LensID),
			logging.String(logging.FieldImpact, "camera runs without an effect"),
		)
		return nil
	}
	s.lensOn = true
	return nil
}

func (s *Session) handlePress() {
	if s.state != StateLive || s.holdTimer != nil {
		return
	}
	s.holdGen++
	gen := s.holdGen
	s.holdTimer = s.after(s.cfg.HoldDelay, func() { s.post(event{kind: evHoldFired, gen: gen}) })
}

func (s *Session) handleRelease(ctx context.Context) {
	switch s.state {
	case StateLive:
		s.stopHoldTimer()
		s.takePhoto(ctx)
	case StateRecording:
		s.stopRecording(ctx)
	}
}

func (s *Session) handleHoldFired(ctx context.Context, gen uint64) {
	if gen != s.holdGen || s.state != StateLive || s.holdTimer == nil {
		return
	}
	s.holdTimer = nil
	mime := PickMIMEType(s.lens.SupportsMIME)
	recorder, err := s.lens.StartRecording(ctx, RecorderConfigFor(s.platform, mime))
	if err != nil {
		s.setState(StateLive, services.Wrap(services.KindCamera, "start recording", "Failed to start recording", err))
		return
	}
	s.recorder = recorder
	s.recStarted = s.now()
	s.limitGen++
	limitGen := s.limitGen
	s.limitTimer = s.after(s.cfg.MaxRecord, func() { s.post(event{kind: evLimitFired, gen: limitGen}) })
	s.setState(StateRecording, nil)
}

func (s *Session) takePhoto(ctx context.Context) {
	lens := s.lens
	opts := SnapshotOptions{
		Width:    PhotoTargetWidth(s.platform),
		Mirror:   s.facing == FacingUser,
		MaxBytes: PhotoMaxBytes,
	}
	createdAt := s.now()
	s.process(ctx, func(pctx context.Context) (*Artifact, error) {
		data, err := lens.Snapshot(pctx, opts)
		if err != nil {
			return nil, services.Wrap(services.KindCamera, "capture photo", "Failed to capture photo", err)
		}
		return &Artifact{Kind: KindPhoto, MIMEType: "image/jpeg", Data: data, CreatedAt: createdAt}, nil
	})
}

func (s *Session) stopRecording(ctx context.Context) {
	s.stopLimitTimer()
	recorder := s.recorder
	s.recorder = nil
	if recorder == nil {
		return
	}
	recording, err := recorder.Stop(ctx)
	if err != nil {
		s.setState(StateLive, services.Wrap(services.KindCamera, "stop recording", "Recording failed", err))
		return
	}
	duration := recording.Duration
	if duration <= 0 {
		duration = s.now().Sub(s.recStarted)
	}
	raw := &Artifact{
		Kind:      KindVideo,
		MIMEType:  recording.MIMEType,
		Data:      recording.Data,
		Duration:  duration,
		CreatedAt: s.now(),
	}
	transcoder := s.transcoder
	platform := s.platform
	logger := s.logger
	s.process(ctx, func(pctx context.Context) (*Artifact, error) {
		if transcoder == nil {
			return raw, nil
		}
		optimized, err := transcoder.Optimize(pctx, raw, platform)
		if err != nil {
			logging.WarnWithContext(pctx, logger, "video optimization failed", "transcode_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "keeping the original recording"),
			)
			return raw, nil
		}
		raw.Release()
		return optimized, nil
	})
}

// process moves to Processing and runs work off the loop goroutine.
func (s *Session) process(ctx context.Context, work func(context.Context) (*Artifact, error)) {
	s.procGen++
	gen := s.procGen
	pctx, cancel := context.WithCancel(ctx)
	s.procCancel = cancel
	s.setState(StateProcessing, nil)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		artifact, err := work(pctx)
		select {
		case s.events <- event{kind: evProcessed, gen: gen, artifact: artifact, err: err}:
		case <-pctx.Done():
			artifact.Release()
		}
	}()
}

func (s *Session) handleProcessed(ctx context.Context, ev event) {
	if ev.gen != s.procGen || s.state != StateProcessing {
		ev.artifact.Release()
		return
	}
	if s.procCancel != nil {
		s.procCancel()
		s.procCancel = nil
	}
	if ev.err != nil {
		s.setState(StateLive, ev.err)
		return
	}
	s.releaseArtifact()
	s.artifact = ev.artifact
	s.logger.InfoContext(ctx, "capture ready",
		logging.String(logging.FieldEventType, "capture_ready"),
		logging.String("kind", string(ev.artifact.Kind)),
		logging.Int64("bytes", ev.artifact.Size()),
	)
	s.setState(StateReady, nil)
}

func (s *Session) handleReset() {
	if s.state != StateReady {
		return
	}
	s.releaseArtifact()
	s.setState(StateLive, nil)
}

func (s *Session) handleSwitch(ctx context.Context) {
	if s.state != StateLive {
		return
	}
	s.stopHoldTimer()
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	s.facing = s.facing.Opposite()
	stream, err := s.camera.Acquire(ctx, ConstraintsFor(s.platform, s.facing))
	if err == nil {
		s.stream = stream
		err = s.lens.SetSource(ctx, stream)
	}
	if err != nil {
		s.releaseMedia()
		s.setState(StateIdle, services.Wrap(services.KindCamera, "switch camera", "Failed to switch camera", err))
		return
	}
	s.setState(StateLive, nil)
}

func (s *Session) teardown(ctx context.Context) {
	s.stopHoldTimer()
	s.stopLimitTimer()
	if s.recorder != nil {
		if _, err := s.recorder.Stop(ctx); err != nil {
			s.logger.DebugContext(ctx, "recorder stop during teardown failed", logging.Error(err))
		}
		s.recorder = nil
	}
	if s.procCancel != nil {
		s.procCancel()
		s.procCancel = nil
	}
	s.releaseMedia()
	s.releaseArtifact()
	s.state = StateIdle
	close(s.done)
	s.workers.Wait()
	s.logger.DebugContext(ctx, "capture session torn down")
}

func (s *Session) releaseMedia() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	if s.lens != nil {
		s.lens.Pause()
		s.lens = nil
	}
	s.lensOn = false
}

func (s *Session) releaseArtifact() {
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}
}

func (s *Session) stopHoldTimer() {
	if s.holdTimer != nil {
		s.holdTimer.Stop()
		s.holdTimer = nil
	}
	s.holdGen++
}

func (s *Session) stopLimitTimer() {
	if s.limitTimer != nil {
		s.limitTimer.Stop()
		s.limitTimer = nil
	}
	s.limitGen++
}

func (s *Session) setState(state State, err error) {
	s.state = state
	update := s.snapshotUpdate(err)
	select {
	case s.updates <- update:
	default:
		s.logger.Debug("capture update dropped", logging.String("state", string(state)))
	}
}

func (s *Session) snapshotUpdate(err error) Update {
	return Update{State: s.state, Artifact: s.artifact, Err: err, LensOn: s.lensOn, Facing: s.facing}
}
