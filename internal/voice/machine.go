package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wander/internal/audio"
	"wander/pkg/clip"
)

// Placeholder is handed to the conversation when a take cannot be
// transcribed because the session is offline or has no credential.
const Placeholder = "Voice transcription is unavailable right now. Please type your message instead."

// Device produces recordings.
type Device interface {
	Record(stop <-chan struct{}, maxDur time.Duration) (<-chan audio.Take, error)
}

// Transcriber turns a WAV blob into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavBlob []byte, filename string) (string, error)
}

// Notifier surfaces capture problems to the user.
type Notifier interface {
	Notify(summary, body string)
}

// Ducker mutes other playback while the microphone is open.
type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}

type Options struct {
	Device      Device
	Transcriber Transcriber
	Notifier    Notifier
	Ducker      Ducker
	// Offline reports whether the session currently has no network.
	Offline func() bool
	// Credential returns the current API credential, empty when unset.
	Credential func() string
	// Pending receives the finished transcript (or Placeholder).
	Pending func(text string)
	// Cue plays the stop confirmation tone. Optional.
	Cue func()
	// MaxDuration caps a single recording.
	MaxDuration time.Duration
	Log         *slog.Logger
}

// Machine drives one microphone at a time. All methods are safe for
// concurrent use.
type Machine struct {
	mu sync.Mutex
	// starting marks the window between a toggle claiming the session
	// and the device actually opening; the status is still Idle then.
	starting bool
	status   Status
	elapsed  int
	stop     chan struct{}

	opts Options
	log  *slog.Logger
}

func NewMachine(opts Options) *Machine {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 30 * time.Second
	}
	return &Machine{opts: opts, log: log}
}

// Status returns the current lifecycle state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Elapsed is the length of the running recording in whole seconds.
func (m *Machine) Elapsed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

// Toggle starts a recording when idle and stops the running one when
// recording. In any other state it does nothing; a toggle while the
// device is still opening, or while a transcript is in flight, must
// not start a second session or cancel the first.
func (m *Machine) Toggle(ctx context.Context) {
	m.mu.Lock()
	switch {
	case m.status == Idle && !m.starting:
		m.starting = true
		m.mu.Unlock()
		m.begin(ctx)
	case m.status == Recording:
		stop := m.stop
		m.apply(EventStop)
		m.mu.Unlock()
		close(stop)
	default:
		m.mu.Unlock()
	}
}

// apply advances the status; callers hold m.mu.
func (m *Machine) apply(e Event) {
	next, ok := Transition(m.status, e)
	if !ok {
		m.log.Warn("illegal capture event", "status", m.status, "event", e)
		return
	}
	m.status = next
}

func (m *Machine) begin(ctx context.Context) {
	if m.opts.Ducker != nil {
		if err := m.opts.Ducker.Duck(ctx); err != nil {
			m.log.Warn("cannot duck playback", "err", err)
		}
	}

	stop := make(chan struct{})
	takes, err := m.opts.Device.Record(stop, m.opts.MaxDuration)
	if err != nil {
		m.mu.Lock()
		m.starting = false
		m.mu.Unlock()
		m.unduck(ctx)
		m.log.Error("cannot open microphone", "err", err)
		m.opts.Notifier.Notify("Microphone unavailable", err.Error())
		return
	}

	m.mu.Lock()
	m.apply(EventStart)
	m.starting = false
	m.elapsed = 0
	m.stop = stop
	m.mu.Unlock()

	go m.tick()
	go m.await(ctx, takes)
}

// tick counts recording seconds for status display.
func (m *Machine) tick() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for range t.C {
		m.mu.Lock()
		if m.status != Recording {
			m.mu.Unlock()
			return
		}
		m.elapsed++
		m.mu.Unlock()
	}
}

func (m *Machine) await(ctx context.Context, takes <-chan audio.Take) {
	take := <-takes

	m.mu.Lock()
	// a deadline expiry arrives without a toggle
	if m.status == Recording {
		m.apply(EventStop)
	}
	m.apply(EventFinalized)
	m.mu.Unlock()

	m.unduck(ctx)
	if m.opts.Cue != nil {
		m.opts.Cue()
	}

	m.finish(ctx, take)
}

func (m *Machine) finish(ctx context.Context, take audio.Take) {
	if take.Err != nil {
		m.log.Error("recording failed", "err", take.Err)
		m.opts.Notifier.Notify("Recording failed", take.Err.Error())
		m.done(EventTranscriptFailed)
		return
	}

	if m.opts.Offline() || m.opts.Credential() == "" {
		m.log.Info("skipping transcription", "offline", m.opts.Offline())
		m.opts.Pending(Placeholder)
		m.done(EventTranscriptDone)
		return
	}

	wav := clip.EncodeWAV(take.PCM, audio.SampleRate)
	text, err := m.opts.Transcriber.Transcribe(ctx, wav, "capture.wav")
	if err != nil {
		m.log.Error("transcription failed", "err", err)
		m.opts.Notifier.Notify("Transcription failed", err.Error())
		m.done(EventTranscriptFailed)
		return
	}

	m.opts.Pending(text)
	m.done(EventTranscriptDone)
}

func (m *Machine) done(e Event) {
	m.mu.Lock()
	m.apply(e)
	m.mu.Unlock()
}

func (m *Machine) unduck(ctx context.Context) {
	if m.opts.Ducker == nil {
		return
	}
	if err := m.opts.Ducker.Unduck(ctx); err != nil {
		m.log.Warn("cannot restore playback volume", "err", err)
	}
}
