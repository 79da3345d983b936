package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wander/internal/audio"
)

type fakeDevice struct {
	mu        sync.Mutex
	openErr   error
	openDelay time.Duration
	opens     int
	take      audio.Take
	stopped   bool
}

func (d *fakeDevice) Record(stop <-chan struct{}, maxDur time.Duration) (<-chan audio.Take, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	d.opens++
	d.mu.Unlock()
	if d.openDelay > 0 {
		time.Sleep(d.openDelay)
	}
	out := make(chan audio.Take, 1)
	go func() {
		select {
		case <-stop:
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
		case <-time.After(maxDur):
		}
		out <- d.take
	}()
	return out, nil
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, wavBlob []byte, _ string) (string, error) {
	f.got = wavBlob
	return f.text, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Notify(summary, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, summary)
}

func (f *fakeNotifier) summaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type pendingSink struct {
	mu    sync.Mutex
	texts []string
}

func (p *pendingSink) add(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
}

func (p *pendingSink) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

func newMachine(dev Device, tr Transcriber, n Notifier, sink *pendingSink, offline bool, cred string) *Machine {
	return NewMachine(Options{
		Device:      dev,
		Transcriber: tr,
		Notifier:    n,
		Offline:     func() bool { return offline },
		Credential:  func() string { return cred },
		Pending:     sink.add,
		MaxDuration: 5 * time.Second,
	})
}

func waitIdle(t *testing.T, m *Machine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == Idle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("machine did not return to idle, status=%s", m.Status())
}

func TestToggleRecordsAndTranscribes(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1, 0.2}}}
	tr := &fakeTranscriber{text: "take me to salmiya"}
	sink := &pendingSink{}
	m := newMachine(dev, tr, &fakeNotifier{}, sink, false, "sk-test")

	m.Toggle(context.Background())
	req.Equal(Recording, m.Status())

	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Equal([]string{"take me to salmiya"}, sink.all())
	req.NotEmpty(tr.got)
	req.Equal("RIFF", string(tr.got[:4]))
}

func TestMicFailureStaysIdle(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{openErr: errors.New("no input device")}
	n := &fakeNotifier{}
	m := newMachine(dev, &fakeTranscriber{}, n, &pendingSink{}, false, "sk")

	m.Toggle(context.Background())

	req.Equal(Idle, m.Status())
	req.Equal([]string{"Microphone unavailable"}, n.summaries())
}

func TestOfflineYieldsPlaceholder(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}}
	tr := &fakeTranscriber{text: "should not be called"}
	sink := &pendingSink{}
	m := newMachine(dev, tr, &fakeNotifier{}, sink, true, "sk")

	m.Toggle(context.Background())
	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Equal([]string{Placeholder}, sink.all())
	req.Nil(tr.got)
}

func TestMissingCredentialYieldsPlaceholder(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}}
	sink := &pendingSink{}
	m := newMachine(dev, &fakeTranscriber{}, &fakeNotifier{}, sink, false, "")

	m.Toggle(context.Background())
	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Equal([]string{Placeholder}, sink.all())
}

func TestTranscriptionFailureNotifies(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}}
	tr := &fakeTranscriber{err: errors.New("upstream error: status 500")}
	n := &fakeNotifier{}
	sink := &pendingSink{}
	m := newMachine(dev, tr, n, sink, false, "sk")

	m.Toggle(context.Background())
	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Empty(sink.all())
	req.Equal([]string{"Transcription failed"}, n.summaries())
}

func TestRecordingErrorNotifies(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{Err: errors.New("stream torn down")}}
	n := &fakeNotifier{}
	m := newMachine(dev, &fakeTranscriber{}, n, &pendingSink{}, false, "sk")

	m.Toggle(context.Background())
	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Equal([]string{"Recording failed"}, n.summaries())
}

func TestDeadlineStopsRecording(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}}
	tr := &fakeTranscriber{text: "hello"}
	sink := &pendingSink{}
	m := NewMachine(Options{
		Device:      dev,
		Transcriber: tr,
		Notifier:    &fakeNotifier{},
		Offline:     func() bool { return false },
		Credential:  func() string { return "sk" },
		Pending:     sink.add,
		MaxDuration: 30 * time.Millisecond,
	})

	m.Toggle(context.Background())
	waitIdle(t, m)

	req.Equal([]string{"hello"}, sink.all())
}

func TestConcurrentTogglesShareOneSession(t *testing.T) {
	req := require.New(t)

	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}, openDelay: 20 * time.Millisecond}
	tr := &fakeTranscriber{text: "one take"}
	sink := &pendingSink{}
	m := newMachine(dev, tr, &fakeNotifier{}, sink, false, "sk")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Toggle(context.Background())
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for m.Status() != Recording && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	req.Equal(Recording, m.Status())

	m.Toggle(context.Background())
	waitIdle(t, m)

	dev.mu.Lock()
	opens := dev.opens
	dev.mu.Unlock()
	req.Equal(1, opens)
	req.Equal([]string{"one take"}, sink.all())
}

func TestToggleWhileTranscribingIsIgnored(t *testing.T) {
	req := require.New(t)

	block := make(chan struct{})
	tr := &blockingTranscriber{release: block}
	dev := &fakeDevice{take: audio.Take{PCM: []float32{0.1}}}
	sink := &pendingSink{}
	m := newMachine(dev, tr, &fakeNotifier{}, sink, false, "sk")

	m.Toggle(context.Background())
	m.Toggle(context.Background())

	deadline := time.Now().Add(time.Second)
	for m.Status() != Transcribing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	req.Equal(Transcribing, m.Status())

	m.Toggle(context.Background())
	req.Equal(Transcribing, m.Status())

	close(block)
	waitIdle(t, m)
	req.Equal([]string{"done"}, sink.all())
}

type blockingTranscriber struct {
	release <-chan struct{}
}

func (b *blockingTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	<-b.release
	return "done", nil
}
