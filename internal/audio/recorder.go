// Package audio captures microphone input and ducks other playback
// streams while a capture is running.
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"wander/pkg/fault"
)

// SampleRate matches what the transcription pipeline expects.
const SampleRate = 16000

const frameSize = 1024

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

// Init must be called once before the first recording.
func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Take is the result of one recording.
type Take struct {
	PCM []float32
	Err error
}

// Record opens the default input device and captures until stop is
// closed or maxDur elapses. Device open and start failures are
// returned synchronously so the caller can stay idle; everything after
// that arrives on the returned channel as a single Take.
func (r *Recorder) Record(stop <-chan struct{}, maxDur time.Duration) (<-chan Take, error) {
	if maxDur <= 0 {
		maxDur = 30 * time.Second
	}

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", fault.ErrPermissionDenied, err)
	}

	done := make(chan Take, 1)
	go func() {
		defer stream.Close()
		defer stream.Stop()

		deadline := time.Now().Add(maxDur)
		out := make([]float32, 0, int(float64(SampleRate)*maxDur.Seconds()))

		for {
			select {
			case <-stop:
				if len(out) == 0 {
					done <- Take{Err: errors.New("no audio recorded")}
					return
				}
				done <- Take{PCM: out}
				return
			default:
			}

			if time.Now().After(deadline) {
				done <- Take{PCM: out}
				return
			}

			if err := stream.Read(); err != nil {
				done <- Take{Err: err}
				return
			}
			out = append(out, buf...)
		}
	}()
	return done, nil
}
