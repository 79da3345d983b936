// Package notify gives the user short audible and desktop feedback.
package notify

import (
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

const (
	cueFreq     = 880
	cueDuration = 120 * time.Millisecond
	cueRate     = beep.SampleRate(44100)
)

var speakerOnce sync.Once
var speakerErr error

// Cue plays a short confirmation tone. Machines without a playback
// device stay silent; the tone is feedback, not function.
func Cue() {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(cueRate, cueRate.N(time.Second/10))
	})
	if speakerErr != nil {
		slog.Debug("audio cue unavailable", "err", speakerErr)
		return
	}

	tone, err := generators.SinTone(cueRate, cueFreq)
	if err != nil {
		slog.Debug("audio cue unavailable", "err", err)
		return
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(beep.Take(cueRate.N(cueDuration), tone), beep.Callback(func() {
		close(done)
	})))
	<-done
}

// Desktop shows a desktop notification. Failure is ignored; the REPL
// prints the same message anyway.
func Desktop(summary, body string) {
	if err := exec.Command("notify-send", summary, body).Run(); err != nil {
		slog.Debug("desktop notification unavailable", "err", err)
	}
}
