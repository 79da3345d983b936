// Package voice runs the microphone capture lifecycle: a toggle starts
// a recording, a second toggle stops it, and the captured take is
// transcribed into a pending message for the conversation.
package voice

// Status is the capture lifecycle state.
type Status int

const (
	Idle Status = iota
	Recording
	Stopped
	Transcribing
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Transcribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Event is something that can advance the lifecycle.
type Event int

const (
	EventStart Event = iota
	EventStop
	EventFinalized
	EventTranscriptDone
	EventTranscriptFailed
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventFinalized:
		return "finalized"
	case EventTranscriptDone:
		return "transcript-done"
	case EventTranscriptFailed:
		return "transcript-failed"
	default:
		return "unknown"
	}
}

// Transition is the full lifecycle as a pure function. It returns the
// next status and whether the event is legal in the current one;
// illegal events leave the status unchanged.
func Transition(s Status, e Event) (Status, bool) {
	switch {
	case s == Idle && e == EventStart:
		return Recording, true
	case s == Recording && e == EventStop:
		return Stopped, true
	case s == Stopped && e == EventFinalized:
		return Transcribing, true
	case s == Transcribing && (e == EventTranscriptDone || e == EventTranscriptFailed):
		return Idle, true
	default:
		return s, false
	}
}
