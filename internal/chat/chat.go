// Package chat orchestrates a conversation turn: location extraction,
// map retargeting, the language model call, and degraded offline
// behavior when the network is gone.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"wander/internal/gazetteer"
	"wander/internal/locate"
	"wander/internal/persona"
	"wander/internal/store"
	"wander/pkg/fault"
	"wander/pkg/geo"
	"wander/pkg/llm"
)

// ErrBusy rejects a message while another one is still in flight.
var ErrBusy = errors.New("a message is already in flight")

const (
	credentialToast = "Please set your OpenAI API key first"

	// searchZoom is used when a geocoded search result retargets the
	// map; geocoder hits are street-level places rather than districts.
	searchZoom = 12
)

// Message is one entry of the conversation transcript.
type Message struct {
	Content string
	IsAI    bool
	At      time.Time
}

type LanguageModel interface {
	Complete(ctx context.Context, system string, history []llm.Message, userText string) (string, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) (geo.LngLat, bool, error)
}

type MapTargeter interface {
	SetTarget(center *geo.LngLat, zoom float64)
}

type Notifier interface {
	Notify(summary, body string)
}

type OfflineResponder interface {
	Reply(utterance string) (string, *gazetteer.Entry, bool)
}

// CredentialSaver persists a credential set mid-session.
type CredentialSaver interface {
	SetCredential(credential string) error
}

type Options struct {
	Config   store.SessionConfig
	Saver    CredentialSaver
	Model    LanguageModel
	Geocoder Geocoder
	Map      MapTargeter
	Notifier Notifier
	Offline  OfflineResponder
	Now      func() time.Time
	Log      *slog.Logger
}

// Orchestrator owns the transcript and runs one turn at a time.
type Orchestrator struct {
	mu      sync.Mutex
	cfg     store.SessionConfig
	history []Message
	busy    bool
	offline bool
	epoch   uint64

	saver     CredentialSaver
	model     LanguageModel
	geocoder  Geocoder
	mapView   MapTargeter
	notifier  Notifier
	responder OfflineResponder
	now       func() time.Time
	log       *slog.Logger
}

// New seeds the transcript with the persona welcome message.
func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	o := &Orchestrator{
		cfg:       opts.Config,
		saver:     opts.Saver,
		model:     opts.Model,
		geocoder:  opts.Geocoder,
		mapView:   opts.Map,
		notifier:  opts.Notifier,
		responder: opts.Offline,
		now:       opts.Now,
		log:       opts.Log,
	}
	o.seedWelcome()
	return o
}

func (o *Orchestrator) seedWelcome() {
	welcome := o.cfg.Persona.Welcome(o.cfg.AgentName)
	o.history = []Message{{Content: welcome, IsAI: true, At: o.now()}}
}

// SendMessage runs one conversation turn and returns the assistant
// message that was appended. Failures the user should see still
// produce a message; the error tells the caller what actually
// happened.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) (Message, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return Message{}, ErrBusy
	}
	o.busy = true
	epoch := o.epoch
	o.history = append(o.history, Message{Content: text, IsAI: false, At: o.now()})
	cfg := o.cfg
	offline := o.offline
	prior := o.modelHistory()
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	if cfg.Credential == "" {
		o.notifier.Notify("Credential required", credentialToast)
		return Message{}, fault.ErrCredentialMissing
	}

	hit := locate.Extract(text)
	if hit.Center != nil {
		o.mapView.SetTarget(hit.Center, hit.Zoom)
	}

	if offline {
		return o.answerOffline(epoch, text)
	}

	if hit.Center == nil {
		if query, ok := locate.SearchQuery(text); ok {
			o.searchAndRetarget(ctx, query)
		}
	}

	userText := text
	if hit.Location != "" {
		userText = fmt.Sprintf("%s\n\nNote: The user seems to be asking about %s.", text, hit.Location)
	}

	reply, err := o.model.Complete(ctx, cfg.Persona.SystemPrompt(), prior, userText)
	switch {
	case err == nil:
		return o.appendAI(epoch, reply), nil
	case errors.Is(err, fault.ErrNetworkUnavailable):
		o.log.Warn("network gone, switching to offline mode", "err", err)
		o.mu.Lock()
		o.offline = true
		o.mu.Unlock()
		msg, _ := o.answerOffline(epoch, text)
		return msg, err
	default:
		o.log.Error("conversation turn failed", "err", err)
		o.notifier.Notify("Request failed", err.Error())
		synthetic := fmt.Sprintf("Sorry, I encountered an error: %v. Please try again.", err)
		return o.appendAI(epoch, synthetic), err
	}
}

// answerOffline produces a canned reply without touching the network.
func (o *Orchestrator) answerOffline(epoch uint64, text string) (Message, error) {
	reply, entry, ok := o.responder.Reply(text)
	if !ok {
		reply = "I'm offline and can't answer that right now. I can still move the map to places I know."
	}
	if entry != nil {
		center := entry.Center
		o.mapView.SetTarget(&center, entry.Zoom)
	}
	return o.appendAI(epoch, reply), nil
}

// searchAndRetarget geocodes an explicit search query. Failures only
// log; the conversation continues without the retarget.
func (o *Orchestrator) searchAndRetarget(ctx context.Context, query string) {
	center, found, err := o.geocoder.Search(ctx, query)
	if err != nil {
		o.log.Warn("geocoding failed", "query", query, "err", err)
		return
	}
	if !found {
		o.log.Debug("geocoder found nothing", "query", query)
		return
	}
	o.mapView.SetTarget(&center, searchZoom)
}

// appendAI records an assistant message unless the conversation was
// reset while the request was in flight.
func (o *Orchestrator) appendAI(epoch uint64, content string) Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch {
		o.log.Debug("dropping reply from a previous conversation")
		return Message{}
	}
	msg := Message{Content: content, IsAI: true, At: o.now()}
	o.history = append(o.history, msg)
	return msg
}

// modelHistory maps the transcript to wire messages; callers hold o.mu.
// The just-appended user message is excluded, it travels separately
// with the location hint attached.
func (o *Orchestrator) modelHistory() []llm.Message {
	prior := o.history[:len(o.history)-1]
	return lo.Map(prior, func(m Message, _ int) llm.Message {
		role := llm.RoleUser
		if m.IsAI {
			role = llm.RoleAssistant
		}
		return llm.Message{Role: role, Content: m.Content}
	})
}

// History returns a copy of the transcript.
func (o *Orchestrator) History() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.history...)
}

// Reset clears the transcript back to the welcome message. Replies
// still in flight are dropped when they land.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	o.seedWelcome()
}

// Busy reports whether a turn is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Offline reports whether the session degraded to canned answers.
func (o *Orchestrator) Offline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offline
}

// RetryOnline leaves offline mode; the next turn will try the network
// again.
func (o *Orchestrator) RetryOnline() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline = false
}

// SetCredential updates and persists the credential.
func (o *Orchestrator) SetCredential(credential string) error {
	o.mu.Lock()
	o.cfg.Credential = credential
	o.mu.Unlock()
	if o.saver == nil {
		return nil
	}
	return o.saver.SetCredential(credential)
}

// Credential returns the current credential.
func (o *Orchestrator) Credential() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.Credential
}

// SetPersona switches the conversational style. It takes effect on the
// next turn; the transcript is left alone.
func (o *Orchestrator) SetPersona(p persona.Persona) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.Persona = p
}

// Config returns a snapshot of the session configuration.
func (o *Orchestrator) Config() store.SessionConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}
