package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"wander/internal/audio"
	"wander/internal/chat"
	"wander/internal/config"
	"wander/internal/ipc"
	"wander/internal/mapview"
	"wander/internal/notify"
	"wander/internal/offline"
	"wander/internal/persona"
	"wander/internal/proxy"
	"wander/internal/store"
	"wander/internal/voice"
	"wander/pkg/clip"
	"wander/pkg/fault"
	"wander/pkg/geo"
	"wander/pkg/geocode"
	"wander/pkg/llm"
	"wander/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// defaultView is Kuwait City; the map shows it before the first
// retarget.
var defaultView = geo.LngLat{Lon: 47.9774, Lat: 29.3759}

const defaultViewZoom = 11

func main() {
	if err := run(); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

type app struct {
	orch    *chat.Orchestrator
	machine *voice.Machine
	pending *pendingTranscript
	st      *store.Store
	llm     *llm.Client
	stt     *stt.Client
	view    *mapview.Synchronizer
}

func run() error {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (empty for direct)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	session, err := sessionConfig(st, cfg)
	if err != nil {
		return err
	}

	httpClient := proxy.NewDirectClient()
	if *proxyAddr != "" {
		httpClient, err = proxy.NewSocksClient(*proxyAddr)
		if err != nil {
			return fmt.Errorf("dial socks proxy %s: %w", *proxyAddr, err)
		}
		log.Debug("Loaded proxy", "addr", *proxyAddr)
	}

	hub := mapview.NewHub(nil)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	go func() {
		if err := http.ListenAndServe(cfg.MapListen, mux); err != nil {
			log.Error("map server stopped", "err", err)
		}
	}()
	view := mapview.NewSynchronizer(hub, nil)

	responder, err := offline.New()
	if err != nil {
		return err
	}

	a := &app{st: st, view: view, pending: &pendingTranscript{}}
	credential := func() string { return a.orch.Credential() }

	a.llm = llm.NewClient(llm.Config{
		Endpoint: cfg.ChatEndpoint,
		Model:    cfg.ChatModel,
	}, httpClient, credential, nil)

	a.stt = stt.NewClient(stt.Config{
		Endpoint: cfg.TranscribeEndpoint,
		Model:    cfg.TranscribeModel,
	}, httpClient, credential, nil)

	geoClient := geocode.NewClient(geocode.Config{
		Endpoint: cfg.GeocodeEndpoint,
		Token:    cfg.GeocodeToken,
	}, httpClient, nil)

	a.orch = chat.New(chat.Options{
		Config:   session,
		Saver:    st,
		Model:    a.llm,
		Geocoder: geoClient,
		Map:      view,
		Notifier: desktopNotifier{},
		Offline:  responder,
	})
	view.SetTarget(&defaultView, defaultViewZoom)

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer rec.Close()
	log.Debug("Loaded recorder")

	a.machine = voice.NewMachine(voice.Options{
		Device:      rec,
		Transcriber: a.stt,
		Notifier:    desktopNotifier{},
		Ducker:      audio.NewDucker([]string{"wander"}, 20),
		Offline:     a.orch.Offline,
		Credential:  a.orch.Credential,
		Pending:     a.pending.set,
		Cue:         notify.Cue,
		MaxDuration: cfg.MaxRecording,
	})

	if err := ipc.StartServer(a.control); err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}

	log.Info("Boot up - successful", "map", cfg.MapListen)

	return a.repl()
}

// sessionConfig merges stored values over environment defaults; what
// the user set in a previous session wins.
func sessionConfig(st *store.Store, cfg config.Config) (store.SessionConfig, error) {
	session, err := st.Load()
	if err != nil {
		return store.SessionConfig{}, err
	}
	if session.Credential == "" {
		session.Credential = cfg.APIKey
	}
	if session.AgentName == "" {
		session.AgentName = cfg.AgentName
	}
	if session.Persona == "" {
		session.Persona = persona.Parse(cfg.Persona)
	}
	return session, nil
}

type desktopNotifier struct{}

func (desktopNotifier) Notify(summary, body string) {
	notify.Desktop(summary, body)
	color.Yellow.Printf("! %s: %s\n", summary, body)
}

// pendingTranscript holds a finished voice transcript until the user
// confirms or replaces it.
type pendingTranscript struct {
	mu   sync.Mutex
	text string
}

func (p *pendingTranscript) set(text string) {
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
	color.Cyan.Printf("(voice) %s\n", text)
	color.Gray.Println("press enter to send, or type to replace")
}

func (p *pendingTranscript) take() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.text == "" {
		return "", false
	}
	text := p.text
	p.text = ""
	return text, true
}

func (a *app) control(msg ipc.ControlMessage) ipc.Reply {
	switch msg.Cmd {
	case "mic":
		a.machine.Toggle(context.Background())
		return ipc.Reply{OK: true, Message: a.machine.Status().String()}
	case "reset":
		a.orch.Reset()
		return ipc.Reply{OK: true, Message: "conversation reset"}
	case "retry":
		a.orch.RetryOnline()
		return ipc.Reply{OK: true, Message: "online mode restored"}
	case "clip":
		if msg.Arg == "" {
			return ipc.Reply{Message: "clip needs a file path"}
		}
		if err := a.transcribeClip(msg.Arg); err != nil {
			return ipc.Reply{Message: err.Error()}
		}
		return ipc.Reply{OK: true, Message: "clip transcribed"}
	case "status":
		return ipc.Reply{OK: true, Message: fmt.Sprintf(
			"voice=%s offline=%v busy=%v", a.machine.Status(), a.orch.Offline(), a.orch.Busy())}
	default:
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return ipc.Reply{Message: "unknown command: " + msg.Cmd}
	}
}

// transcribeClip pushes a pre-recorded audio file through the same
// pipeline a live capture uses.
func (a *app) transcribeClip(path string) error {
	pcm, err := clip.DecodeFile(path)
	if err != nil {
		return err
	}

	if a.orch.Offline() || a.orch.Credential() == "" {
		a.pending.set(voice.Placeholder)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	text, err := a.stt.Transcribe(ctx, clip.EncodeWAV(pcm, clip.TargetRate), "clip.wav")
	if err != nil {
		return err
	}
	a.pending.set(text)
	return nil
}

// where asks the location-chat variant directly and follows its
// coordinates, outside the normal conversation transcript.
func (a *app) where(question string) {
	if a.orch.Offline() {
		color.Yellow.Println("! offline, /retry to reconnect")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reply, err := a.llm.CompleteLocation(ctx, question)
	if err != nil {
		color.Red.Printf("where failed: %v\n", err)
		return
	}
	color.Green.Printf("%s\n", reply.Message)
	a.view.SetTarget(reply.Coordinates, reply.Zoom)
}

func (a *app) repl() error {
	a.printHistory()
	if a.orch.Credential() == "" {
		color.Yellow.Println("! no API key set, use /key <key>")
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		color.Gray.Print("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())

		switch {
		case line == "/quit":
			return nil
		case line == "/mic":
			a.machine.Toggle(context.Background())
			color.Gray.Printf("voice: %s\n", a.machine.Status())
		case line == "/reset":
			a.orch.Reset()
			a.printHistory()
		case line == "/retry":
			a.orch.RetryOnline()
			color.Gray.Println("online mode restored")
		case strings.HasPrefix(line, "/key "):
			if err := a.orch.SetCredential(strings.TrimSpace(strings.TrimPrefix(line, "/key "))); err != nil {
				color.Red.Printf("cannot save key: %v\n", err)
				continue
			}
			color.Green.Println("API key saved")
		case strings.HasPrefix(line, "/persona "):
			a.setPersona(strings.TrimSpace(strings.TrimPrefix(line, "/persona ")))
		case strings.HasPrefix(line, "/where "):
			a.where(strings.TrimSpace(strings.TrimPrefix(line, "/where ")))
		case strings.HasPrefix(line, "/clip "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/clip "))
			if err := a.transcribeClip(path); err != nil {
				color.Red.Printf("clip failed: %v\n", err)
			}
		case line == "":
			if text, ok := a.pending.take(); ok {
				a.send(text)
			}
		default:
			a.send(line)
		}
	}
}

// setPersona only works on a fresh conversation; the persona is fixed
// once the first message is sent.
func (a *app) setPersona(raw string) {
	if len(a.orch.History()) > 1 {
		color.Yellow.Println("! persona is fixed for this conversation, /reset first")
		return
	}
	p := persona.Parse(raw)
	a.orch.SetPersona(p)
	a.orch.Reset()
	if err := a.st.Save(a.orch.Config()); err != nil {
		log.Warn("cannot persist persona", "err", err)
	}
	color.Green.Printf("persona set to %s\n", p)
	a.printHistory()
}

func (a *app) send(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	msg, err := a.orch.SendMessage(ctx, text)
	switch {
	case errors.Is(err, chat.ErrBusy):
		color.Yellow.Println("! still working on the previous message")
		return
	case errors.Is(err, fault.ErrCredentialMissing):
		return
	}
	if msg.Content != "" {
		color.Green.Printf("%s\n", msg.Content)
	}
	if a.orch.Offline() {
		color.Yellow.Println("! offline mode, /retry to reconnect")
	}
}

func (a *app) printHistory() {
	for _, m := range a.orch.History() {
		if m.IsAI {
			color.Green.Printf("%s\n", m.Content)
		} else {
			color.White.Printf("you: %s\n", m.Content)
		}
	}
}
