// Package mapview keeps the rendered map in step with conversation
// state. The synchronizer owns the authoritative center and zoom;
// renderers only receive frames.
package mapview

import (
	"log/slog"
	"sync"
	"time"

	"wander/pkg/geo"
)

// State is the authoritative view. Center is nil until the first
// retarget lands.
type State struct {
	Center *geo.LngLat
	Zoom   float64
}

// Renderer receives view frames. RenderView must not block; slow
// renderers drop frames on their own.
type Renderer interface {
	RenderView(center geo.LngLat, zoom float64)
}

const (
	flyDuration   = 2 * time.Second
	frameInterval = 33 * time.Millisecond
)

// Synchronizer animates retargets. The state jumps to the target
// immediately; the animation is presentation only. A retarget issued
// mid-flight supersedes the running animation.
type Synchronizer struct {
	mu       sync.Mutex
	state    State
	gen      uint64
	renderer Renderer
	duration time.Duration
	interval time.Duration
	log      *slog.Logger
}

func NewSynchronizer(renderer Renderer, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		renderer: renderer,
		duration: flyDuration,
		interval: frameInterval,
		log:      log,
	}
}

// View returns the current authoritative state.
func (s *Synchronizer) View() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetTarget moves the view. A nil center is a no-op, not an error;
// callers pass through whatever the extractor produced.
func (s *Synchronizer) SetTarget(center *geo.LngLat, zoom float64) {
	if center == nil {
		return
	}
	target := *center

	s.mu.Lock()
	from := s.state
	s.state = State{Center: &target, Zoom: zoom}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.log.Debug("map retarget", "center", target, "zoom", zoom)

	if s.renderer == nil {
		return
	}
	if from.Center == nil {
		// first target has nothing to fly from
		s.renderer.RenderView(target, zoom)
		return
	}
	go s.fly(gen, *from.Center, from.Zoom, target, zoom)
}

func (s *Synchronizer) fly(gen uint64, fromCenter geo.LngLat, fromZoom float64, toCenter geo.LngLat, toZoom float64) {
	steps := int(s.duration / s.interval)
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		time.Sleep(s.interval)

		s.mu.Lock()
		stale := gen != s.gen
		s.mu.Unlock()
		if stale {
			return
		}

		t := smoothstep(float64(i) / float64(steps))
		frame := geo.LngLat{
			Lon: fromCenter.Lon + (toCenter.Lon-fromCenter.Lon)*t,
			Lat: fromCenter.Lat + (toCenter.Lat-fromCenter.Lat)*t,
		}
		s.renderer.RenderView(frame, fromZoom+(toZoom-fromZoom)*t)
	}
}

func smoothstep(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
