package mapview

import (
	"log/slog"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"

	"wander/pkg/geo"
)

type frame struct {
	Center geo.LngLat `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// Hub broadcasts view frames to every connected websocket client. A
// map front end connects here and applies the frames it receives.
type Hub struct {
	upgrader ws.Upgrader
	mu       sync.Mutex
	conns    map[*ws.Conn]struct{}
	last     *frame
	log      *slog.Logger

	// gorilla connections allow one concurrent writer, and frames can
	// arrive from overlapping animations
	writeMu sync.Mutex
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		upgrader: ws.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*ws.Conn]struct{}),
		log:   log,
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	last := h.last
	h.mu.Unlock()

	h.log.Info("map client connected", "remote", conn.RemoteAddr())

	// late joiners get the current view right away
	if last != nil {
		h.writeMu.Lock()
		conn.WriteJSON(*last)
		h.writeMu.Unlock()
	}

	// the client never sends anything meaningful; reading just
	// detects disconnects
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// RenderView implements Renderer.
func (h *Hub) RenderView(center geo.LngLat, zoom float64) {
	f := frame{Center: center, Zoom: zoom}

	h.mu.Lock()
	h.last = &f
	conns := make([]*ws.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range conns {
		if err := c.WriteJSON(f); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) drop(conn *ws.Conn) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if present {
		h.log.Info("map client disconnected", "remote", conn.RemoteAddr())
	}
	conn.Close()
}
