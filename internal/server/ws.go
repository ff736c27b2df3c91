package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/slicecam/internal/detector"
)

// Websocket timing shared by the frame stream and the landmark ingest.
const (
	wsReadLimit    = 1 << 20
	wsPongWait     = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsWriteWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// upgrade switches the request to a websocket and arms the read deadline that
// pongs keep pushing forward.
func upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return conn, nil
}

// FrameStreamHandler pushes every published game frame to the client as JSON.
type FrameStreamHandler struct {
	game Game
}

// NewFrameStreamHandler creates a handler streaming frames from g.
func NewFrameStreamHandler(g Game) *FrameStreamHandler {
	return &FrameStreamHandler{game: g}
}

// ServeHTTP handles websocket upgrade requests.
func (h *FrameStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrade(w, r)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	frames, cancel := h.game.Subscribe()
	defer cancel()

	// The client never sends anything useful; reading surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case frame, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "game stopped"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Landmark ingest message types.
const (
	MessageHands   = "hands"
	MessagePointer = "pointer"
	MessageLeave   = "leave"
	MessageResize  = "resize"
)

// IngestMessage is one message on the landmark ingest socket. Type selects
// which of the remaining fields apply.
type IngestMessage struct {
	Type   string                   `json:"type"`
	Hands  []detector.HandLandmarks `json:"hands,omitempty"`
	X      float64                  `json:"x,omitempty"`
	Y      float64                  `json:"y,omitempty"`
	Width  float64                  `json:"width,omitempty"`
	Height float64                  `json:"height,omitempty"`
}

// LandmarksHandler accepts hand landmarks, pointer positions and canvas sizes
// from a browser-side tracker and forwards them to the game.
type LandmarksHandler struct {
	game Game
}

// NewLandmarksHandler creates a handler feeding g.
func NewLandmarksHandler(g Game) *LandmarksHandler {
	return &LandmarksHandler{game: g}
}

// ServeHTTP handles websocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrade(w, r)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("landmark stream read error: %v", err)
			}
			return
		}

		var msg IngestMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Ignoring malformed landmark message: %v", err)
			continue
		}
		h.dispatch(msg)
	}
}

func (h *LandmarksHandler) dispatch(msg IngestMessage) {
	switch msg.Type {
	case MessageHands:
		h.game.PushLandmarks(msg.Hands)
	case MessagePointer:
		h.game.AddPointerPoint(msg.X, msg.Y)
	case MessageLeave:
		h.game.ClearPointer()
	case MessageResize:
		h.game.Resize(msg.Width, msg.Height)
	default:
		log.Printf("Ignoring landmark message of type %q", msg.Type)
	}
}
