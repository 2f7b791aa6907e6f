package page

import (
	"net/http"
	"pulse/src/common"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// Hub pushes region changes of a Document to every connected browser.
type Hub struct {
	doc      *Document
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
	cancel  func()
}

type hubClient struct {
	conn *websocket.Conn
	send chan Update
}

func NewHub(doc *Document) *Hub {
	h := &Hub{
		doc:     doc,
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024 * 64,
		},
	}
	h.cancel = doc.Subscribe(h.broadcast)
	return h
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close detaches the hub from the document and disconnects every client.
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- u:
		default:
			common.Logger.Sugar().Warnf("Hub broadcast dropping slow client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades the request, sends the current page state and then streams updates.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		common.Logger.Sugar().Warnf("Hub ServeWS Upgrade error: %v", err)
		return
	}
	c := &hubClient{conn: conn, send: make(chan Update, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c, h.doc.Snapshot())
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *hubClient, initial []Update) {
	defer common.HandlePanic()
	defer c.conn.Close()
	for _, u := range initial {
		if err := h.write(c, u); err != nil {
			h.unregister(c)
			return
		}
	}
	for u := range c.send {
		if err := h.write(c, u); err != nil {
			common.Logger.Sugar().Debugf("Hub writeLoop WriteJSON error: %v", err)
			h.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) write(c *hubClient, u Update) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(u)
}

// readLoop drains client frames until the connection closes.
func (h *Hub) readLoop(c *hubClient) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
