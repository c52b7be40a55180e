package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "github.com/narayanprabad/InvestWise/internal/domain/models"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	xlogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 16
)

// StreamHub pushes every market report to websocket subscribers at /ws/condition.
// A client may pass ?symbol= to receive one symbol only. Clients that fall behind are dropped.
type StreamHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn   *websocket.Conn
	symbol string
	send   chan []byte
	once   sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewStreamHub accepts connections from allowedOrigins, or from any origin when empty.
func NewStreamHub(logger *xlogger.Logger, allowedOrigins []string) *StreamHub {
	h := &StreamHub{logger: logger, clients: make(map[*wsClient]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/condition", h.Serve)
}

// Serve upgrades the request and streams reports until the client goes away.
func (h *StreamHub) Serve(c echo.Context) error {
	var symbol string
	if s := c.QueryParam("symbol"); s != "" {
		sym, err := usecase.NormalizeSymbol(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		symbol = sym
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &wsClient{conn: conn, symbol: symbol, send: make(chan []byte, wsSendBuffer)}
	if !h.add(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return nil
	}
	h.logger.Debug("websocket client joined", xlogger.String("symbol", symbol), xlogger.Int("clients", h.Len()))

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// OnReport fans r out to matching clients without blocking.
func (h *StreamHub) OnReport(r *models.MarketReport) {
	b, err := json.Marshal(r)
	if err != nil {
		h.logger.Error("marshal report for stream", xlogger.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		if cl.symbol != "" && !strings.EqualFold(cl.symbol, r.Symbol) {
			continue
		}
		select {
		case cl.send <- b:
		default:
			delete(h.clients, cl)
			cl.close()
			h.logger.Warn("websocket client too slow, dropped", xlogger.String("symbol", cl.symbol))
		}
	}
}

// Len returns the number of connected clients.
func (h *StreamHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *StreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		cl.close()
	}
}

func (h *StreamHub) add(cl *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	return true
}

func (h *StreamHub) remove(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		cl.close()
	}
}

// readPump only watches for pongs and the close frame; clients send nothing else.
func (h *StreamHub) readPump(cl *wsClient) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) writePump(cl *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ usecase.ReportSink = (*StreamHub)(nil)
