package api

import (
	"net/http"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/middleware"
	"github.com/OpenClique85/openclique-sub010/internal/notify"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type notificationRoutes struct {
	hub *notify.Hub
}

// NewNotificationRoutes mounts the websocket feed. mw must resolve the caller
// to a profile id (middleware.Authorization.Profile).
func NewNotificationRoutes(handler *gin.RouterGroup, hub *notify.Hub, mw ...gin.HandlerFunc) {
	h := &notificationRoutes{hub: hub}

	notifications := handler.Group("/notifications")
	notifications.Use(mw...)
	{
		notifications.GET("/ws", h.handleWebSocket)
	}
}

func (h *notificationRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	userID, ok := middleware.UserID(c)
	if !ok {
		log.Error("profile id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(userID)
	done := make(chan struct{})

	go h.readLoop(conn, done)
	h.writeLoop(conn, sub, done)
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *notificationRoutes) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Logger().Info("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (h *notificationRoutes) writeLoop(conn *websocket.Conn, sub *notify.Subscription, done <-chan struct{}) {
	log := logger.Logger()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.hub.Unsubscribe(sub)
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return

		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			out, err := json.Marshal(msg)
			if err != nil {
				log.Error("failed to marshal notification", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Info("failed to write notification", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
