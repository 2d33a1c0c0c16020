package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gumble-backend/internal/services"
	"gumble-backend/internal/table"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the wire envelope in both directions.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	UserID   string
	Username string
	Conn     *websocket.Conn
	send     chan *Message
}

// WebSocketHub owns the live connection set. All map mutation happens
// on the hub goroutine; outbound delivery goes through per-client send
// channels so no two goroutines ever write one connection.
type WebSocketHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	direct     chan *directMessage
}

type directMessage struct {
	userID string
	msg    *Message
}

type WebSocketHandler struct {
	manager      *table.Manager
	engine       *services.SoloEngine
	redisService *services.RedisService
	hub          *WebSocketHub
	log          *logrus.Entry
}

func NewWebSocketHandler(manager *table.Manager, engine *services.SoloEngine, redisService *services.RedisService) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMessage, 256),
	}

	go hub.run()

	return &WebSocketHandler{
		manager:      manager,
		engine:       engine,
		redisService: redisService,
		hub:          hub,
		log:          logrus.WithField("component", "websocket"),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := h.redisService.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := &Client{
		UserID:   userID,
		Username: user.Username,
		Conn:     conn,
		send:     make(chan *Message, 64),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
		conn.Close()
		// A dropped connection starts the grace clock instead of
		// folding the player outright.
		if t := h.manager.Find(userID); t != nil {
			t.Disconnect(userID)
		}
	}()

	h.sendBalance(client)
	h.sendTableList(client)
	if t := h.manager.Find(userID); t != nil {
		t.Reconnect(userID)
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).WithField("user_id", userID).Warn("websocket read failed")
			}
			break
		}
		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *inboundMessage) {
	switch msg.Type {
	case "ping":
		client.trySend(&Message{Type: "pong", Data: gin.H{"timestamp": time.Now().Unix()}})

	case "getTables":
		h.sendTableList(client)

	case "createTable":
		var req struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Name == "" {
			h.sendError(client, "createTable", "table name required")
			return
		}
		h.manager.Create(req.Name)
		h.broadcastTableList()

	case "joinTable":
		var req struct {
			TableID string `json:"table_id"`
			Name    string `json:"name"`
			BuyIn   int64  `json:"buy_in"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.sendError(client, "joinTable", "invalid payload")
			return
		}
		var t *table.Table
		if req.TableID != "" {
			var err error
			if t, err = h.manager.Get(req.TableID); err != nil {
				h.sendError(client, "joinTable", "table not found")
				return
			}
		} else if req.Name != "" {
			t = h.manager.GetOrCreateByName(req.Name)
		} else {
			h.sendError(client, "joinTable", "table_id or name required")
			return
		}
		if err := t.Join(client.UserID, client.Username, req.BuyIn); err != nil {
			h.sendError(client, "joinTable", err.Error())
			return
		}
		h.broadcastTableList()

	case "leaveTable":
		t := h.manager.Find(client.UserID)
		if t == nil {
			h.sendError(client, "leaveTable", "not seated at any table")
			return
		}
		if err := t.Leave(client.UserID); err != nil {
			h.sendError(client, "leaveTable", err.Error())
			return
		}
		h.broadcastTableList()

	case "action":
		var req struct {
			Action string `json:"action"`
			Amount int64  `json:"amount"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			h.sendError(client, "action", "invalid payload")
			return
		}
		t := h.manager.Find(client.UserID)
		if t == nil {
			h.sendError(client, "action", "not seated at any table")
			return
		}
		if err := t.Act(client.UserID, req.Action, req.Amount); err != nil {
			h.sendError(client, "action", err.Error())
		}

	case "getState":
		if t := h.manager.Find(client.UserID); t != nil {
			t.SendState(client.UserID)
		}

	default:
		h.sendError(client, msg.Type, "unknown message type")
	}
}

// --- outbound plumbing ---

// SendGameState implements table.Notifier.
func (h *WebSocketHandler) SendGameState(userID string, state *table.View) {
	h.hub.direct <- &directMessage{userID: userID, msg: &Message{Type: "gameState", Data: state}}
}

// SendTimer implements table.Notifier.
func (h *WebSocketHandler) SendTimer(userID string, secondsRemaining int) {
	h.hub.direct <- &directMessage{
		userID: userID,
		msg:    &Message{Type: "timerUpdate", Data: gin.H{"seconds_remaining": secondsRemaining}},
	}
}

// NotifyBalance implements both table.Notifier and the solo engine's
// notifier.
func (h *WebSocketHandler) NotifyBalance(userID string, balance int64) {
	h.hub.direct <- &directMessage{
		userID: userID,
		msg:    &Message{Type: "balanceUpdate", Data: gin.H{"user_id": userID, "balance": balance}},
	}
}

func (h *WebSocketHandler) sendBalance(client *Client) {
	wallet, err := h.redisService.GetWallet(client.UserID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", client.UserID).Warn("failed to load wallet")
		return
	}
	client.trySend(&Message{Type: "balanceUpdate", Data: gin.H{
		"balance":       wallet.Balance,
		"in_play":       wallet.InPlay,
		"total_wagered": wallet.TotalWagered,
		"total_won":     wallet.TotalWon,
	}})
}

func (h *WebSocketHandler) sendTableList(client *Client) {
	client.trySend(&Message{Type: "tableList", Data: gin.H{"tables": h.manager.List()}})
}

func (h *WebSocketHandler) broadcastTableList() {
	h.hub.direct <- &directMessage{
		msg: &Message{Type: "tableList", Data: gin.H{"tables": h.manager.List()}},
	}
}

func (h *WebSocketHandler) sendError(client *Client, code, detail string) {
	client.trySend(&Message{Type: "actionError", Data: gin.H{
		"code":    code,
		"message": detail,
	}})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			// A second connection for the same user replaces the first.
			if old, ok := hub.clients[client.UserID]; ok {
				close(old.send)
			}
			hub.clients[client.UserID] = client

		case client := <-hub.unregister:
			if current, ok := hub.clients[client.UserID]; ok && current == client {
				delete(hub.clients, client.UserID)
				close(client.send)
			}

		case dm := <-hub.direct:
			if dm.userID != "" {
				if client, ok := hub.clients[dm.userID]; ok {
					client.trySend(dm.msg)
				}
			} else {
				for _, client := range hub.clients {
					client.trySend(dm.msg)
				}
			}
		}
	}
}

// trySend drops the message when the client's buffer is full rather
// than blocking the hub.
func (c *Client) trySend(msg *Message) {
	defer func() { recover() }() // send channel may close under us
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
