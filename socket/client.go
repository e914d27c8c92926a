package socket

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	sharemodel "notus/internal/share/model"
	"notus/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from the dev frontend origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades the connection. With a docId query parameter the client
// joins that document's room (read permission required, write permission to
// send updates); without one the connection becomes the user's notification
// feed.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID int64) {
	rawDocID := r.URL.Query().Get("docId")

	var docID int64
	var canWrite bool
	var title string

	if rawDocID != "" {
		var err error
		docID, err = strconv.ParseInt(rawDocID, 10, 64)
		if err != nil || docID <= 0 {
			http.Error(w, "Invalid docId", http.StatusBadRequest)
			return
		}

		canRead, err := hub.access.HasPermission(docID, userID, sharemodel.PermissionRead)
		if err != nil || !canRead {
			logger.Sugar.Warnf("Connection rejected: user %d has no access to doc %d", userID, docID)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		canWrite, _ = hub.access.HasPermission(docID, userID, sharemodel.PermissionReadWrite)

		err = hub.db.QueryRow("SELECT title FROM documents WHERE id = $1", docID).Scan(&title)
		if err == sql.ErrNoRows {
			logger.Sugar.Warnf("Connection rejected: Document %d not found", docID)
			http.Error(w, "Not found", http.StatusNotFound)
			return
		} else if err != nil {
			logger.Sugar.Errorf("Database error loading document title: %v", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:      hub,
		Conn:     conn,
		DocID:    docID,
		UserID:   userID,
		CanWrite: canWrite,
		Title:    title,
		Send:     make(chan []byte, 256),
	}

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		// Feed connections are receive-only.
		if c.DocID == 0 {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Overwrite identity fields with server-authoritative values so a
		// client cannot speak for others.
		msg.DocID = c.DocID
		msg.UserID = c.UserID

		switch msg.Type {
		case UpdateType:
			if !c.CanWrite {
				logger.Sugar.Warnf("Permission Denied: user %d tried to edit doc %d", c.UserID, c.DocID)
				continue
			}
		}

		c.Hub.Broadcast <- msg
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second) // keepalive ping
	defer ticker.Stop()

	for {
		select {
		case message := <-c.Send:
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // connection is dead
			}
		}
	}
}
