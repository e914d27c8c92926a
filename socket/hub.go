package socket

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	sharemodel "notus/internal/share/model"
	"notus/pkg/logger"
)

const (
	UpdateType         = "UPDATE"          // Canvas/document content changes
	CursorType         = "CURSOR"          // User moved their cursor
	PresenceUpdateType = "PRESENCE_UPDATE" // A user joined or left
	MetadataType       = "METADATA"        // Document title/info
	NotificationType   = "NOTIFICATION"    // In-app notification pushed to a feed
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   int64           `json:"document_id,omitempty"`
	UserID  int64           `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type UserStatus struct {
	UserID   int64     `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// AccessChecker resolves whether a user may join or edit a document room.
// Satisfied by the share access service.
type AccessChecker interface {
	HasPermission(docID, userID int64, required sharemodel.Permission) (bool, error)
}

// Hub manages per-document rooms plus per-user notification feeds. Document
// content is cached in memory while a room is open and flushed to the
// database by the save worker.
type Hub struct {
	Rooms      map[int64]map[*Client]bool
	Feeds      map[int64]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	db     *sql.DB
	access AccessChecker

	DocumentCache map[int64][]byte
	DirtyDocs     map[int64]bool
	Presence      map[int64]map[int64]UserStatus
	mu            sync.Mutex
}

// Client is one WebSocket connection. DocID zero means a notification feed
// connection rather than a document room.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	DocID    int64
	UserID   int64
	CanWrite bool
	Title    string
	Send     chan []byte
}

func NewHub(db *sql.DB, access AccessChecker) *Hub {
	return &Hub{
		Rooms:         make(map[int64]map[*Client]bool),
		Feeds:         make(map[int64]map[*Client]bool),
		Broadcast:     make(chan WSMessage),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		db:            db,
		access:        access,
		DocumentCache: make(map[int64][]byte),
		DirtyDocs:     make(map[int64]bool),
		Presence:      make(map[int64]map[int64]UserStatus),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if client.DocID == 0 {
				h.mu.Lock()
				if h.Feeds[client.UserID] == nil {
					h.Feeds[client.UserID] = make(map[*Client]bool)
				}
				h.Feeds[client.UserID][client] = true
				h.mu.Unlock()
				continue
			}

			h.mu.Lock()
			// First user of a room loads the document into the cache.
			if h.Rooms[client.DocID] == nil {
				h.Rooms[client.DocID] = make(map[*Client]bool)
				h.Presence[client.DocID] = make(map[int64]UserStatus)

				var content []byte
				err := h.db.QueryRow("SELECT content FROM documents WHERE id = $1", client.DocID).Scan(&content)
				if err != nil {
					logger.Sugar.Errorf("Failed to load document %d (or not found): %v", client.DocID, err)
					content = []byte(`{"ops":[]}`)
				}
				h.DocumentCache[client.DocID] = content
			}
			h.Rooms[client.DocID][client] = true
			h.Presence[client.DocID][client.UserID] = UserStatus{UserID: client.UserID, LastSeen: time.Now()}
			currentContent := h.DocumentCache[client.DocID]
			h.mu.Unlock()

			// The joiner gets the full current state so their editor is
			// up-to-date, then the title.
			initialMsg, _ := json.Marshal(WSMessage{Type: UpdateType, DocID: client.DocID, Payload: json.RawMessage(currentContent)})
			client.Send <- initialMsg

			metaPayload, _ := json.Marshal(map[string]string{"title": client.Title})
			metaMsg, _ := json.Marshal(WSMessage{Type: MetadataType, DocID: client.DocID, UserID: client.UserID, Payload: json.RawMessage(metaPayload)})
			client.Send <- metaMsg

			h.broadcastPresenceUpdate(client.DocID)

		case client := <-h.Unregister:
			if client.DocID == 0 {
				h.mu.Lock()
				if _, ok := h.Feeds[client.UserID][client]; ok {
					delete(h.Feeds[client.UserID], client)
					close(client.Send)
					if len(h.Feeds[client.UserID]) == 0 {
						delete(h.Feeds, client.UserID)
					}
				}
				h.mu.Unlock()
				continue
			}

			h.mu.Lock()
			docID := client.DocID
			if _, ok := h.Rooms[client.DocID][client]; ok {
				delete(h.Rooms[client.DocID], client)
				delete(h.Presence[client.DocID], client.UserID)
				close(client.Send)

				// Last one out flushes and tears the room down.
				if len(h.Rooms[client.DocID]) == 0 {
					if h.DirtyDocs[client.DocID] {
						_, err := h.db.Exec("UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2",
							h.DocumentCache[client.DocID], client.DocID)
						if err != nil {
							logger.Sugar.Errorf("Failed to save doc %d on close: %v", client.DocID, err)
						}
					}
					delete(h.Rooms, client.DocID)
					delete(h.Presence, client.DocID)
					delete(h.DocumentCache, client.DocID)
					delete(h.DirtyDocs, client.DocID)
					logger.Sugar.Infof("Closed and cleaned up empty room: %d", client.DocID)
				}
			}
			h.mu.Unlock()

			if h.Rooms[docID] != nil {
				h.broadcastPresenceUpdate(docID)
			}

		case msg := <-h.Broadcast:
			h.mu.Lock()
			// Content already reaches the database through the API path;
			// caching it here only serves open rooms. An entry created for a
			// roomless document would never be torn down.
			if msg.Type == UpdateType && len(h.Rooms[msg.DocID]) > 0 {
				h.DocumentCache[msg.DocID] = msg.Payload
				h.DirtyDocs[msg.DocID] = true
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				h.mu.Unlock()
				continue
			}

			// Everyone in the room except the sender; collected under the
			// lock, written outside it.
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.DocID]))
			for client := range h.Rooms[msg.DocID] {
				if client.UserID != msg.UserID {
					clientsToSend = append(clientsToSend, client)
				}
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// Full send buffer means a lagging client; drop it so it
					// cannot block the hub. Run is the only receiver on
					// Unregister, so the eviction must not be sent from here.
					logger.Sugar.Warnf("Client %d's send buffer is full. Unregistering.", client.UserID)
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}

// Push delivers a notification to every live feed connection of a user.
// No-op when the user is offline.
func (h *Hub) Push(userID int64, payload []byte) {
	msg, err := json.Marshal(WSMessage{Type: NotificationType, UserID: userID, Payload: payload})
	if err != nil {
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.Feeds[userID]))
	for client := range h.Feeds[userID] {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		select {
		case client.Send <- msg:
		default:
			logger.Sugar.Warnf("Feed buffer full for user %d, dropping notification", userID)
		}
	}
}

func (h *Hub) SaveWorker() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		docsToSave := make(map[int64][]byte)

		h.mu.Lock()
		for docID, isDirty := range h.DirtyDocs {
			if isDirty {
				contentCopy := make([]byte, len(h.DocumentCache[docID]))
				copy(contentCopy, h.DocumentCache[docID])
				docsToSave[docID] = contentCopy
			}
		}
		h.mu.Unlock()

		for docID, content := range docsToSave {
			_, err := h.db.Exec("UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2", content, docID)
			if err != nil {
				logger.Sugar.Errorf("Failed to save doc %d: %v", docID, err)
				continue // dirty flag stays set, retried next tick
			}

			h.mu.Lock()
			// Only mark clean if nothing changed while we were writing.
			if string(h.DocumentCache[docID]) == string(content) {
				h.DirtyDocs[docID] = false
			}
			h.mu.Unlock()

			logger.Sugar.Infof("Auto-saved document: %d", docID)
		}
	}
}

// RemoveDocument evicts a document from memory and disconnects its room.
// Called when a document is trashed or purged via the API.
func (h *Hub) RemoveDocument(docID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Drop cached state first so the save worker cannot write it back.
	delete(h.DocumentCache, docID)
	delete(h.DirtyDocs, docID)
	delete(h.Presence, docID)

	if clients, ok := h.Rooms[docID]; ok {
		for client := range clients {
			client.Conn.Close() // readPump exits and unregisters safely
		}
		delete(h.Rooms, docID)
	}
}

func (h *Hub) broadcastPresenceUpdate(docID int64) {
	var userStatuses []UserStatus
	var clientsToSend []*Client

	h.mu.Lock()
	if _, ok := h.Presence[docID]; ok {
		userStatuses = make([]UserStatus, 0, len(h.Presence[docID]))
		for _, status := range h.Presence[docID] {
			userStatuses = append(userStatuses, status)
		}
		clientsToSend = make([]*Client, 0, len(h.Rooms[docID]))
		for client := range h.Rooms[docID] {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(userStatuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, DocID: docID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- broadcastPayload:
		default:
			logger.Sugar.Warnf("Client %d's send buffer was full during presence update.", client.UserID)
		}
	}
}
