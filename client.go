package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type role int

const (
	roleNone role = iota
	roleDisplay
	roleHost
	rolePlayer
)

// Client is one websocket connection. The room field is written only by
// this connection's readPump; role and player are written only by the
// owning room's goroutine.
type Client struct {
	conn  *websocket.Conn
	send  chan any
	store *RoomStore

	room   *Room
	role   role
	player *PartyPlayer
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, store *RoomStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:  conn,
			send:  make(chan any, 16),
			store: store,
		}

		logf(cfg, "SERVE: Websocket connection from %s", realIP(r))

		go client.writePump()
		client.readPump()
	}
}

func isJoinType(t string) bool {
	switch t {
	case "display:join", "host:authenticate", "host:takeOver", "player:join":
		return true
	}
	return false
}

func (c *Client) readPump() {
	defer func() {
		if c.room != nil {
			select {
			case c.room.unreg <- c:
			case <-c.room.quit:
			}
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if isJoinType(msg.Type) {
			room, ok := c.store.get(msg.RoomCode)
			if !ok {
				c.trySend(joinFailure(msg.Type))
				continue
			}

			// A connection belongs to at most one room.
			if c.room != nil && c.room != room {
				continue
			}

			if c.room == nil {
				c.room = room
				select {
				case room.register <- c:
				case <-room.quit:
					return
				}
			}
		}

		if c.room == nil {
			// Commands from unbound connections have no room to act on.
			continue
		}

		select {
		case c.room.commands <- roomCommand{client: c, msg: msg}:
		case <-c.room.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// trySend queues a message without blocking; used for replies to
// connections not yet bound to a room.
func (c *Client) trySend(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

// joinFailure builds the role-appropriate room-lookup error reply.
func joinFailure(joinType string) any {
	switch joinType {
	case "host:authenticate", "host:takeOver":
		return AuthResultMessage{
			Type:    "host:authResult",
			Success: false,
			Error:   errRoomNotFound.Error(),
		}
	case "player:join":
		return NoticeMessage{
			Type:    "player:error",
			Message: errRoomNotFound.Error(),
		}
	default:
		return NoticeMessage{
			Type:  "error",
			Error: errRoomNotFound.Error(),
		}
	}
}
