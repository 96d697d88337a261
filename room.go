package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// Room codes avoid visually ambiguous characters (0/O, 1/I/L) so they
// survive being read off a projector.
const (
	roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 6
)

// Room is one isolated game session. A single goroutine (run, in
// hub.go) owns all mutation; commands arrive on the channels below so
// every transition executes to completion before the next one starts.
type Room struct {
	code      string
	createdAt time.Time

	register chan *Client
	unreg    chan *Client
	commands chan roomCommand
	verdicts chan judgeOutcome
	quit     chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool
	display *Client
	host    *Client
	state   *GameState

	partyMode    bool
	players      []*PartyPlayer
	battle       battleState
	pendingCheck bool
}

func newRoom(code string) *Room {
	return &Room{
		code:      code,
		createdAt: time.Now(),
		register:  make(chan *Client),
		unreg:     make(chan *Client),
		commands:  make(chan roomCommand),
		verdicts:  make(chan judgeOutcome),
		quit:      make(chan struct{}),
		clients:   make(map[*Client]bool),
		state:     newGameState(),
	}
}

// attached reports whether the room currently has a display or host
// bound. Used by the sweeper, so it takes the lock itself.
func (r *Room) attached() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.display != nil || r.host != nil
}

// RoomStore owns room lifetime: creation, lookup, and the periodic
// sweep of abandoned rooms. State mutation is delegated to each room's
// own goroutine.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg   *Config
	judge Judge
	bank  *QuestionBank
}

func newRoomStore(cfg *Config, judge Judge, bank *QuestionBank) *RoomStore {
	rs := &RoomStore{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		judge: judge,
		bank:  bank,
	}

	if cfg.roomRetention > 0 {
		go rs.sweepLoop()
	}

	return rs
}

func (rs *RoomStore) create() *Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var code string
	for {
		code = newRoomCode()
		if _, exists := rs.rooms[code]; !exists {
			break
		}
	}

	room := newRoom(code)
	rs.rooms[code] = room
	go room.run(rs.cfg, rs.judge, rs.bank)

	return room
}

func (rs *RoomStore) get(code string) (*Room, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, ok := rs.rooms[strings.ToUpper(code)]
	return room, ok
}

func (rs *RoomStore) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return len(rs.rooms)
}

// sweepExpired removes rooms older than the retention window that have
// neither a display nor a host attached. Nobody is connected to tell,
// so no events are emitted.
func (rs *RoomStore) sweepExpired(now time.Time) int {
	cutoff := now.Add(-rs.cfg.roomRetention)
	removed := 0

	rs.mu.Lock()
	defer rs.mu.Unlock()

	for code, room := range rs.rooms {
		if room.createdAt.After(cutoff) || room.attached() {
			continue
		}
		delete(rs.rooms, code)
		close(room.quit)
		removed++
	}

	return removed
}

func (rs *RoomStore) sweepLoop() {
	ticker := time.NewTicker(rs.cfg.sweepInterval)
	for range ticker.C {
		if removed := rs.sweepExpired(time.Now()); removed > 0 {
			logf(rs.cfg, "ROOMS: Swept %d abandoned room(s)", removed)
		}
	}
}

// newRoomCode generates a crypto-random room code. Collision checking
// against live rooms happens in RoomStore.create.
func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, roomCodeLength)
	for i := range out {
		out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}

	return string(out)
}
