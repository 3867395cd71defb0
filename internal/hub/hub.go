// Package hub maintains the live dashboard connections, grouped per course,
// and fans attendance updates out to them.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/dto"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

// Websocket timing shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer. A client
	// silent for this long is considered dead and evicted from its room.
	pongWait = 10 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 5 * time.Second

	// Maximum message size allowed from peer. Dashboards only send
	// pong/close frames, so this stays small.
	maxMessageSize = 512
)

type messageKind int

const (
	msgRegister messageKind = iota + 1
	msgUnregister
	msgBroadcast
	msgInitialCount
)

// hubMessage is the tagged request type flowing through the hub's internal
// channel. client is set for register/unregister, payload for broadcast.
type hubMessage struct {
	kind     messageKind
	courseID string
	client   *Client
	payload  []byte
}

// Hub serializes all mutations of the course → connections mapping through a
// single Run loop, so a Join racing a Leave, or two Broadcasts racing a
// Leave, can never lose an update.
type Hub struct {
	messageChan chan hubMessage
	quit        chan struct{}

	// rooms maps course id to the set of live connections watching it. Only
	// the Run loop mutates it; the mutex lets broadcasts and size queries
	// read concurrently.
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex

	attendanceRepo repository.AttendanceRepository

	// Session ids are scoped to this hub instance so independent hubs in
	// tests never share a counter.
	nextSessionID uint64
}

// NewHub creates a hub. The attendance repository is read on join to send
// each new dashboard the current present count as its first update.
func NewHub(attendanceRepo repository.AttendanceRepository) *Hub {
	if attendanceRepo == nil {
		panic("AttendanceRepository cannot be nil for Hub")
	}
	return &Hub{
		messageChan:    make(chan hubMessage, 512),
		quit:           make(chan struct{}),
		rooms:          make(map[string]map[*Client]bool),
		attendanceRepo: attendanceRepo,
	}
}

// Run processes the hub's message loop. It should run in its own goroutine
// and exits when Stop is called.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running")

	for {
		select {
		case <-h.quit:
			log.Info("Hub is shutting down")
			return
		case msg := <-h.messageChan:
			switch msg.kind {
			case msgRegister:
				h.registerClient(msg.client)
			case msgUnregister:
				h.unregisterClient(msg.client)
			case msgBroadcast:
				h.broadcast(msg.courseID, msg.payload)
			case msgInitialCount:
				h.deliverInitialCount(msg.client, msg.payload)
			}
		}
	}
}

// Stop terminates the Run loop. Connections already registered keep their
// pumps until their own reads fail.
func (h *Hub) Stop() {
	close(h.quit)
}

// Register queues a connection for membership in its course's room. Returns
// false if the hub's queue is full and the connection could not be admitted.
func (h *Hub) Register(client *Client) bool {
	return h.queue(hubMessage{kind: msgRegister, courseID: client.CourseID(), client: client})
}

// BroadcastCount delivers a present-count update to every dashboard joined
// for the course. It satisfies service.Broadcaster; delivery is best-effort
// and never blocks the caller.
func (h *Hub) BroadcastCount(courseID string, presentCount int64) {
	payload, err := json.Marshal(dto.AttendanceUpdate{
		Type:         "attendance_update",
		PresentCount: presentCount,
	})
	if err != nil {
		logrus.WithError(err).Error("Hub: failed to marshal attendance update")
		return
	}
	h.queue(hubMessage{kind: msgBroadcast, courseID: courseID, payload: payload})
}

// RoomSize reports how many connections are currently joined for a course.
func (h *Hub) RoomSize(courseID string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[courseID])
}

func (h *Hub) queue(msg hubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"kind":      msg.kind,
			"course_id": msg.courseID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

func (h *Hub) nextID() uint64 {
	return atomic.AddUint64(&h.nextSessionID, 1)
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	courseID := client.CourseID()
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  courseID,
		"session_id": client.SessionID(),
	})

	h.roomsMu.Lock()
	if _, ok := h.rooms[courseID]; !ok {
		h.rooms[courseID] = make(map[*Client]bool)
		logCtx.Info("Room created")
	}
	h.rooms[courseID][client] = true
	h.roomsMu.Unlock()
	logCtx.Info("Client joined room")

	// First update: the current count, so a dashboard connecting mid-session
	// sees accurate state instead of zero. The goroutine only fetches; the
	// send itself comes back through the Run loop, because the client may be
	// unregistered (and its send channel closed) before the read returns.
	go h.fetchInitialCount(client)
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	courseID := client.CourseID()
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  courseID,
		"session_id": client.SessionID(),
	})

	h.roomsMu.Lock()
	if room, ok := h.rooms[courseID]; ok {
		if _, joined := room[client]; joined {
			delete(room, client)
			close(client.send)
			if len(room) == 0 {
				delete(h.rooms, courseID)
				logCtx.Info("Room empty, removed")
			}
			logCtx.Info("Client left room")
		}
	}
	h.roomsMu.Unlock()
}

func (h *Hub) fetchInitialCount(client *Client) {
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  client.CourseID(),
		"session_id": client.SessionID(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	count, err := h.attendanceRepo.CountDistinctStudentsToday(ctx, client.CourseID(), domain.Day(time.Now().UTC()))
	if err != nil {
		logCtx.WithError(err).Error("Failed to fetch initial present count")
		return
	}

	payload, err := json.Marshal(dto.AttendanceUpdate{
		Type:         "attendance_update",
		PresentCount: count,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal initial attendance update")
		return
	}

	h.queue(hubMessage{kind: msgInitialCount, courseID: client.CourseID(), client: client, payload: payload})
}

// deliverInitialCount runs on the Run loop. Only the Run loop closes send
// channels, so checking membership here makes the send safe: a client that
// left while its count was being fetched simply misses the message.
func (h *Hub) deliverInitialCount(client *Client, payload []byte) {
	if client == nil {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":  client.CourseID(),
		"session_id": client.SessionID(),
	})

	h.roomsMu.RLock()
	_, joined := h.rooms[client.CourseID()][client]
	h.roomsMu.RUnlock()
	if !joined {
		logCtx.Debug("Client left before initial count arrived, dropping")
		return
	}

	select {
	case client.send <- payload:
		logCtx.Debug("Initial count sent")
	default:
		logCtx.Warn("Client send channel full for initial count, message dropped")
	}
}

func (h *Hub) broadcast(courseID string, payload []byte) {
	h.roomsMu.RLock()
	room := h.rooms[courseID]
	recipients := make([]*Client, 0, len(room))
	for client := range room {
		recipients = append(recipients, client)
	}
	h.roomsMu.RUnlock()

	if len(recipients) == 0 {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"course_id":       courseID,
		"recipient_count": len(recipients),
	})
	logCtx.Debug("Broadcasting to room")

	for _, client := range recipients {
		// Non-blocking: a slow or dead consumer loses this update and is
		// eventually evicted by the heartbeat, it never stalls the others.
		select {
		case client.send <- payload:
		default:
			logCtx.WithField("session_id", client.SessionID()).
				Warn("Client send channel full during broadcast, skipping")
		}
	}
}
