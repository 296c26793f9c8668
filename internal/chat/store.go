package chat

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrRoomNotFound = errors.New("chat: room not found")
	ErrRoomClosed   = errors.New("chat: room is closed")
	ErrRoomAssigned = errors.New("chat: room assigned to another agent")
	ErrNotAssignee  = errors.New("chat: agent does not hold this room")
)

const (
	DefaultWelcomeText     = "Hi! How can we help you today?"
	DefaultCloseGrace      = 45 * time.Second
	DefaultDisconnectGrace = 2 * time.Minute
)

// StoreConfig tunes the room store. Zero values fall back to the defaults
// above; Now is injectable for tests.
type StoreConfig struct {
	WelcomeText     string
	CloseGrace      time.Duration
	DisconnectGrace time.Duration
	Now             func() time.Time
}

// Store owns every room and is the only place room state is mutated. A single
// mutex serializes all transitions; at the expected scale of tens of
// concurrent rooms that is cheaper than per-room locking.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*room
	sched TaskScheduler
	cfg   StoreConfig
}

func NewStore(sched TaskScheduler, cfg StoreConfig) *Store {
	if cfg.WelcomeText == "" {
		cfg.WelcomeText = DefaultWelcomeText
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = DefaultCloseGrace
	}
	if cfg.DisconnectGrace <= 0 {
		cfg.DisconnectGrace = DefaultDisconnectGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		rooms: make(map[string]*room),
		sched: sched,
		cfg:   cfg,
	}
}

// CreateRoom opens a fresh inactive room owned by the given visitor
// connection and seeds the synthetic welcome message.
func (s *Store) CreateRoom(customerID string) Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	r := &room{
		id:            roomID(customerID, now),
		customerID:    customerID,
		status:        StatusInactive,
		createdAt:     now,
		lastActivity:  now,
		visitorOnline: true,
	}
	r.append(newMessage(r.id, s.cfg.WelcomeText, SenderAgent, "", now))
	s.rooms[r.id] = r
	return r.snapshot()
}

// Get returns a snapshot of the room, if it still exists.
func (s *Store) Get(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	return r.snapshot(), true
}

// VisitorMessage ingests a message from the owning visitor. The second return
// reports whether this message made the room visible to agents, i.e. the
// inactive to waiting transition fired.
func (s *Store) VisitorMessage(id, text string) (Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Message{}, false, ErrRoomNotFound
	}
	if r.status == StatusClosed {
		return Message{}, false, ErrRoomClosed
	}

	now := s.cfg.Now()
	msg := newMessage(id, text, SenderVisitor, "", now)
	r.append(msg)
	r.lastActivity = now
	r.hasCustomerMessage = true

	becameVisible := false
	if r.status == StatusInactive {
		r.status = StatusWaiting
		becameVisible = true
	}
	return msg, becameVisible, nil
}

// AgentMessage ingests a message from the agent currently holding the room.
// Sends from agents that do not hold the room are rejected.
func (s *Store) AgentMessage(id, agentID, text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Message{}, ErrRoomNotFound
	}
	if r.status != StatusActive || r.assignedAgent != agentID {
		return Message{}, ErrNotAssignee
	}

	now := s.cfg.Now()
	msg := newMessage(id, text, SenderAgent, agentID, now)
	r.append(msg)
	r.lastActivity = now
	return msg, nil
}

// AssignAgent lets an agent claim a room. Claiming a room the agent already
// holds is an idempotent success, reported through the second return.
func (s *Store) AssignAgent(id, agentID string) (Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Room{}, false, ErrRoomNotFound
	}
	if r.status == StatusClosed {
		return Room{}, false, ErrRoomClosed
	}
	if r.assignedAgent == agentID {
		return r.snapshot(), true, nil
	}
	if r.assignedAgent != "" {
		return Room{}, false, ErrRoomAssigned
	}

	r.assignedAgent = agentID
	r.status = StatusActive
	r.lastActivity = s.cfg.Now()
	return r.snapshot(), false, nil
}

// CloseRoom transitions the room to closed. Only the agent holding the room
// may close it; closed is terminal and physical removal follows after the
// close grace elapses.
func (s *Store) CloseRoom(id, agentID string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	if r.assignedAgent != agentID {
		return Room{}, ErrNotAssignee
	}

	r.status = StatusClosed
	r.assignedAgent = ""
	r.lastActivity = s.cfg.Now()
	snap := r.snapshot()
	s.scheduleRemoval(id, s.cfg.CloseGrace, func(r *room) bool {
		return r.status == StatusClosed
	})
	return snap, nil
}

// UnassignAgent clears every room held by the given agent and reverts those
// rooms to waiting. Called on agent disconnect; returns the affected rooms.
func (s *Store) UnassignAgent(agentID string) []Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []Room
	for _, r := range s.rooms {
		if r.assignedAgent != agentID {
			continue
		}
		r.assignedAgent = ""
		r.status = StatusWaiting
		affected = append(affected, r.snapshot())
	}
	sort.Slice(affected, func(i, j int) bool {
		return affected[i].ID < affected[j].ID
	})
	return affected
}

// VisitorOnline marks the owning visitor connection live again, e.g. on
// reconnect inside the grace window.
func (s *Store) VisitorOnline(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	r.visitorOnline = true
	return r.snapshot(), true
}

// VisitorOffline records the visitor disconnect. A room that never received a
// customer message is garbage and gets a removal scheduled; the task
// re-checks both flags at fire time so a message or reconnect that lands in
// the interim keeps the room alive.
func (s *Store) VisitorOffline(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return
	}
	r.visitorOnline = false
	if !r.hasCustomerMessage {
		s.scheduleRemoval(id, s.cfg.DisconnectGrace, func(r *room) bool {
			return !r.hasCustomerMessage && !r.visitorOnline
		})
	}
}

// DiscardIfUncommitted removes the room only when the visitor never sent a
// message. Used by the explicit "start new chat" path so an in-progress
// conversation is never silently dropped.
func (s *Store) DiscardIfUncommitted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || r.hasCustomerMessage {
		return false
	}
	delete(s.rooms, id)
	if s.sched != nil {
		s.sched.Cancel(id)
	}
	return true
}

// ActiveRooms returns the rooms an agent dashboard should see: waiting or
// active, with at least one customer message, most recent activity first.
func (s *Store) ActiveRooms() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]Room, 0)
	for _, r := range s.rooms {
		if (r.status == StatusWaiting || r.status == StatusActive) && r.hasCustomerMessage {
			rooms = append(rooms, r.snapshot())
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	return rooms
}

// Len reports the number of rooms currently held, for metrics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// scheduleRemoval arms a delayed delete for the room. The stillDue check runs
// under the store lock when the timer fires, so the decision is made against
// current state rather than the state at schedule time. Caller must hold mu.
func (s *Store) scheduleRemoval(id string, delay time.Duration, stillDue func(*room) bool) {
	if s.sched == nil {
		return
	}
	s.sched.Schedule(id, delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.rooms[id]
		if !ok {
			return
		}
		if stillDue(r) {
			delete(s.rooms, id)
		}
	})
}
