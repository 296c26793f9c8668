package chat

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeScheduler captures scheduled tasks so tests decide when timers fire.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks map[string]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[string]func())}
}

func (f *fakeScheduler) Schedule(key string, _ time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[key] = fn
}

func (f *fakeScheduler) Cancel(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, key)
}

func (f *fakeScheduler) Stop() {}

func (f *fakeScheduler) pending(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[key]
	return ok
}

func (f *fakeScheduler) fire(key string) bool {
	f.mu.Lock()
	fn, ok := f.tasks[key]
	delete(f.tasks, key)
	f.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newTestStore() (*Store, *fakeScheduler) {
	sched := newFakeScheduler()
	clock := newTestClock()
	store := NewStore(sched, StoreConfig{Now: clock.Now})
	return store, sched
}

func TestCreateRoomSeedsWelcomeMessage(t *testing.T) {
	store, _ := newTestStore()

	room := store.CreateRoom("cust-1")

	if room.Status != StatusInactive {
		t.Fatalf("expected inactive room, got %s", room.Status)
	}
	if room.CustomerID != "cust-1" {
		t.Fatalf("unexpected customer id %q", room.CustomerID)
	}
	if len(room.Messages) != 1 {
		t.Fatalf("expected seeded welcome message, got %d messages", len(room.Messages))
	}
	if room.Messages[0].Sender != SenderAgent || room.Messages[0].Text != DefaultWelcomeText {
		t.Fatalf("unexpected welcome message %+v", room.Messages[0])
	}
	if room.HasCustomerMessage {
		t.Fatal("fresh room must not be marked as having customer messages")
	}
}

func TestFirstVisitorMessageMakesRoomWaiting(t *testing.T) {
	store, _ := newTestStore()
	room := store.CreateRoom("cust-1")

	msg, becameVisible, err := store.VisitorMessage(room.ID, "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !becameVisible {
		t.Fatal("first message should flip the room to waiting")
	}
	if msg.Sender != SenderVisitor || msg.RoomID != room.ID {
		t.Fatalf("unexpected message %+v", msg)
	}

	_, becameVisible, err = store.VisitorMessage(room.ID, "Anyone there?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if becameVisible {
		t.Fatal("second message must not report the transition again")
	}

	got, ok := store.Get(room.ID)
	if !ok {
		t.Fatal("room disappeared")
	}
	if got.Status != StatusWaiting {
		t.Fatalf("expected waiting, got %s", got.Status)
	}
	if !got.HasCustomerMessage {
		t.Fatal("hasCustomerMessage should be set")
	}
}

func TestVisitorMessageHistoryCapIsFIFO(t *testing.T) {
	store, _ := newTestStore()
	room := store.CreateRoom("cust-1")

	for i := 1; i <= 150; i++ {
		if _, _, err := store.VisitorMessage(room.ID, fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	got, _ := store.Get(room.ID)
	if len(got.Messages) != MaxRoomMessages {
		t.Fatalf("expected %d messages, got %d", MaxRoomMessages, len(got.Messages))
	}
	// 150 visitor messages plus the welcome message were appended; the oldest
	// 51 must have been evicted in order.
	if got.Messages[0].Text != "msg-51" {
		t.Fatalf("expected oldest surviving message msg-51, got %q", got.Messages[0].Text)
	}
	if got.Messages[len(got.Messages)-1].Text != "msg-150" {
		t.Fatalf("expected newest message msg-150, got %q", got.Messages[len(got.Messages)-1].Text)
	}
}

func TestVisitorMessageUnknownRoom(t *testing.T) {
	store, _ := newTestStore()
	if _, _, err := store.VisitorMessage("nope", "hi"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestAssignAgentConflict(t *testing.T) {
	store, _ := newTestStore()
	room := store.CreateRoom("cust-1")
	store.VisitorMessage(room.ID, "help")

	if _, _, err := store.AssignAgent(room.ID, "agent-a"); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}

	if _, _, err := store.AssignAgent(room.ID, "agent-b"); !errors.Is(err, ErrRoomAssigned) {
		t.Fatalf("expected ErrRoomAssigned, got %v", err)
	}

	got, _ := store.Get(room.ID)
	if got.AssignedAgent != "agent-a" {
		t.Fatalf("assignment must stay with agent-a, got %q", got.AssignedAgent)
	}
	if got.Status != StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}
}

func TestAssignAgentIdempotent(t *testing.T) {
	store, _ := newTestStore()
	room := store.CreateRoom("cust-1")
	store.VisitorMessage(room.ID, "help")

	first, already, err := store.AssignAgent(room.ID, "agent-a")
	if err != nil || already {
		t.Fatalf("first assign: already=%v err=%v", already, err)
	}

	second, already, err := store.AssignAgent(room.ID, "agent-a")
	if err != nil {
		t.Fatalf("repeat assign: %v", err)
	}
	if !already {
		t.Fatal("repeat assign must report the room as already held")
	}
	if second.AssignedAgent != first.AssignedAgent || second.Status != StatusActive {
		t.Fatalf("repeat assign changed state: %+v", second)
	}
}

func TestCloseRoomOnlyByAssignee(t *testing.T) {
	store, sched := newTestStore()
	room := store.CreateRoom("cust-1")
	store.VisitorMessage(room.ID, "help")
	store.AssignAgent(room.ID, "agent-a")

	if _, err := store.CloseRoom(room.ID, "agent-b"); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee, got %v", err)
	}

	closed, err := store.CloseRoom(room.ID, "agent-a")
	if err != nil {
		t.Fatalf("close by assignee failed: %v", err)
	}
	if closed.Status != StatusClosed || closed.AssignedAgent != "" {
		t.Fatalf("unexpected closed room state %+v", closed)
	}

	// Closed is terminal: no messages, no reassignment.
	if _, err := store.AgentMessage(room.ID, "agent-a", "late"); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee after close, got %v", err)
	}
	if _, _, err := store.AssignAgent(room.ID, "agent-b"); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}
	if _, _, err := store.VisitorMessage(room.ID, "hello?"); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}

	// Removal is deferred but already scheduled, and the room leaves the
	// active snapshot immediately.
	if len(store.ActiveRooms()) != 0 {
		t.Fatal("closed room must not appear in the active snapshot")
	}
	if !sched.pending(room.ID) {
		t.Fatal("close must schedule room removal")
	}
	if !sched.fire(room.ID) {
		t.Fatal("removal task missing")
	}
	if _, ok := store.Get(room.ID); ok {
		t.Fatal("room should be gone after the close grace")
	}
}

func TestAgentMessageRequiresAssignment(t *testing.T) {
	store, _ := newTestStore()
	room := store.CreateRoom("cust-1")
	store.VisitorMessage(room.ID, "help")

	if _, err := store.AgentMessage(room.ID, "agent-a", "hi"); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee on waiting room, got %v", err)
	}

	store.AssignAgent(room.ID, "agent-a")
	if _, err := store.AgentMessage(room.ID, "agent-b", "hi"); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("expected ErrNotAssignee for non-holder, got %v", err)
	}

	msg, err := store.AgentMessage(room.ID, "agent-a", "hi")
	if err != nil {
		t.Fatalf("holder send failed: %v", err)
	}
	if msg.Sender != SenderAgent || msg.AgentID != "agent-a" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestUnassignAgentRevertsAllHeldRooms(t *testing.T) {
	store, _ := newTestStore()

	roomA := store.CreateRoom("cust-1")
	store.VisitorMessage(roomA.ID, "one")
	store.AssignAgent(roomA.ID, "agent-a")

	roomB := store.CreateRoom("cust-2")
	store.VisitorMessage(roomB.ID, "two")
	store.AssignAgent(roomB.ID, "agent-a")

	roomC := store.CreateRoom("cust-3")
	store.VisitorMessage(roomC.ID, "three")
	store.AssignAgent(roomC.ID, "agent-b")

	affected := store.UnassignAgent("agent-a")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected rooms, got %d", len(affected))
	}
	for _, room := range affected {
		if room.Status != StatusWaiting || room.AssignedAgent != "" {
			t.Fatalf("unexpected state after unassign: %+v", room)
		}
	}

	untouched, _ := store.Get(roomC.ID)
	if untouched.AssignedAgent != "agent-b" || untouched.Status != StatusActive {
		t.Fatalf("agent-b's room must be untouched, got %+v", untouched)
	}

	if got := store.UnassignAgent("agent-a"); len(got) != 0 {
		t.Fatalf("repeat unassign must be a no-op, got %d rooms", len(got))
	}
}

func TestAbandonedRoomRemovedAfterGrace(t *testing.T) {
	store, sched := newTestStore()
	room := store.CreateRoom("cust-1")

	store.VisitorOffline(room.ID)
	if !sched.pending(room.ID) {
		t.Fatal("disconnect with no customer message must schedule removal")
	}

	sched.fire(room.ID)
	if _, ok := store.Get(room.ID); ok {
		t.Fatal("abandoned room should be removed after the grace period")
	}
}

func TestCommittedRoomSurvivesDisconnect(t *testing.T) {
	store, sched := newTestStore()
	room := store.CreateRoom("cust-1")
	store.VisitorMessage(room.ID, "keep me")

	store.VisitorOffline(room.ID)
	if sched.pending(room.ID) {
		t.Fatal("disconnect after a customer message must not schedule removal")
	}
	if _, ok := store.Get(room.ID); !ok {
		t.Fatal("committed room must survive the disconnect")
	}
}

func TestRemovalRevalidatesAtFireTime(t *testing.T) {
	store, sched := newTestStore()
	room := store.CreateRoom("cust-1")

	store.VisitorOffline(room.ID)

	// A message lands between scheduling and firing: the room is no longer
	// abandoned, so the timer must leave it alone.
	store.VisitorOnline(room.ID)
	if _, _, err := store.VisitorMessage(room.ID, "still here"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sched.fire(room.ID)
	if _, ok := store.Get(room.ID); !ok {
		t.Fatal("room with a customer message must survive the stale timer")
	}
}

func TestDiscardIfUncommitted(t *testing.T) {
	store, _ := newTestStore()

	empty := store.CreateRoom("cust-1")
	if !store.DiscardIfUncommitted(empty.ID) {
		t.Fatal("uncommitted room should be discardable")
	}
	if _, ok := store.Get(empty.ID); ok {
		t.Fatal("discarded room still present")
	}

	committed := store.CreateRoom("cust-1")
	store.VisitorMessage(committed.ID, "hello")
	if store.DiscardIfUncommitted(committed.ID) {
		t.Fatal("committed room must not be discarded")
	}
	if _, ok := store.Get(committed.ID); !ok {
		t.Fatal("committed room disappeared")
	}
}

func TestActiveRoomsFiltersAndOrders(t *testing.T) {
	store, _ := newTestStore()

	silent := store.CreateRoom("cust-silent")

	first := store.CreateRoom("cust-1")
	store.VisitorMessage(first.ID, "older")

	second := store.CreateRoom("cust-2")
	store.VisitorMessage(second.ID, "newer")

	rooms := store.ActiveRooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 visible rooms, got %d", len(rooms))
	}
	if rooms[0].ID != second.ID || rooms[1].ID != first.ID {
		t.Fatalf("expected most recent activity first, got %s then %s", rooms[0].ID, rooms[1].ID)
	}
	for _, room := range rooms {
		if room.ID == silent.ID {
			t.Fatal("room without customer messages must stay hidden")
		}
	}
}
