package chat

import "sync"

// AgentInfo is the public view of one presence entry.
type AgentInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

type agentEntry struct {
	id   string
	name string
	conn Conn
}

// Presence tracks which agents are connected right now. Registering an id
// that is already present replaces the previous entry, which is how an agent
// reconnecting with the same id takes over its old identity.
type Presence struct {
	mu     sync.Mutex
	agents map[string]*agentEntry
}

func NewPresence() *Presence {
	return &Presence{agents: make(map[string]*agentEntry)}
}

// RegisterAgent upserts the entry. The return reports whether this was the
// transition from zero online agents to one, which is the signal to broadcast
// "support online" to visitors.
func (p *Presence) RegisterAgent(id, name string, conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	wasEmpty := len(p.agents) == 0
	p.agents[id] = &agentEntry{id: id, name: name, conn: conn}
	return wasEmpty
}

// UnregisterAgent removes the entry if present. Idempotent: a duplicate
// disconnect reports (false, false) and has no further effect. When conn is
// non-nil the entry is only removed if it still belongs to that connection,
// so a stale disconnect cannot evict an agent that already reconnected. The
// first return says whether the registry just became empty.
func (p *Presence) UnregisterAgent(id string, conn Conn) (becameEmpty, removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.agents[id]
	if !ok {
		return false, false
	}
	if conn != nil && e.conn != conn {
		return false, false
	}
	delete(p.agents, id)
	return len(p.agents) == 0, true
}

func (p *Presence) AnyAgentOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.agents) > 0
}

// AgentConn returns the live connection for the agent, if online.
func (p *Presence) AgentConn(id string) (Conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.agents[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Agent returns the presence entry metadata, if online.
func (p *Presence) Agent(id string) (AgentInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.agents[id]
	if !ok {
		return AgentInfo{}, false
	}
	return AgentInfo{ID: e.id, Name: e.name, IsOnline: true}, true
}

// AgentConns snapshots every online agent connection.
func (p *Presence) AgentConns() []Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := make([]Conn, 0, len(p.agents))
	for _, e := range p.agents {
		conns = append(conns, e.conn)
	}
	return conns
}

// Visitors is the visitor-side counterpart to Presence: a directory of live
// visitor connections keyed by customer id, used for presence broadcasts and
// for delivering agent messages to the owning visitor.
type Visitors struct {
	mu    sync.Mutex
	conns map[string]Conn
}

func NewVisitors() *Visitors {
	return &Visitors{conns: make(map[string]Conn)}
}

func (v *Visitors) Register(customerID string, conn Conn) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.conns[customerID] = conn
}

// Unregister removes the entry. When conn is non-nil the entry is only
// removed if it is still that connection, so a stale disconnect from before a
// reconnect cannot evict the live one.
func (v *Visitors) Unregister(customerID string, conn Conn) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.conns[customerID]; ok {
		if conn == nil || c == conn {
			delete(v.conns, customerID)
		}
	}
}

func (v *Visitors) Conn(customerID string) (Conn, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.conns[customerID]
	return c, ok
}

func (v *Visitors) Conns() []Conn {
	v.mu.Lock()
	defer v.mu.Unlock()
	conns := make([]Conn, 0, len(v.conns))
	for _, c := range v.conns {
		conns = append(conns, c)
	}
	return conns
}
