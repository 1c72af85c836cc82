package game

import "sync"

// Serialized guards a Session so HTTP handlers and engine callbacks run
// one at a time.
type Serialized struct {
	mu      sync.Mutex
	session *Session
}

func NewSerialized(s *Session) *Serialized {
	return &Serialized{session: s}
}

// Do runs f with exclusive access to the session.
func (g *Serialized) Do(f func(s *Session) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f(g.session)
}

// Snapshot returns the current projection.
func (g *Serialized) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.State()
}

func (g *Serialized) HandleBoard(u BoardUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.HandleBoard(u)
}

func (g *Serialized) HandleSuggest(u SuggestUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.HandleSuggest(u)
}
