package player

import "sync"

// Group keeps at most one of its players running.
type Group struct {
	// playMu is held from stopping the other players until the claiming
	// player is marked playing.
	playMu  sync.Mutex
	mu      sync.Mutex
	players []*Player
	active  *Player
}

func NewGroup() *Group {
	return &Group{}
}

func (g *Group) add(p *Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players = append(g.players, p)
}

// claim makes p the active player and stops the others. Stop runs after the
// group lock is released since it calls back into release.
func (g *Group) claim(p *Player) {
	g.mu.Lock()
	var others []*Player
	for _, other := range g.players {
		if other != p {
			others = append(others, other)
		}
	}
	g.active = p
	g.mu.Unlock()

	for _, other := range others {
		other.Stop()
	}
}

func (g *Group) release(p *Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == p {
		g.active = nil
	}
}

// Active returns the player that is currently running, or nil.
func (g *Group) Active() *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	// a player that ran to the end without looping never calls release
	if g.active != nil && !g.active.Playing() {
		return nil
	}
	return g.active
}

// StopAll stops every player in the group.
func (g *Group) StopAll() {
	g.mu.Lock()
	players := append([]*Player(nil), g.players...)
	g.mu.Unlock()
	for _, p := range players {
		p.Stop()
	}
}
