// Package playlist implements the ordered/shuffled dual-view playlist:
// an authoritative "ordered" list the user edits directly, and a
// "current" list (possibly a shuffled permutation of the same nodes)
// that playback actually walks. Shuffling anchors the currently
// playing node at the head of the new order; restoring returns the
// play order to insertion order. Both views always hold the same set
// of nodes.
package playlist

import (
	"errors"
	"math/rand"
	"sync"
)

// RepeatMode controls how NextFrom/PrevFrom behave at list boundaries.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatTrack
	RepeatList
)

// Node is one playlist entry, identified stably by ID across shuffles
// and reorders (paths are not unique: the same file can be queued
// twice).
type Node struct {
	ID   int64
	Path string
}

var ErrNotFound = errors.New("playlist: node not found")

// Playlist holds the ordered (authoritative) and current (possibly
// shuffled) views over the same set of nodes. All methods are safe to
// call concurrently: the UI thread edits the list while the playback
// watcher walks it with NextFrom/PrevFrom, serialized on one mutex
// held only for the duration of each structural edit.
type Playlist struct {
	mu      sync.Mutex
	nextID  int64
	ordered []*Node
	current []*Node
	shuffle bool
	repeat  RepeatMode
	rng     *rand.Rand
}

// New creates an empty playlist. rngSeed is exposed for deterministic
// tests; production callers should seed from a real entropy source.
func New(rngSeed int64) *Playlist {
	return &Playlist{rng: rand.New(rand.NewSource(rngSeed))}
}

// Enqueue appends path to the end of both views and returns the new
// node's ID.
func (p *Playlist) Enqueue(path string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	n := &Node{ID: p.nextID, Path: path}
	p.ordered = append(p.ordered, n)
	p.current = append(p.current, n)
	return n.ID
}

// Dequeue removes the node with the given ID from both views.
func (p *Playlist) Dequeue(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	oi := p.indexInOrdered(id)
	if oi < 0 {
		return ErrNotFound
	}
	p.ordered = append(p.ordered[:oi], p.ordered[oi+1:]...)
	if ci := p.indexInCurrent(id); ci >= 0 {
		p.current = append(p.current[:ci], p.current[ci+1:]...)
	}
	return nil
}

// MoveUp swaps the node at ordered position i with the one above it.
// Only the ordered view is reordered; the current (possibly shuffled)
// view is untouched until RestoreOrdered is called.
func (p *Playlist) MoveUp(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexInOrdered(id)
	if i <= 0 {
		return ErrNotFound
	}
	p.ordered[i-1], p.ordered[i] = p.ordered[i], p.ordered[i-1]
	return nil
}

// MoveDown swaps the node at ordered position i with the one below it.
func (p *Playlist) MoveDown(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexInOrdered(id)
	if i < 0 || i >= len(p.ordered)-1 {
		return ErrNotFound
	}
	p.ordered[i], p.ordered[i+1] = p.ordered[i+1], p.ordered[i]
	return nil
}

// FindByID searches for a node by ID (shared namespace across views).
func (p *Playlist) FindByID(id int64) (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.findByID(id)
}

func (p *Playlist) findByID(id int64) (*Node, error) {
	if i := p.indexInOrdered(id); i >= 0 {
		return p.ordered[i], nil
	}
	return nil, ErrNotFound
}

// FindByPath returns the first node (ordered-view order) whose Path
// matches. Paths aren't unique, so this is "first match".
func (p *Playlist) FindByPath(path string) (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.ordered {
		if n.Path == path {
			return n, nil
		}
	}
	return nil, ErrNotFound
}

func (p *Playlist) indexInOrdered(id int64) int {
	for i, n := range p.ordered {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (p *Playlist) indexInCurrent(id int64) int {
	for i, n := range p.current {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// SetRepeatMode sets the traversal wraparound behavior.
func (p *Playlist) SetRepeatMode(m RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = m
}

// RepeatMode returns the current traversal wraparound behavior.
func (p *Playlist) RepeatMode() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

// CycleRepeatMode advances Off -> Track -> List -> Off.
func (p *Playlist) CycleRepeatMode() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = (p.repeat + 1) % 3
	return p.repeat
}

// Shuffle reports whether the current view is a shuffled permutation.
func (p *Playlist) Shuffle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shuffle
}

// SetShuffle turns shuffling on or off. Turning it on reshuffles via
// ShuffleFrom(anchor); turning it off restores the ordered view. anchor
// is the ID of the node currently playing, or 0 if none.
func (p *Playlist) SetShuffle(on bool, anchor int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setShuffle(on, anchor)
}

func (p *Playlist) setShuffle(on bool, anchor int64) {
	if on == p.shuffle {
		return
	}
	if on {
		p.shuffleFrom(anchor)
	} else {
		p.restoreOrdered()
	}
}

// ToggleShuffle flips shuffle state, reshuffling or restoring as above,
// and returns the new state.
func (p *Playlist) ToggleShuffle(anchor int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setShuffle(!p.shuffle, anchor)
	return p.shuffle
}

// ShuffleFrom produces a new current view: a Fisher-Yates shuffle of
// every node except anchor, with anchor pinned at position 0 so the
// track already playing doesn't jump elsewhere in the queue out from
// under the listener. If anchor is 0 or not found, the whole list is
// shuffled with no pinned head.
func (p *Playlist) ShuffleFrom(anchor int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffleFrom(anchor)
}

func (p *Playlist) shuffleFrom(anchor int64) {
	pool := make([]*Node, 0, len(p.ordered))
	var head *Node
	for _, n := range p.ordered {
		if anchor != 0 && n.ID == anchor && head == nil {
			head = n
			continue
		}
		pool = append(pool, n)
	}

	for i := len(pool) - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if head != nil {
		p.current = append([]*Node{head}, pool...)
	} else {
		p.current = pool
	}
	p.shuffle = true
}

// RestoreOrdered resets the current view back to the ordered view.
func (p *Playlist) RestoreOrdered() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restoreOrdered()
}

func (p *Playlist) restoreOrdered() {
	p.current = append([]*Node(nil), p.ordered...)
	p.shuffle = false
}

// Ordered returns a snapshot of the authoritative view, for
// persistence/display.
func (p *Playlist) Ordered() []*Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Node(nil), p.ordered...)
}

// Current returns a snapshot of the playback-order view, for
// persistence/display.
func (p *Playlist) Current() []*Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Node(nil), p.current...)
}

// Len reports the number of nodes (same in either view).
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ordered)
}

// NextFrom returns the node to play after the one with ID id, honoring
// RepeatMode: RepeatTrack returns id itself, RepeatList wraps to the
// front past the last node, RepeatOff returns ErrNotFound past the end
// (the caller is expected to treat that as "stop").
func (p *Playlist) NextFrom(id int64) (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.repeat == RepeatTrack {
		return p.findByID(id)
	}
	i := p.indexInCurrent(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if i+1 < len(p.current) {
		return p.current[i+1], nil
	}
	if p.repeat == RepeatList && len(p.current) > 0 {
		return p.current[0], nil
	}
	return nil, ErrNotFound
}

// PrevFrom returns the node to play before the one with ID id,
// symmetric with NextFrom.
func (p *Playlist) PrevFrom(id int64) (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.repeat == RepeatTrack {
		return p.findByID(id)
	}
	i := p.indexInCurrent(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if i > 0 {
		return p.current[i-1], nil
	}
	if p.repeat == RepeatList && len(p.current) > 0 {
		return p.current[len(p.current)-1], nil
	}
	return nil, ErrNotFound
}
