package playlist

import (
	"math/rand/v2"
	"slices"

	"github.com/handiism/melody/internal/model"
	"github.com/samber/lo"
)

// Direction selects which way Advance moves.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) delta() int {
	if d == Previous {
		return -1
	}
	return 1
}

// Playlist is an ordered list of tracks with a current position and an
// optional shuffled order.
//
// Two orders are kept: the original insertion order and the active order.
// With shuffle off the two are equal. The current index always refers to
// the active order, and is recomputed by track identity whenever the active
// order changes, so toggling shuffle never changes which track is current.
//
// A Playlist is not safe for concurrent use; the player controller
// serialises access to it.
//
// Example:
//
//	pl := playlist.New(nil)
//	pl.Add(a, b, c)
//	pl.SetShuffle(true)
//	pl.Advance(playlist.Next)
//	fmt.Println(pl.Current().Title)
type Playlist struct {
	ordered  []*model.Track
	original []*model.Track
	current  int
	shuffled bool
	rng      *rand.Rand
}

// New creates an empty playlist. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand) *Playlist {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Playlist{rng: rng}
}

// Add appends tracks to both orders. While shuffled, new tracks are appended
// at the end of the active order rather than shuffled in.
func (p *Playlist) Add(tracks ...*model.Track) {
	for _, t := range tracks {
		if t == nil {
			continue
		}
		p.original = append(p.original, t)
		p.ordered = append(p.ordered, t)
	}
}

// SetShuffle enables or disables shuffle. Enabling always draws a fresh
// permutation of the original order, even when already shuffled.
func (p *Playlist) SetShuffle(enable bool) {
	p.shuffled = enable
	if len(p.ordered) == 0 {
		return
	}

	cur := p.ordered[p.current]
	p.ordered = slices.Clone(p.original)
	if enable {
		// Fisher-Yates: every permutation is equally likely.
		for i := len(p.ordered) - 1; i > 0; i-- {
			j := p.rng.IntN(i + 1)
			p.ordered[i], p.ordered[j] = p.ordered[j], p.ordered[i]
		}
	}
	p.current = p.indexOf(cur)
}

// Shuffled reports whether shuffle is enabled.
func (p *Playlist) Shuffled() bool {
	return p.shuffled
}

// Advance moves to the next or previous track and returns it.
//
// While shuffled, the new index is drawn uniformly over the whole playlist
// and may be the current one. Otherwise the index moves by one with
// wraparound. Returns nil on an empty playlist.
func (p *Playlist) Advance(d Direction) *model.Track {
	n := len(p.ordered)
	if n == 0 {
		return nil
	}

	if p.shuffled {
		p.current = p.rng.IntN(n)
	} else {
		p.current = (p.current + d.delta() + n) % n
	}
	return p.ordered[p.current]
}

// Select makes the track at index i of the active order current.
// It returns false when i is out of range.
func (p *Playlist) Select(i int) bool {
	if i < 0 || i >= len(p.ordered) {
		return false
	}
	p.current = i
	return true
}

// Remove drops the track at index i of the active order from both orders.
//
// When the current track is removed the track that took its place becomes
// current, or the new last track when the removed one was last.
func (p *Playlist) Remove(i int) (*model.Track, bool) {
	if i < 0 || i >= len(p.ordered) {
		return nil, false
	}

	t := p.ordered[i]
	p.ordered = slices.Delete(p.ordered, i, i+1)
	if j := slices.Index(p.original, t); j >= 0 {
		p.original = slices.Delete(p.original, j, j+1)
	}

	switch {
	case len(p.ordered) == 0:
		p.current = 0
	case i < p.current:
		p.current--
	case p.current >= len(p.ordered):
		p.current = len(p.ordered) - 1
	}
	return t, true
}

// Current returns the current track, or nil when empty.
func (p *Playlist) Current() *model.Track {
	if len(p.ordered) == 0 {
		return nil
	}
	return p.ordered[p.current]
}

// Index returns the current index in the active order.
func (p *Playlist) Index() int {
	return p.current
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.ordered)
}

// IsLast reports whether the current track is the last of the active order.
func (p *Playlist) IsLast() bool {
	return len(p.ordered) > 0 && p.current == len(p.ordered)-1
}

// Tracks returns a copy of the active order.
func (p *Playlist) Tracks() []*model.Track {
	return slices.Clone(p.ordered)
}

// Original returns a copy of the insertion order.
func (p *Playlist) Original() []*model.Track {
	return slices.Clone(p.original)
}

// IndexOf returns the index of t in the active order, or -1.
func (p *Playlist) IndexOf(t *model.Track) int {
	_, i, ok := lo.FindIndexOf(p.ordered, func(x *model.Track) bool { return x == t })
	if !ok {
		return -1
	}
	return i
}

func (p *Playlist) indexOf(t *model.Track) int {
	if i := p.IndexOf(t); i >= 0 {
		return i
	}
	return 0
}
