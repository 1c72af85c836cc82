// Package tag hands out the one-letter labels that mark branch points.
package tag

import "strings"

const (
	// Letters is the ordinary alphabet, in display order.
	Letters = "bcdefghijklmnorstuvwy"
	// LastLoaded marks the entry that was the tip at the last import.
	LastLoaded = "."
	// StartMoves marks the start of recorded moves.
	StartMoves = "'"
)

// Tagged is anything that can list the tags it currently uses.
type Tagged interface {
	UsedTags() []string
}

// Allocator cycles through Letters from a rotating offset so that
// consecutive branches get different letters.
type Allocator struct {
	next int
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate returns the first letter at or after the offset that h does not
// use. When every letter is taken the letter at the offset is reused.
func (a *Allocator) Allocate(h Tagged) string {
	used := strings.Join(h.UsedTags(), "")
	n := len(Letters)
	picked := a.next % n
	for k := 0; k < n; k++ {
		i := (a.next + k) % n
		if !strings.ContainsRune(used, rune(Letters[i])) {
			picked = i
			break
		}
	}
	a.next = (picked + 1) % n
	return Letters[picked : picked+1]
}

// Projection is the read-only label set handed to the renderer.
type Projection struct {
	Letters    string `json:"tag_letters"`
	LastLoaded string `json:"last_loaded_tag_letter"`
	StartMoves string `json:"start_moves_tag_letter"`
}

func Labels() Projection {
	return Projection{
		Letters:    Letters + LastLoaded + StartMoves,
		LastLoaded: LastLoaded,
		StartMoves: StartMoves,
	}
}
