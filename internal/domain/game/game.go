package game

import (
	"lizboard/internal/domain/coord"
)

// History is one game line: entries in move_count order plus metadata.
// Entries beyond the cursor stay stored until truncated.
type History struct {
	ID          int    `json:"id" bson:"id"`
	PlayerBlack string `json:"player_black" bson:"player_black"`
	PlayerWhite string `json:"player_white" bson:"player_white"`
	SGFFile     string `json:"sgf_file" bson:"sgf_file"`
	SGFStr      string `json:"sgf_str" bson:"sgf_str"`
	Trial       bool   `json:"trial" bson:"trial"`
	// MoveCount is the cursor saved while this History is not active.
	MoveCount int `json:"move_count" bson:"move_count"`
	// Initial is the analysis of the empty position.
	Initial Analysis `json:"initial" bson:"initial"`

	entries    []Entry
	lastLoaded uint64 // serial of the import tip, 0 when unset
	nextSerial uint64
}

func NewHistory(id int) *History {
	return &History{ID: id}
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Empty() bool {
	return len(h.entries) == 0
}

// Entries returns a copy of the first n entries (all when n exceeds Len).
func (h *History) Entries(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]Entry(nil), h.entries[:n]...)
}

func (h *History) All() []Entry {
	return h.Entries(len(h.entries))
}

// At returns the entry with the given 1-based move_count. The pointer is
// valid until the next structural change.
func (h *History) At(moveCount int) (*Entry, bool) {
	if moveCount < 1 || moveCount > len(h.entries) {
		return nil, false
	}
	return &h.entries[moveCount-1], true
}

func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h *History) IsLastMovePass() bool {
	last, ok := h.Last()
	return ok && last.Move.IsPass()
}

// Append adds an entry at the tip with the next move_count.
func (h *History) Append(move coord.Move, isBlack bool, tag string) Entry {
	h.nextSerial++
	e := Entry{
		Move:      move,
		IsBlack:   isBlack,
		Tag:       tag,
		MoveCount: len(h.entries) + 1,
		serial:    h.nextSerial,
	}
	h.entries = append(h.entries, e)
	return e
}

// Truncate drops every entry after the first n.
func (h *History) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(h.entries) {
		return
	}
	clear(h.entries[n:])
	h.entries = h.entries[:n]
}

func (h *History) Pop() (Entry, bool) {
	last, ok := h.Last()
	if ok {
		h.Truncate(len(h.entries) - 1)
	}
	return last, ok
}

// Splice keeps the first keep entries and appends the remainder of
// incoming after them, so analysis on the kept prefix survives.
func (h *History) Splice(keep int, incoming []Entry) {
	h.Truncate(keep)
	for _, e := range incoming[min(keep, len(incoming)):] {
		h.Append(e.Move, e.IsBlack, e.Tag)
	}
}

// UsedTags lists tags present among the entries, in entry order.
func (h *History) UsedTags() []string {
	var tags []string
	for _, e := range h.entries {
		if e.Tag != "" {
			tags = append(tags, e.Tag)
		}
	}
	return tags
}

func (h *History) TaggedEntries() []Entry {
	var out []Entry
	for _, e := range h.entries {
		if e.Tag != "" {
			out = append(out, e)
		}
	}
	return out
}

// MarkLastLoaded remembers the current tip as the import tip.
func (h *History) MarkLastLoaded() {
	last, ok := h.Last()
	if !ok {
		h.lastLoaded = 0
		return
	}
	h.lastLoaded = last.serial
}

// IsLastLoaded reports whether the entry at moveCount is the very entry
// that was the tip at the last import, not just one at the same index.
func (h *History) IsLastLoaded(moveCount int) bool {
	e, ok := h.At(moveCount)
	return ok && h.lastLoaded != 0 && e.serial == h.lastLoaded
}

func (h *History) LastLoaded() (Entry, bool) {
	if h.lastLoaded == 0 {
		return Entry{}, false
	}
	for _, e := range h.entries {
		if e.serial == h.lastLoaded {
			return e, true
		}
	}
	return Entry{}, false
}

// Copy is a shallow copy under a new id; suggestion slices are shared and
// the import tip is not carried over.
func (h *History) Copy(id int) *History {
	cp := *h
	cp.ID = id
	cp.entries = append([]Entry(nil), h.entries...)
	cp.lastLoaded = 0
	return &cp
}

// Winrate returns black's win-rate after moveCount moves, if known.
func (h *History) Winrate(moveCount int) (float64, bool) {
	if moveCount < 0 {
		return 0, false
	}
	if moveCount == 0 {
		if h.Initial.BWinrate == nil {
			return 0, false
		}
		return *h.Initial.BWinrate, true
	}
	e, ok := h.At(moveCount)
	if !ok || e.BWinrate == nil {
		return 0, false
	}
	return *e.BWinrate, true
}

// SuggestAfter returns the suggestions for the position after moveCount moves.
func (h *History) SuggestAfter(moveCount int) []Suggestion {
	if moveCount == 0 {
		return h.Initial.Suggest
	}
	e, ok := h.At(moveCount)
	if !ok {
		return nil
	}
	return e.Suggest
}
