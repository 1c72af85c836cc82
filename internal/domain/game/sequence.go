package game

// DefaultDeletedCapacity bounds the undelete stack.
const DefaultDeletedCapacity = 100

// Collection is the ordered list of boards with one active index.
type Collection struct {
	histories []*History
	cursor    int
	nextID    int
	deleted   *DeletedStack
}

// NewCollection starts with a single empty History.
func NewCollection(deletedCapacity int) *Collection {
	c := &Collection{deleted: NewDeletedStack(deletedCapacity)}
	c.histories = []*History{c.NewHistory()}
	return c
}

// NewHistory creates an empty History with a fresh id; it is not inserted.
func (c *Collection) NewHistory() *History {
	h := NewHistory(c.nextID)
	c.nextID++
	return h
}

// CopyActive is a shallow copy of the active History under a fresh id.
func (c *Collection) CopyActive() *History {
	h := c.Active().Copy(c.nextID)
	c.nextID++
	return h
}

func (c *Collection) Active() *History {
	return c.histories[c.cursor]
}

func (c *Collection) Cursor() int {
	return c.cursor
}

func (c *Collection) Len() int {
	return len(c.histories)
}

func (c *Collection) At(i int) *History {
	if i < 0 || i >= len(c.histories) {
		return nil
	}
	return c.histories[i]
}

func (c *Collection) IDs() []int {
	ids := make([]int, len(c.histories))
	for i, h := range c.histories {
		ids[i] = h.ID
	}
	return ids
}

// Wrap maps any integer onto a valid index.
func (c *Collection) Wrap(n int) int {
	l := len(c.histories)
	return ((n % l) + l) % l
}

// Select moves the cursor without touching any History's saved cursor.
func (c *Collection) Select(n int) *History {
	c.cursor = c.Wrap(n)
	return c.Active()
}

// InsertAt places h at index n (clamped) and returns the index used.
func (c *Collection) InsertAt(n int, h *History) int {
	n = max(0, min(n, len(c.histories)))
	c.histories = append(c.histories, nil)
	copy(c.histories[n+1:], c.histories[n:])
	c.histories[n] = h
	if n <= c.cursor && len(c.histories) > 1 {
		c.cursor++
	}
	return n
}

// RemoveAt removes index n. Removing the last board is refused; callers
// append a replacement first.
func (c *Collection) RemoveAt(n int) *History {
	if len(c.histories) <= 1 || n < 0 || n >= len(c.histories) {
		return nil
	}
	h := c.histories[n]
	c.histories = append(c.histories[:n], c.histories[n+1:]...)
	if c.cursor > n || c.cursor >= len(c.histories) {
		c.cursor--
	}
	return h
}

func (c *Collection) Deleted() *DeletedStack {
	return c.deleted
}

// DeletedStack is LIFO; once full the oldest entry is dropped.
type DeletedStack struct {
	items []*History
	cap   int
}

func NewDeletedStack(capacity int) *DeletedStack {
	if capacity <= 0 {
		capacity = DefaultDeletedCapacity
	}
	return &DeletedStack{cap: capacity}
}

func (d *DeletedStack) Push(h *History) {
	d.items = append(d.items, h)
	if len(d.items) > d.cap {
		clear(d.items[:len(d.items)-d.cap])
		d.items = d.items[len(d.items)-d.cap:]
	}
}

func (d *DeletedStack) Pop() (*History, bool) {
	if len(d.items) == 0 {
		return nil, false
	}
	h := d.items[len(d.items)-1]
	d.items[len(d.items)-1] = nil
	d.items = d.items[:len(d.items)-1]
	return h, true
}

func (d *DeletedStack) Len() int {
	return len(d.items)
}
