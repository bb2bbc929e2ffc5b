package client

import (
	"sort"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

// View is the client-side reconciled message list for one forum.
// Apply merges delta batches by message identity: known messages are
// patched in place so they keep their list position, unknown ones are
// appended, then a stable pinned-first partition is restored. Applying
// the same batch twice leaves the view unchanged.
type View struct {
	items  []models.Message
	index  map[string]int
	cursor string
}

// NewView returns an empty view with no cursor, so the first poll
// fetches the full message set.
func NewView() *View {
	return &View{index: make(map[string]int)}
}

// Cursor is the value to send as ?since on the next poll.
func (v *View) Cursor() string { return v.cursor }

// Len reports the number of messages in the view.
func (v *View) Len() int { return len(v.items) }

// Apply merges one delta batch into the view. The cursor advances only
// after every message in the batch has been merged, and never moves
// backwards.
func (v *View) Apply(d Delta) {
	for _, m := range d.Messages {
		if i, ok := v.index[m.ID]; ok {
			v.items[i] = m
		} else {
			v.index[m.ID] = len(v.items)
			v.items = append(v.items, m)
		}
	}
	v.partition()
	if d.ServerTime > v.cursor {
		v.cursor = d.ServerTime
	}
}

// partition moves pinned messages ahead of unpinned ones while keeping
// the relative order within each group.
func (v *View) partition() {
	sort.SliceStable(v.items, func(i, j int) bool {
		return v.items[i].IsPinned && !v.items[j].IsPinned
	})
	for i, m := range v.items {
		v.index[m.ID] = i
	}
}

// Messages returns a copy of the current ordered list.
func (v *View) Messages() []models.Message {
	out := make([]models.Message, len(v.items))
	copy(out, v.items)
	return out
}

// Get looks up a message by ID.
func (v *View) Get(id string) (models.Message, bool) {
	if i, ok := v.index[id]; ok {
		return v.items[i], true
	}
	return models.Message{}, false
}
