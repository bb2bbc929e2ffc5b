package models

import "time"

// Author roles captured on each message at creation time. Role changes or
// renames never rewrite history; the message keeps the values it was
// posted with.
const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
)

// Message types. Announcements are restricted to organizer authors.
const (
	TypeMessage      = "message"
	TypeQuestion     = "question"
	TypeAnnouncement = "announcement"
)

// DeletedPlaceholder is the content served for soft-deleted messages,
// regardless of caller. The original text is moved to an audit-only key
// at deletion time and never served again.
const DeletedPlaceholder = "[message deleted]"

// Reaction is a single (user, emoji) membership entry. At most one entry
// exists per (message, user, emoji) triple.
type Reaction struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// Message is a forum message row. Cursor is the message's position in the
// per-event update log; it moves on every mutation and is the only field
// the sync protocol filters on.
type Message struct {
	ID         string     `json:"id"`
	EventID    string     `json:"eventId"`
	AuthorID   string     `json:"authorId"`
	AuthorName string     `json:"authorName"`
	AuthorRole string     `json:"authorRole"`
	Type       string     `json:"type"`
	Content    string     `json:"content"`
	ParentID   string     `json:"parentId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Cursor     string     `json:"cursor"`
	IsPinned   bool       `json:"isPinned"`
	IsDeleted  bool       `json:"isDeleted"`
	Reactions  []Reaction `json:"reactions,omitempty"`
}

// ReactionSummary is the per-emoji display projection of a message's
// reaction set. It is computed, never stored.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

// SummarizeReactions aggregates a message's reaction set for display from
// the point of view of currentUserID. Emojis appear in first-seen order.
func SummarizeReactions(m Message, currentUserID string) []ReactionSummary {
	order := make([]string, 0, 4)
	byEmoji := make(map[string]*ReactionSummary, 4)
	for _, r := range m.Reactions {
		s, ok := byEmoji[r.Emoji]
		if !ok {
			s = &ReactionSummary{Emoji: r.Emoji}
			byEmoji[r.Emoji] = s
			order = append(order, r.Emoji)
		}
		s.Count++
		if r.UserID == currentUserID {
			s.Reacted = true
		}
	}
	out := make([]ReactionSummary, 0, len(order))
	for _, e := range order {
		out = append(out, *byEmoji[e])
	}
	return out
}

// HasReaction reports whether user already reacted with emoji.
func (m Message) HasReaction(userID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}
