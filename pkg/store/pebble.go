package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/moderation"
)

// Key layout:
//
//	event:<eventID>:meta                 event metadata JSON
//	event:<eventID>:participant:<userID> registration record JSON
//	event:<eventID>:msg:<messageID>      canonical current message row JSON
//	event:<eventID>:upd:<cursor>         update-log entry, value = messageID
//	audit:msg:<messageID>:content        original content of a deleted message
//
// Each message owns exactly one upd entry; every mutation moves it to the
// message's new cursor in the same batch that rewrites the row. Scanning
// the upd namespace from a cursor therefore yields every message changed
// after that cursor, ordered by cursor, each at most once.
var (
	db     *pebble.DB
	dbPath string
	clk    hlc

	// evLocks serializes mutations per event so concurrent deletes, pin
	// changes and reaction toggles on the same event cannot interleave
	// into a corrupted row or update-log state.
	evLocks = lockTable{m: map[string]*sync.Mutex{}}
)

type lockTable struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (t *lockTable) get(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.m[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	t.m[key] = l
	return l
}

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func eventKey(eventID string) []byte {
	return []byte("event:" + eventID + ":meta")
}

func participantKey(eventID, userID string) []byte {
	return []byte("event:" + eventID + ":participant:" + userID)
}

func msgKey(eventID, msgID string) []byte {
	return []byte("event:" + eventID + ":msg:" + msgID)
}

func updKey(eventID, cursor string) []byte {
	return []byte("event:" + eventID + ":upd:" + cursor)
}

func auditContentKey(msgID string) []byte {
	return []byte("audit:msg:" + msgID + ":content")
}

func notOpen() error {
	return fmt.Errorf("pebble not opened; call store.Open first")
}

// CreateEvent stores event forum metadata. The organizer id is required;
// it is the identity the moderation predicates compare against.
func CreateEvent(ev models.EventMeta) (models.EventMeta, error) {
	if db == nil {
		return ev, notOpen()
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if strings.TrimSpace(ev.OrganizerID) == "" {
		return ev, fmt.Errorf("%w: organizer id required", errs.ErrValidation)
	}
	if ev.CreatedTS == 0 {
		ev.CreatedTS = time.Now().UTC().UnixNano()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("marshal event: %w", err)
	}
	if err := db.Set(eventKey(ev.ID), b, pebble.Sync); err != nil {
		logger.Error("save_event_failed", "event", ev.ID, "error", err)
		return ev, err
	}
	incOp("create_event")
	logger.Info("event_saved", "event", ev.ID, "organizer", ev.OrganizerID)
	return ev, nil
}

// GetEvent returns the stored event metadata.
func GetEvent(eventID string) (models.EventMeta, error) {
	var ev models.EventMeta
	if db == nil {
		return ev, notOpen()
	}
	v, closer, err := db.Get(eventKey(eventID))
	if err != nil {
		return ev, fmt.Errorf("%w: event %s", errs.ErrNotFound, eventID)
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &ev); err != nil {
		return ev, fmt.Errorf("invalid stored event %s: %w", eventID, err)
	}
	return ev, nil
}

// RegisterParticipant records a completed registration for the event.
// Idempotent; re-registering overwrites the record.
func RegisterParticipant(eventID, userID string) error {
	if db == nil {
		return notOpen()
	}
	if _, err := GetEvent(eventID); err != nil {
		return err
	}
	reg := models.Registration{EventID: eventID, UserID: userID, RegisteredTS: time.Now().UTC().UnixNano()}
	b, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	if err := db.Set(participantKey(eventID, userID), b, pebble.Sync); err != nil {
		logger.Error("save_registration_failed", "event", eventID, "user", userID, "error", err)
		return err
	}
	incOp("register_participant")
	return nil
}

// IsRegistered reports whether user completed registration for the event.
func IsRegistered(eventID, userID string) (bool, error) {
	if db == nil {
		return false, notOpen()
	}
	_, closer, err := db.Get(participantKey(eventID, userID))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = closer.Close()
	return true, nil
}

// CreateMessage validates and stores a new message, assigning its id,
// timestamps and initial update-log position.
func CreateMessage(eventID string, m models.Message) (models.Message, error) {
	if db == nil {
		return m, notOpen()
	}
	if _, err := GetEvent(eventID); err != nil {
		return m, err
	}
	if strings.TrimSpace(m.Content) == "" {
		return m, fmt.Errorf("%w: content is empty", errs.ErrValidation)
	}
	if m.Type == models.TypeAnnouncement && !moderation.CanPostAnnouncement(m.AuthorRole) {
		return m, fmt.Errorf("%w: only organizers may post announcements", errs.ErrForbidden)
	}
	m.EventID = eventID
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = models.TypeMessage
	}
	if m.ParentID != "" {
		if _, closer, err := db.Get(msgKey(eventID, m.ParentID)); err != nil {
			return m, fmt.Errorf("%w: parent message %s", errs.ErrNotFound, m.ParentID)
		} else {
			_ = closer.Close()
		}
	}
	m.IsPinned = false
	m.IsDeleted = false

	lock := evLocks.get(eventID)
	lock.Lock()
	defer lock.Unlock()

	m.Cursor = clk.next()
	m.CreatedAt = CursorTime(m.Cursor)
	m.UpdatedAt = m.CreatedAt

	data, err := json.Marshal(m)
	if err != nil {
		return m, fmt.Errorf("marshal message: %w", err)
	}
	batch := db.NewBatch()
	_ = batch.Set(msgKey(eventID, m.ID), data, nil)
	_ = batch.Set(updKey(eventID, m.Cursor), []byte(m.ID), nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("save_message_failed", "event", eventID, "id", m.ID, "error", err)
		return m, err
	}
	incOp("create_message")
	logger.Info("message_created", "event", eventID, "id", m.ID, "type", m.Type, "author", m.AuthorID)
	return m, nil
}

// GetMessage returns the current row for a message id within an event.
func GetMessage(eventID, msgID string) (models.Message, error) {
	var m models.Message
	if db == nil {
		return m, notOpen()
	}
	v, closer, err := db.Get(msgKey(eventID, msgID))
	if err != nil {
		return m, fmt.Errorf("%w: message %s", errs.ErrNotFound, msgID)
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &m); err != nil {
		return m, fmt.Errorf("invalid stored message %s: %w", msgID, err)
	}
	return m, nil
}

// mutateMessage performs one atomic read-modify-write on a message row
// under the event lock. When fn reports no change the row and its
// update-log entry stay untouched (no cursor bump, no delta noise);
// otherwise the row is rewritten and its upd entry moved to the new
// cursor in a single batch.
func mutateMessage(eventID, msgID string, fn func(m *models.Message, batch *pebble.Batch) (bool, error)) (models.Message, error) {
	var m models.Message
	if db == nil {
		return m, notOpen()
	}
	lock := evLocks.get(eventID)
	lock.Lock()
	defer lock.Unlock()

	m, err := GetMessage(eventID, msgID)
	if err != nil {
		return m, err
	}
	batch := db.NewBatch()
	changed, err := fn(&m, batch)
	if err != nil {
		_ = batch.Close()
		return m, err
	}
	if !changed {
		_ = batch.Close()
		return m, nil
	}
	oldCursor := m.Cursor
	m.Cursor = clk.next()
	m.UpdatedAt = CursorTime(m.Cursor)
	data, err := json.Marshal(m)
	if err != nil {
		_ = batch.Close()
		return m, fmt.Errorf("marshal message: %w", err)
	}
	_ = batch.Delete(updKey(eventID, oldCursor), nil)
	_ = batch.Set(updKey(eventID, m.Cursor), []byte(m.ID), nil)
	_ = batch.Set(msgKey(eventID, m.ID), data, nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("mutate_message_failed", "event", eventID, "id", msgID, "error", err)
		return m, err
	}
	return m, nil
}

// SoftDeleteMessage masks a message's content behind the deletion
// placeholder. Allowed for the author and the event organizer. Deleting
// an already-deleted message is a no-op success so client retries cause
// no delta noise. The original content moves to an audit-only key and is
// never served again.
func SoftDeleteMessage(eventID, msgID, actorID string) (models.Message, error) {
	ev, err := GetEvent(eventID)
	if err != nil {
		return models.Message{}, err
	}
	m, err := mutateMessage(eventID, msgID, func(m *models.Message, batch *pebble.Batch) (bool, error) {
		if !moderation.CanDelete(actorID, m.AuthorID, ev.OrganizerID) {
			return false, fmt.Errorf("%w: not author or organizer", errs.ErrForbidden)
		}
		if m.IsDeleted {
			return false, nil
		}
		_ = batch.Set(auditContentKey(m.ID), []byte(m.Content), nil)
		m.Content = models.DeletedPlaceholder
		m.IsDeleted = true
		return true, nil
	})
	if err != nil {
		return m, err
	}
	incOp("soft_delete")
	logger.AuditEvent("message_deleted", "event", eventID, "id", msgID, "actor", actorID)
	return m, nil
}

// SetPinned sets a message's pinned flag. Organizer only. Requesting the
// current state is a no-op success without a cursor bump. Pinning remains
// legal on soft-deleted messages; moderation continues to apply after
// deletion.
func SetPinned(eventID, msgID, actorID string, pinned bool) (models.Message, error) {
	ev, err := GetEvent(eventID)
	if err != nil {
		return models.Message{}, err
	}
	m, err := mutateMessage(eventID, msgID, func(m *models.Message, _ *pebble.Batch) (bool, error) {
		if !moderation.CanPin(actorID, ev.OrganizerID) {
			return false, fmt.Errorf("%w: organizer only", errs.ErrForbidden)
		}
		if m.IsPinned == pinned {
			return false, nil
		}
		m.IsPinned = pinned
		return true, nil
	})
	if err != nil {
		return m, err
	}
	incOp("set_pinned")
	logger.AuditEvent("message_pin_changed", "event", eventID, "id", msgID, "actor", actorID, "pinned", pinned)
	return m, nil
}

// TogglePin atomically flips a message's pinned flag. Organizer only.
func TogglePin(eventID, msgID, actorID string) (models.Message, error) {
	ev, err := GetEvent(eventID)
	if err != nil {
		return models.Message{}, err
	}
	m, err := mutateMessage(eventID, msgID, func(m *models.Message, _ *pebble.Batch) (bool, error) {
		if !moderation.CanPin(actorID, ev.OrganizerID) {
			return false, fmt.Errorf("%w: organizer only", errs.ErrForbidden)
		}
		m.IsPinned = !m.IsPinned
		return true, nil
	})
	if err != nil {
		return m, err
	}
	incOp("set_pinned")
	logger.AuditEvent("message_pin_changed", "event", eventID, "id", msgID, "actor", actorID, "pinned", m.IsPinned)
	return m, nil
}

// ToggleReaction adds the (user, emoji) pair if absent and removes it if
// present. Always bumps the message cursor. Reacting to a soft-deleted
// message is permitted; deletion only masks content, and reaction history
// stays intact for organizers.
func ToggleReaction(eventID, msgID, userID, emoji string) (bool, models.Message, error) {
	var added bool
	m, err := mutateMessage(eventID, msgID, func(m *models.Message, _ *pebble.Batch) (bool, error) {
		kept := m.Reactions[:0:0]
		for _, r := range m.Reactions {
			if r.UserID == userID && r.Emoji == emoji {
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == len(m.Reactions) {
			kept = append(kept, models.Reaction{UserID: userID, Emoji: emoji})
			added = true
		}
		m.Reactions = kept
		return true, nil
	})
	if err != nil {
		return false, m, err
	}
	incOp("toggle_reaction")
	logger.Debug("reaction_toggled", "event", eventID, "id", msgID, "user", userID, "emoji", emoji, "added", added)
	return added, m, nil
}

// ListSince returns every message of the event whose cursor is strictly
// greater than since (all messages when since is empty), ordered by
// cursor ascending, plus the serverTime cursor the client should poll
// with next.
//
// serverTime is drawn from the clock while holding the event's mutation
// lock, before the read iterator opens. A mutation holding the lock has
// already committed when we acquire it, and any later mutation draws a
// strictly larger cursor, so a write invisible to this read can never
// sort at or below the returned serverTime. Redelivery of writes that
// land between the clock read and the iterator is possible and harmless;
// the client merge is idempotent.
func ListSince(eventID, since string) ([]models.Message, string, error) {
	if db == nil {
		return nil, "", notOpen()
	}
	if _, err := GetEvent(eventID); err != nil {
		return nil, "", err
	}
	if since != "" && !ValidCursor(since) {
		return nil, "", fmt.Errorf("%w: malformed cursor %q", errs.ErrValidation, since)
	}

	lock := evLocks.get(eventID)
	lock.Lock()
	serverTime := clk.next()
	lock.Unlock()

	prefix := []byte("event:" + eventID + ":upd:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, "", err
	}
	defer iter.Close()

	start := prefix
	if since != "" {
		start = updKey(eventID, since)
	}
	var out []models.Message
	for iter.SeekGE(start); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if since != "" && bytes.Equal(iter.Key(), start) {
			continue
		}
		id := string(iter.Value())
		m, err := GetMessage(eventID, id)
		if err != nil {
			// index entry without a row should not happen; skip but record
			logger.Error("update_index_dangling", "event", eventID, "id", id, "error", err)
			continue
		}
		out = append(out, m)
	}
	if err := iter.Error(); err != nil {
		return nil, "", err
	}
	incOp("list_since")
	logger.Debug("messages_since", "event", eventID, "since", since, "count", len(out), "server_time", serverTime)
	return out, serverTime, nil
}

// Stats is a compact census of the store, used by the maintenance job
// and the admin surface.
type Stats struct {
	Events   int `json:"events"`
	Messages int `json:"messages"`
}

// Census walks the keyspace and counts events and messages.
func Census() (Stats, error) {
	var s Stats
	if db == nil {
		return s, notOpen()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return s, err
	}
	defer iter.Close()
	prefix := []byte("event:")
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := string(iter.Key())
		switch {
		case strings.HasSuffix(k, ":meta"):
			s.Events++
		case strings.Contains(k, ":msg:"):
			s.Messages++
		}
	}
	return s, iter.Error()
}
