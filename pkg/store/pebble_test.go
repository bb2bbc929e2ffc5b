package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	require.NoError(t, Open(t.TempDir()))
	t.Cleanup(func() { _ = Close() })
}

func mkEvent(t *testing.T, organizer string) models.EventMeta {
	t.Helper()
	ev, err := CreateEvent(models.EventMeta{Title: "GoConf", OrganizerID: organizer})
	require.NoError(t, err)
	return ev
}

func mkMessage(t *testing.T, eventID, author, content string) models.Message {
	t.Helper()
	m, err := CreateMessage(eventID, models.Message{
		AuthorID:   author,
		AuthorName: "user " + author,
		AuthorRole: models.RoleParticipant,
		Type:       models.TypeMessage,
		Content:    content,
	})
	require.NoError(t, err)
	return m
}

func TestCreateEventAndRegistration(t *testing.T) {
	openTestStore(t)

	_, err := CreateEvent(models.EventMeta{Title: "no organizer"})
	require.ErrorIs(t, err, errs.ErrValidation)

	ev := mkEvent(t, "org1")
	got, err := GetEvent(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "org1", got.OrganizerID)

	reg, err := IsRegistered(ev.ID, "u1")
	require.NoError(t, err)
	assert.False(t, reg)

	require.NoError(t, RegisterParticipant(ev.ID, "u1"))
	// re-registering is idempotent
	require.NoError(t, RegisterParticipant(ev.ID, "u1"))
	reg, err = IsRegistered(ev.ID, "u1")
	require.NoError(t, err)
	assert.True(t, reg)

	err = RegisterParticipant("no-such-event", "u1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateMessageValidation(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")

	_, err := CreateMessage(ev.ID, models.Message{AuthorID: "u1", Content: "   "})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = CreateMessage(ev.ID, models.Message{
		AuthorID: "u1", AuthorRole: models.RoleParticipant,
		Type: models.TypeAnnouncement, Content: "not allowed",
	})
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = CreateMessage(ev.ID, models.Message{
		AuthorID: "org1", AuthorRole: models.RoleOrganizer,
		Type: models.TypeAnnouncement, Content: "doors open at 9",
	})
	require.NoError(t, err)

	_, err = CreateMessage(ev.ID, models.Message{
		AuthorID: "u1", Content: "reply", ParentID: "missing",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = CreateMessage("no-such-event", models.Message{AuthorID: "u1", Content: "hi"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	parent := mkMessage(t, ev.ID, "u1", "anyone going?")
	child, err := CreateMessage(ev.ID, models.Message{AuthorID: "u2", Content: "yes", ParentID: parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, child.ParentID)
	assert.Greater(t, child.Cursor, parent.Cursor)
}

func TestSoftDeleteIdempotentAndTerminal(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")
	m := mkMessage(t, ev.ID, "u1", "rude remark")

	// stranger may not delete
	_, err := SoftDeleteMessage(ev.ID, m.ID, "u2")
	require.ErrorIs(t, err, errs.ErrForbidden)

	del, err := SoftDeleteMessage(ev.ID, m.ID, "org1")
	require.NoError(t, err)
	assert.True(t, del.IsDeleted)
	assert.Equal(t, models.DeletedPlaceholder, del.Content)
	assert.Greater(t, del.Cursor, m.Cursor)

	// repeat delete is a no-op success with no cursor bump
	again, err := SoftDeleteMessage(ev.ID, m.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, del.Cursor, again.Cursor)
	assert.Equal(t, models.DeletedPlaceholder, again.Content)

	// deletion is terminal: the stored row never serves content again
	got, err := GetMessage(ev.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeletedPlaceholder, got.Content)
	assert.True(t, got.IsDeleted)
}

func TestPinNoopAndTogglePair(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")
	m := mkMessage(t, ev.ID, "u1", "important")

	_, err := SetPinned(ev.ID, m.ID, "u1", true)
	require.ErrorIs(t, err, errs.ErrForbidden)

	pinned, err := SetPinned(ev.ID, m.ID, "org1", true)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
	assert.Greater(t, pinned.Cursor, m.Cursor)

	// requesting the current state bumps nothing
	same, err := SetPinned(ev.ID, m.ID, "org1", true)
	require.NoError(t, err)
	assert.Equal(t, pinned.Cursor, same.Cursor)

	// a toggle pair restores the original flag, with two cursor bumps
	off, err := TogglePin(ev.ID, m.ID, "org1")
	require.NoError(t, err)
	assert.False(t, off.IsPinned)
	assert.Greater(t, off.Cursor, pinned.Cursor)
	on, err := TogglePin(ev.ID, m.ID, "org1")
	require.NoError(t, err)
	assert.True(t, on.IsPinned)
	assert.Greater(t, on.Cursor, off.Cursor)
}

func TestToggleReactionPairRestoresState(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")
	m := mkMessage(t, ev.ID, "u1", "great talk")

	added, r1, err := ToggleReaction(ev.ID, m.ID, "u2", "👍")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, r1.HasReaction("u2", "👍"))
	assert.Greater(t, r1.Cursor, m.Cursor)

	added, r2, err := ToggleReaction(ev.ID, m.ID, "u2", "👍")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, r2.HasReaction("u2", "👍"))
	assert.Len(t, r2.Reactions, 0)
	// both legs bump the cursor so every observer converges
	assert.Greater(t, r2.Cursor, r1.Cursor)

	// reacting to a deleted message stays legal
	_, err = SoftDeleteMessage(ev.ID, m.ID, "u1")
	require.NoError(t, err)
	added, r3, err := ToggleReaction(ev.ID, m.ID, "u3", "❤️")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, r3.IsDeleted)
}

func TestListSinceDelta(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")
	m1 := mkMessage(t, ev.ID, "u1", "first")
	m2 := mkMessage(t, ev.ID, "u2", "second")
	m3 := mkMessage(t, ev.ID, "u1", "third")

	all, serverTime, err := ListSince(ev.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{m1.ID, m2.ID, m3.ID}, ids(all))
	assert.Greater(t, serverTime, m3.Cursor)

	// cursor poll returns only strictly newer changes
	delta, next, err := ListSince(ev.ID, m2.Cursor)
	require.NoError(t, err)
	require.Len(t, delta, 1)
	assert.Equal(t, m3.ID, delta[0].ID)
	assert.Greater(t, next, serverTime)

	// nothing changed: empty delta, cursor still advances
	empty, next2, err := ListSince(ev.ID, next)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Greater(t, next2, next)

	// a mutation re-delivers the message exactly once, after the cursor
	_, err = SetPinned(ev.ID, m1.ID, "org1", true)
	require.NoError(t, err)
	delta, _, err = ListSince(ev.ID, next2)
	require.NoError(t, err)
	require.Len(t, delta, 1)
	assert.Equal(t, m1.ID, delta[0].ID)
	assert.True(t, delta[0].IsPinned)

	_, _, err = ListSince(ev.ID, "garbage")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, _, err = ListSince("no-such-event", "")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestConcurrentWritersKeepCursorsUnique(t *testing.T) {
	openTestStore(t)
	ev := mkEvent(t, "org1")

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := CreateMessage(ev.ID, models.Message{
				AuthorID: fmt.Sprintf("u%d", i%5),
				Content:  fmt.Sprintf("message %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, _, err := ListSince(ev.ID, "")
	require.NoError(t, err)
	require.Len(t, all, n)
	seen := map[string]bool{}
	for i, m := range all {
		require.True(t, ValidCursor(m.Cursor))
		require.False(t, seen[m.Cursor], "duplicate cursor %s", m.Cursor)
		seen[m.Cursor] = true
		if i > 0 {
			assert.Greater(t, m.Cursor, all[i-1].Cursor)
		}
	}

	stats, err := Census()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, n, stats.Messages)
}

func TestNotOpenErrors(t *testing.T) {
	require.NoError(t, Close())
	_, err := GetEvent("e")
	require.Error(t, err)
	assert.False(t, Ready())
	assert.False(t, errors.Is(err, errs.ErrNotFound))
}

func ids(ms []models.Message) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}
