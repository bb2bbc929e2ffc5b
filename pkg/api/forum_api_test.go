package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/api"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/auth"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/client"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/store"
)

const (
	backendKey  = "bk-test-key"
	frontendKey = "fk-test-key"
	signingKey  = "sk-test-secret"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	require.NoError(t, store.Open(t.TempDir()))
	t.Cleanup(func() { _ = store.Close() })
	sec := auth.SecConfig{
		BackendKeys:  map[string]struct{}{backendKey: {}},
		FrontendKeys: map[string]struct{}{frontendKey: {}},
		AdminKeys:    map[string]struct{}{},
		SigningKeys:  map[string]struct{}{signingKey: {}},
	}
	srv := httptest.NewServer(api.Handler(sec))
	t.Cleanup(srv.Close)
	return srv
}

// backendDo issues a portal-backend request with the backend API key.
func backendDo(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", backendKey)
	req.Header.Set("X-User-ID", "portal-backend")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func userClient(srv *httptest.Server, id, name, role string) *client.Client {
	return &client.Client{
		BaseURL:    srv.URL,
		APIKey:     frontendKey,
		UserID:     id,
		UserName:   name,
		UserRole:   role,
		SigningKey: signingKey,
		HTTPClient: srv.Client(),
	}
}

// setupForum creates an event forum with one organizer and registers the
// given participants.
func setupForum(t *testing.T, srv *httptest.Server, eventID string, participants ...string) {
	t.Helper()
	resp := backendDo(t, srv, http.MethodPost, "/v1/forum", map[string]string{
		"id": eventID, "title": "GopherCon", "organizerId": "org1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	for _, p := range participants {
		resp := backendDo(t, srv, http.MethodPost, "/v1/forum/"+eventID+"/participants", map[string]string{"userId": p})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/v1/forum/ev1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForgedSignatureRejected(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice")
	c := userClient(srv, "alice", "Alice", models.RoleParticipant)
	c.SigningKey = "wrong-secret"
	_, err := c.Poll(context.Background(), "ev1", "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestPostThenPollRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice", "bob")
	ctx := context.Background()
	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	bob := userClient(srv, "bob", "Bob", models.RoleParticipant)

	posted, err := alice.Post(ctx, "ev1", client.PostRequest{Content: "hello room", Type: models.TypeQuestion})
	require.NoError(t, err)
	assert.Equal(t, "alice", posted.AuthorID)
	assert.Equal(t, "Alice", posted.AuthorName)
	assert.Equal(t, models.TypeQuestion, posted.Type)
	require.NotEmpty(t, posted.Cursor)

	d, err := bob.Poll(ctx, "ev1", "")
	require.NoError(t, err)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, posted.ID, d.Messages[0].ID)
	assert.Greater(t, d.ServerTime, posted.Cursor)

	// resuming from the returned cursor yields an empty delta
	d2, err := bob.Poll(ctx, "ev1", d.ServerTime)
	require.NoError(t, err)
	assert.Empty(t, d2.Messages)
	assert.NotNil(t, d2.Messages, "messages must be [] not null")
}

func TestUnregisteredParticipantForbidden(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice")
	ctx := context.Background()

	mallory := userClient(srv, "mallory", "Mallory", models.RoleParticipant)
	_, err := mallory.Poll(ctx, "ev1", "")
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = mallory.Post(ctx, "ev1", client.PostRequest{Content: "let me in"})
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = mallory.Poll(ctx, "no-such-event", "")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAnnouncementAuthority(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice")
	ctx := context.Background()

	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	_, err := alice.Post(ctx, "ev1", client.PostRequest{Content: "free pizza", Type: models.TypeAnnouncement})
	require.ErrorIs(t, err, errs.ErrForbidden)

	org := userClient(srv, "org1", "Organizer", models.RoleOrganizer)
	m, err := org.Post(ctx, "ev1", client.PostRequest{Content: "doors open at 9", Type: models.TypeAnnouncement})
	require.NoError(t, err)
	assert.Equal(t, models.TypeAnnouncement, m.Type)
	assert.Equal(t, models.RoleOrganizer, m.AuthorRole)
}

func TestModerationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice", "bob")
	ctx := context.Background()
	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	bob := userClient(srv, "bob", "Bob", models.RoleParticipant)
	org := userClient(srv, "org1", "Organizer", models.RoleOrganizer)

	m, err := alice.Post(ctx, "ev1", client.PostRequest{Content: "spoilers ahead"})
	require.NoError(t, err)

	// another participant may neither delete nor pin
	_, err = bob.Delete(ctx, "ev1", m.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = bob.TogglePin(ctx, "ev1", m.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	pinned, err := org.TogglePin(ctx, "ev1", m.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	deleted, err := org.Delete(ctx, "ev1", m.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, models.DeletedPlaceholder, deleted.Content)
	assert.True(t, deleted.IsPinned, "deletion keeps the pin")

	// the author deleting again is an idempotent success
	again, err := alice.Delete(ctx, "ev1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, deleted.Cursor, again.Cursor)
}

func TestReactionsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice", "bob")
	ctx := context.Background()
	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	bob := userClient(srv, "bob", "Bob", models.RoleParticipant)

	m, err := alice.Post(ctx, "ev1", client.PostRequest{Content: "great talk"})
	require.NoError(t, err)

	_, err = bob.React(ctx, "ev1", m.ID, "🦄")
	require.ErrorIs(t, err, errs.ErrValidation)

	sum, err := bob.React(ctx, "ev1", m.ID, "👍")
	require.NoError(t, err)
	require.Len(t, sum, 1)
	assert.Equal(t, "👍", sum[0].Emoji)
	assert.Equal(t, 1, sum[0].Count)
	assert.True(t, sum[0].Reacted)

	// same user, same emoji: the toggle removes it
	sum, err = bob.React(ctx, "ev1", m.ID, "👍")
	require.NoError(t, err)
	assert.Empty(t, sum)

	// summaries are per caller
	_, err = bob.React(ctx, "ev1", m.ID, "👍")
	require.NoError(t, err)
	sum, err = alice.React(ctx, "ev1", m.ID, "❤️")
	require.NoError(t, err)
	require.Len(t, sum, 2)
	for _, s := range sum {
		switch s.Emoji {
		case "👍":
			assert.False(t, s.Reacted)
		case "❤️":
			assert.True(t, s.Reacted)
		}
	}
}

// TestTwoClientsConverge drives two reconciling views against the same
// forum and checks both arrive at the same ordered state.
func TestTwoClientsConverge(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1", "alice", "bob")
	ctx := context.Background()
	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	bob := userClient(srv, "bob", "Bob", models.RoleParticipant)
	org := userClient(srv, "org1", "Organizer", models.RoleOrganizer)

	viewA := client.NewView()
	viewB := client.NewView()
	pollInto := func(c *client.Client, v *client.View) {
		d, err := c.Poll(ctx, "ev1", v.Cursor())
		require.NoError(t, err)
		v.Apply(d)
	}

	m1, err := alice.Post(ctx, "ev1", client.PostRequest{Content: "first"})
	require.NoError(t, err)
	pollInto(alice, viewA)

	m2, err := bob.Post(ctx, "ev1", client.PostRequest{Content: "second"})
	require.NoError(t, err)
	pollInto(bob, viewB)
	pollInto(alice, viewA)

	// incremental polls deliver only what each view is missing
	require.Equal(t, 2, viewA.Len())
	require.Equal(t, 2, viewB.Len())

	// organizer pins the second message; both clients re-poll and agree
	_, err = org.TogglePin(ctx, "ev1", m2.ID)
	require.NoError(t, err)
	pollInto(alice, viewA)
	pollInto(bob, viewB)

	wantOrder := []string{m2.ID, m1.ID}
	gotA := []string{}
	for _, m := range viewA.Messages() {
		gotA = append(gotA, m.ID)
	}
	gotB := []string{}
	for _, m := range viewB.Messages() {
		gotB = append(gotB, m.ID)
	}
	assert.Equal(t, wantOrder, gotA)
	assert.Equal(t, wantOrder, gotB)
	assert.Equal(t, viewA.Messages(), viewB.Messages())
}

func TestBackendSurfaceRequiresBackendKey(t *testing.T) {
	srv := newTestServer(t)
	setupForum(t, srv, "ev1")
	ctx := context.Background()

	// frontend callers cannot reach the lifecycle endpoints
	alice := userClient(srv, "alice", "Alice", models.RoleParticipant)
	body, _ := json.Marshal(map[string]string{"id": "ev2", "organizerId": "org9"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/v1/forum", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", alice.APIKey)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", auth.SignUserID(signingKey, "alice"))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// missing organizer id is rejected
	resp2 := backendDo(t, srv, http.MethodPost, "/v1/forum", map[string]string{"id": "ev3"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	// meta endpoint serves stored metadata
	resp3 := backendDo(t, srv, http.MethodGet, "/v1/forum/ev1/meta", nil)
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	var ev models.EventMeta
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&ev))
	assert.Equal(t, "org1", ev.OrganizerID)
}

func TestHealthzBypassesAuth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
