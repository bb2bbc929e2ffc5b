package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/auth"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/moderation"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/store"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/utils"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/validation"
)

// RegisterForum registers the forum HTTP handlers.
func RegisterForum(r *mux.Router) {
	r.HandleFunc("/forum", createForum).Methods(http.MethodPost)
	r.HandleFunc("/forum/{eventId}/meta", getForumMeta).Methods(http.MethodGet)
	r.HandleFunc("/forum/{eventId}/participants", registerParticipant).Methods(http.MethodPost)

	r.HandleFunc("/forum/{eventId}", pollMessages).Methods(http.MethodGet)
	r.HandleFunc("/forum/{eventId}", postMessage).Methods(http.MethodPost)
	r.HandleFunc("/forum/{eventId}/messages/{messageId}", deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/forum/{eventId}/messages/{messageId}/pin", pinMessage).Methods(http.MethodPatch)
	r.HandleFunc("/forum/{eventId}/messages/{messageId}/react", reactMessage).Methods(http.MethodPost)
}

func writeErr(w http.ResponseWriter, err error) {
	utils.JSONError(w, errs.HTTPStatus(err), err.Error())
}

// forumAccess enforces the per-event access predicate for the caller.
// Registration is re-derived on every request; access is never cached.
func forumAccess(eventID string, id auth.Identity) error {
	ev, err := store.GetEvent(eventID)
	if err != nil {
		return err
	}
	registered := false
	if id.Role == models.RoleParticipant {
		registered, err = store.IsRegistered(eventID, id.ID)
		if err != nil {
			return err
		}
	}
	if !moderation.CanAccessForum(id.Role, registered, ev.OrganizerID == id.ID) {
		return fmt.Errorf("%w: no forum access for event %s", errs.ErrForbidden, eventID)
	}
	return nil
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "missing user identity")
		return auth.Identity{}, false
	}
	return id, true
}

func requireBackendRole(w http.ResponseWriter, r *http.Request) bool {
	role := r.Header.Get("X-Role-Name")
	if role != "backend" && role != "admin" {
		utils.JSONError(w, http.StatusForbidden, "backend key required")
		return false
	}
	return true
}

// --- forum lifecycle (portal backend surface) ---

func createForum(w http.ResponseWriter, r *http.Request) {
	if !requireBackendRole(w, r) {
		return
	}
	var ev models.EventMeta
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ev, err := store.CreateEvent(ev)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, ev)
}

func getForumMeta(w http.ResponseWriter, r *http.Request) {
	ev, err := store.GetEvent(mux.Vars(r)["eventId"])
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, ev)
}

func registerParticipant(w http.ResponseWriter, r *http.Request) {
	if !requireBackendRole(w, r) {
		return
	}
	eventID := mux.Vars(r)["eventId"]
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing userId")
		return
	}
	if err := store.RegisterParticipant(eventID, payload.UserID); err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"eventId": eventID, "userId": payload.UserID})
}

// --- sync cursor protocol ---

// DeltaResponse is one sync batch: every message whose state changed
// after the request cursor, plus the cursor for the next poll.
type DeltaResponse struct {
	Messages   []models.Message `json:"messages"`
	ServerTime string           `json:"serverTime"`
}

func pollMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	eventID := mux.Vars(r)["eventId"]
	if err := forumAccess(eventID, id); err != nil {
		writeErr(w, err)
		return
	}
	since := r.URL.Query().Get("since")
	msgs, serverTime, err := store.ListSince(eventID, since)
	if err != nil {
		writeErr(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, DeltaResponse{Messages: msgs, ServerTime: serverTime})
}

// --- mutations ---

type postMessageRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	ParentID string `json:"parentId,omitempty"`
}

func postMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	eventID := mux.Vars(r)["eventId"]
	if err := forumAccess(eventID, id); err != nil {
		writeErr(w, err)
		return
	}
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidatePost(req.Content, req.Type); err != nil {
		writeErr(w, err)
		return
	}
	m, err := store.CreateMessage(eventID, models.Message{
		AuthorID:   id.ID,
		AuthorName: id.Name,
		AuthorRole: id.Role,
		Type:       req.Type,
		Content:    req.Content,
		ParentID:   req.ParentID,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, m)
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	m, err := store.SoftDeleteMessage(vars["eventId"], vars["messageId"], id.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, m)
}

func pinMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	eventID, msgID := vars["eventId"], vars["messageId"]

	// optional body selects an explicit state; no body toggles
	var payload struct {
		Pinned *bool `json:"pinned"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	var (
		m   models.Message
		err error
	)
	if payload.Pinned != nil {
		m, err = store.SetPinned(eventID, msgID, id.ID, *payload.Pinned)
	} else {
		m, err = store.TogglePin(eventID, msgID, id.ID)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, m)
}

func reactMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	eventID, msgID := vars["eventId"], vars["messageId"]
	if err := forumAccess(eventID, id); err != nil {
		writeErr(w, err)
		return
	}
	var payload struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateEmoji(payload.Emoji); err != nil {
		writeErr(w, err)
		return
	}
	added, m, err := store.ToggleReaction(eventID, msgID, id.ID, payload.Emoji)
	if err != nil {
		writeErr(w, err)
		return
	}
	logger.Debug("reaction_handled", "event", eventID, "id", msgID, "added", added)
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Reactions []models.ReactionSummary `json:"reactions"`
	}{Reactions: models.SummarizeReactions(m, id.ID)})
}
