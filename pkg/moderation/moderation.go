// Package moderation holds the pure authorization predicates for forum
// actions. The same predicates back the API's authorization checks and
// any client-side affordance hiding; keeping one source of truth avoids
// UI/authorization drift.
package moderation

import "github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"

// CanPostAnnouncement reports whether an author role may post a message
// of type announcement.
func CanPostAnnouncement(role string) bool {
	return role == models.RoleOrganizer
}

// CanDelete reports whether actor may soft-delete a message: the author
// themselves, or the organizer of the owning event.
func CanDelete(actorID, authorID, eventOrganizerID string) bool {
	return actorID == authorID || actorID == eventOrganizerID
}

// CanPin reports whether actor may pin or unpin messages in the event.
func CanPin(actorID, eventOrganizerID string) bool {
	return actorID == eventOrganizerID
}

// CanAccessForum reports whether a caller may read and post in an event
// forum. Access is binary and per-event: participants need a completed
// registration record, organizers need to own the event. Registration
// success and forum access are dependent but separately checked facts;
// callers must re-derive access after any registration state change.
func CanAccessForum(role string, isRegisteredParticipant, isEventOrganizer bool) bool {
	switch role {
	case models.RoleParticipant:
		return isRegisteredParticipant
	case models.RoleOrganizer:
		return isEventOrganizer
	default:
		return false
	}
}
