package validation

import (
	"fmt"
	"strings"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

// Policy carries the configurable validation limits. Zero values fall
// back to the defaults below.
type Policy struct {
	MaxContentLen int
	Emojis        []string
}

const defaultMaxContentLen = 4000

// DefaultEmojis is the fixed reaction catalog served when the config
// does not override it.
var DefaultEmojis = []string{"👍", "❤️", "😂", "😮", "🎉"}

var policy = Policy{}

// SetPolicy installs the active validation policy. Called once during
// startup; tests may call it to tighten limits.
func SetPolicy(p Policy) { policy = p }

func maxContentLen() int {
	if policy.MaxContentLen > 0 {
		return policy.MaxContentLen
	}
	return defaultMaxContentLen
}

func emojiCatalog() []string {
	if len(policy.Emojis) > 0 {
		return policy.Emojis
	}
	return DefaultEmojis
}

// ValidatePost checks a message create request before it reaches the
// store. Authorization (announcement gating) is the store's concern, not
// validation's.
func ValidatePost(content, msgType string) error {
	var errors []string
	if strings.TrimSpace(content) == "" {
		errors = append(errors, "content is empty")
	}
	if len(content) > maxContentLen() {
		errors = append(errors, fmt.Sprintf("content exceeds %d characters", maxContentLen()))
	}
	switch msgType {
	case "", models.TypeMessage, models.TypeQuestion, models.TypeAnnouncement:
	default:
		errors = append(errors, fmt.Sprintf("unknown message type %q", msgType))
	}
	if len(errors) > 0 {
		return fmt.Errorf("%w: %s", errs.ErrValidation, strings.Join(errors, "; "))
	}
	return nil
}

// ValidateEmoji checks that emoji is in the configured catalog.
func ValidateEmoji(emoji string) error {
	for _, e := range emojiCatalog() {
		if e == emoji {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported emoji %q", errs.ErrValidation, emoji)
}

// ValidateRole checks a caller-declared author role.
func ValidateRole(role string) error {
	switch role {
	case models.RoleParticipant, models.RoleOrganizer:
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}
}
