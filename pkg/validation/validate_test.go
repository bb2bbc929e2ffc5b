package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/errs"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

func TestValidatePost(t *testing.T) {
	assert.NoError(t, ValidatePost("hello", models.TypeMessage))
	assert.NoError(t, ValidatePost("hello", ""))

	err := ValidatePost("   ", models.TypeMessage)
	require.ErrorIs(t, err, errs.ErrValidation)

	err = ValidatePost(strings.Repeat("x", defaultMaxContentLen+1), models.TypeMessage)
	require.ErrorIs(t, err, errs.ErrValidation)

	err = ValidatePost("hello", "poll")
	require.ErrorIs(t, err, errs.ErrValidation)

	// multiple problems report in one error
	err = ValidatePost("", "poll")
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "content is empty")
	assert.Contains(t, err.Error(), "unknown message type")
}

func TestValidateEmojiHonorsPolicy(t *testing.T) {
	t.Cleanup(func() { SetPolicy(Policy{}) })

	assert.NoError(t, ValidateEmoji("👍"))
	assert.ErrorIs(t, ValidateEmoji("🦄"), errs.ErrValidation)
	assert.ErrorIs(t, ValidateEmoji(""), errs.ErrValidation)

	SetPolicy(Policy{Emojis: []string{"🦄"}})
	assert.NoError(t, ValidateEmoji("🦄"))
	assert.ErrorIs(t, ValidateEmoji("👍"), errs.ErrValidation)
}

func TestValidateContentLengthHonorsPolicy(t *testing.T) {
	t.Cleanup(func() { SetPolicy(Policy{}) })
	SetPolicy(Policy{MaxContentLen: 5})
	assert.NoError(t, ValidatePost("12345", ""))
	assert.ErrorIs(t, ValidatePost("123456", ""), errs.ErrValidation)
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole(models.RoleParticipant))
	assert.NoError(t, ValidateRole(models.RoleOrganizer))
	assert.ErrorIs(t, ValidateRole("admin"), errs.ErrValidation)
	assert.ErrorIs(t, ValidateRole(""), errs.ErrValidation)
}
