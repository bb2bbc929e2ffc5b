package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeReactions(t *testing.T) {
	m := Message{Reactions: []Reaction{
		{UserID: "u1", Emoji: "👍"},
		{UserID: "u2", Emoji: "❤️"},
		{UserID: "u2", Emoji: "👍"},
		{UserID: "u3", Emoji: "👍"},
	}}

	got := SummarizeReactions(m, "u2")
	// first-seen emoji order, counts aggregated
	assert.Equal(t, []ReactionSummary{
		{Emoji: "👍", Count: 3, Reacted: true},
		{Emoji: "❤️", Count: 1, Reacted: true},
	}, got)

	got = SummarizeReactions(m, "u1")
	assert.True(t, got[0].Reacted)
	assert.False(t, got[1].Reacted)

	assert.Empty(t, SummarizeReactions(Message{}, "u1"))
}

func TestHasReaction(t *testing.T) {
	m := Message{Reactions: []Reaction{{UserID: "u1", Emoji: "👍"}}}
	assert.True(t, m.HasReaction("u1", "👍"))
	assert.False(t, m.HasReaction("u1", "❤️"))
	assert.False(t, m.HasReaction("u2", "👍"))
}
