package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ command.Platform = (*Discord)(nil)

func TestNewDiscord(t *testing.T) {
	d, err := NewDiscord("token", 3, logger.Nop())
	require.NoError(t, err)
	require.Len(t, d.Sessions(), 3)

	for i, s := range d.Sessions() {
		assert.Equal(t, i, s.ShardID)
		assert.Equal(t, 3, s.ShardCount)
		assert.True(t, s.State.TrackVoice)
		assert.NotZero(t, s.Identify.Intents&discordgo.IntentGuildMembers)
		assert.NotZero(t, s.Identify.Intents&discordgo.IntentMessageContent)
	}
	assert.Same(t, d.Sessions()[0], d.Sess)
	assert.Zero(t, d.GuildCount())
}

func TestShardFor(t *testing.T) {
	tests := []struct {
		guildID string
		shards  int
		want    int
	}{
		{"41771983423143937", 1, 0},
		{"41771983423143937", 2, 0},
		{"41771983423143937", 4, 2},
		{"81384788765712384", 2, 0},
		{"not a snowflake", 4, 0},
		{"41771983423143937", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.guildID, func(t *testing.T) {
			assert.Equal(t, tt.want, shardFor(tt.guildID, tt.shards))
		})
	}
}
