package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/internal/testutil"
	"github.com/intrntsrfr/pookie/utils"
	"github.com/stretchr/testify/assert"
)

func TestNotify(t *testing.T) {
	tests := []struct {
		name      string
		user      *discordgo.User
		err       error
		delivered bool
		reason    string
	}{
		{"delivered", &discordgo.User{ID: "1"}, nil, true, ""},
		{"nil user", nil, nil, false, "unknown user"},
		{"bot", &discordgo.User{ID: "1", Bot: true}, nil, false, "bots cannot receive direct messages"},
		{"dms closed", &discordgo.User{ID: "1"}, testutil.CannotDM(), false, "the user has direct messages disabled"},
		{"other failure", &discordgo.User{ID: "1"}, errors.New("timeout"), false, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewFakePlatform()
			if tt.err != nil {
				p.Fail("SendDirectMessage", tt.err)
			}

			res := command.Notify(context.Background(), p, tt.user, utils.WarningEmbed("You were warned."))
			assert.Equal(t, tt.delivered, res.Delivered)
			assert.Equal(t, !tt.delivered, res.Suppressed())
			assert.Equal(t, tt.reason, res.Reason)
			if tt.delivered {
				assert.Len(t, p.DMs, 1)
			} else {
				assert.Empty(t, p.DMs)
			}
		})
	}
}
