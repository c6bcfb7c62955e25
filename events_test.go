package pookie

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/config"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/internal/testutil"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	member  = "3002"
	vcRole  = "2001"
	voiceID = "1010"
)

func setup(t *testing.T) (*Bot, *testutil.FakePlatform, *database.JsonDB) {
	t.Helper()
	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)

	p := testutil.NewFakePlatform()
	testutil.NewGuild(p)
	p.AddMember(testutil.GuildID, &discordgo.User{ID: member, Username: "user" + member, Discriminator: "0"})

	cfg := &config.Config{OwnerID: testutil.OwnerID, DefaultPrefix: "!", Database: config.Database{Driver: config.DriverJSON}}
	b := newBot(cfg, logger.Nop(), db, p)
	t.Cleanup(b.Close)
	return b, p, db
}

func setRoles(t *testing.T, db database.DB, fn func(gc *database.GuildConfig)) {
	t.Helper()
	_, err := database.UpdateGuildConfig(context.Background(), db, testutil.GuildID, "!", func(gc *database.GuildConfig) error {
		fn(gc)
		return nil
	})
	require.NoError(t, err)
}

func TestNewBot_RegistersEveryCommand(t *testing.T) {
	b, _, _ := setup(t)
	for _, name := range []string{"setprefix", "ban", "roleall", "help", "blacklist"} {
		_, ok := b.services.Registry.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestReadyHandler(t *testing.T) {
	b, p, _ := setup(t)
	readyHandler(b)(nil, &discordgo.Ready{User: p.Bot})

	calls := p.CallsTo("SetStatus")
	require.Len(t, calls, 1)
	assert.Equal(t, "for commands | !help", calls[0].Value)
}

func TestGuildCreateHandler(t *testing.T) {
	b, p, db := setup(t)
	g := &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "1500", Name: "new guild", OwnerID: member}}

	guildCreateHandler(b)(nil, g)
	gc, err := db.GetGuildConfig(context.Background(), "1500")
	require.NoError(t, err)
	assert.Equal(t, "!", gc.Prefix)
	require.Len(t, p.DMs, 1)
	assert.Equal(t, member, p.DMs[0].ChannelID)
	assert.Equal(t, "Thanks for adding Pookie", p.DMs[0].Message.Embeds[0].Title)
	for _, name := range []string{"help", "setprefix", "setauditlogchannel"} {
		assert.Contains(t, p.DMs[0].Message.Embeds[0].Description, "`!"+name+"`")
		_, ok := b.services.Registry.Lookup(name)
		assert.True(t, ok, "welcome message points at a registered command: %v", name)
	}

	// reconnects deliver GuildCreate again
	guildCreateHandler(b)(nil, g)
	assert.Len(t, p.DMs, 1)
}

func TestGuildMemberAddHandler(t *testing.T) {
	tests := []struct {
		name     string
		setting  database.RoleSetting
		user     *discordgo.User
		wantRole bool
		wantDM   bool
	}{
		{"auto role", database.RoleSetting{RoleID: "2001", Enabled: true}, &discordgo.User{ID: "3100", Username: "new"}, true, true},
		{"disabled", database.RoleSetting{RoleID: "2001"}, &discordgo.User{ID: "3100", Username: "new"}, false, true},
		{"deleted role", database.RoleSetting{RoleID: "2999", Enabled: true}, &discordgo.User{ID: "3100", Username: "new"}, false, true},
		{"bot", database.RoleSetting{RoleID: "2001", Enabled: true}, &discordgo.User{ID: "3101", Username: "robot", Bot: true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, p, db := setup(t)
			setRoles(t, db, func(gc *database.GuildConfig) { gc.AutoRole = tt.setting })

			m := p.AddMember(testutil.GuildID, tt.user)
			guildMemberAddHandler(b)(nil, &discordgo.GuildMemberAdd{Member: m})

			calls := p.CallsTo("AddRole")
			if tt.wantRole {
				require.Len(t, calls, 1)
				assert.Equal(t, tt.user.ID, calls[0].TargetID)
				assert.Equal(t, "2001", calls[0].Value)
			} else {
				assert.Empty(t, calls)
			}
			if tt.wantDM {
				require.Len(t, p.DMs, 1)
				assert.Equal(t, "Welcome to test guild!", p.DMs[0].Message.Embeds[0].Title)
			} else {
				assert.Empty(t, p.DMs)
			}
		})
	}
}

func TestGuildMemberAddHandler_DirectMessagesClosed(t *testing.T) {
	b, p, db := setup(t)
	setRoles(t, db, func(gc *database.GuildConfig) { gc.AutoRole = database.RoleSetting{RoleID: "2001", Enabled: true} })
	p.Fail("SendDirectMessage", testutil.CannotDM())

	m := p.AddMember(testutil.GuildID, &discordgo.User{ID: "3100", Username: "new"})
	guildMemberAddHandler(b)(nil, &discordgo.GuildMemberAdd{Member: m})
	assert.Len(t, p.CallsTo("AddRole"), 1)
}

func voiceUpdate(userID, before, after string) *discordgo.VoiceStateUpdate {
	v := &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{GuildID: testutil.GuildID, UserID: userID, ChannelID: after},
	}
	if before != "" {
		v.BeforeUpdate = &discordgo.VoiceState{GuildID: testutil.GuildID, UserID: userID, ChannelID: before}
	}
	return v
}

func TestVoiceStateUpdateHandler(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		roles   []string
		before  string
		after   string
		method  string
	}{
		{"join", true, nil, "", voiceID, "AddRole"},
		{"join with role", true, []string{vcRole}, "", voiceID, ""},
		{"leave", true, []string{vcRole}, voiceID, "", "RemoveRole"},
		{"leave without role", true, nil, voiceID, "", ""},
		{"move", true, []string{vcRole}, voiceID, "1011", ""},
		{"disabled", false, nil, "", voiceID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, p, db := setup(t)
			setRoles(t, db, func(gc *database.GuildConfig) {
				gc.InVCRole = database.RoleSetting{RoleID: vcRole, Enabled: tt.enabled}
			})
			p.AddMember(testutil.GuildID, &discordgo.User{ID: "3200", Username: "talker"}, tt.roles...)

			voiceStateUpdateHandler(b)(nil, voiceUpdate("3200", tt.before, tt.after))

			got := append(p.CallsTo("AddRole"), p.CallsTo("RemoveRole")...)
			if tt.method == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.method, got[0].Method)
			assert.Equal(t, vcRole, got[0].Value)
		})
	}
}

func TestVoiceStateUpdateHandler_SkipsBots(t *testing.T) {
	b, p, db := setup(t)
	setRoles(t, db, func(gc *database.GuildConfig) { gc.InVCRole = database.RoleSetting{RoleID: vcRole, Enabled: true} })
	p.AddMember(testutil.GuildID, &discordgo.User{ID: "3300", Username: "music", Bot: true})

	voiceStateUpdateHandler(b)(nil, voiceUpdate("3300", "", voiceID))
	assert.Empty(t, p.CallsTo("AddRole"))
}

func TestMessageCreateHandler(t *testing.T) {
	b, p, _ := setup(t)
	msg := &discordgo.Message{
		ID:        "3000000000000000001",
		ChannelID: testutil.ChannelID,
		GuildID:   testutil.GuildID,
		Author:    p.Users[member],
		Content:   "!ping",
	}
	messageCreateHandler(b)(nil, &discordgo.MessageCreate{Message: msg})

	e := p.LastEmbed(testutil.ChannelID)
	require.NotNil(t, e)
	assert.Equal(t, "Pong! 🏓", e.Title)
}

func TestMessageReactionAddHandler(t *testing.T) {
	b, p, _ := setup(t)
	got := make(chan confirm.State, 1)
	b.services.Confirm.Open("4000", member, time.Minute, func(s confirm.State) { got <- s })

	react := func(userID, emoji string) {
		messageReactionAddHandler(b)(nil, &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
			UserID:    userID,
			MessageID: "4000",
			GuildID:   testutil.GuildID,
			Emoji:     discordgo.Emoji{Name: emoji},
		}})
	}

	react(p.Bot.ID, confirm.EmojiConfirm)
	react(testutil.OwnerID, confirm.EmojiConfirm)
	react(member, "👍")
	assert.True(t, b.services.Confirm.Pending("4000"))

	react(member, confirm.EmojiConfirm)
	select {
	case s := <-got:
		assert.Equal(t, confirm.Confirmed, s)
	case <-time.After(time.Second):
		t.Fatal("prompt was not resolved")
	}
}

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{config.DriverJSON, false},
		{config.DriverBadger, false},
		{config.DriverSQLite, false},
		{"cassandra", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			db, err := OpenDatabase(context.Background(), config.Database{Driver: tt.driver, DataPath: t.TempDir()}, logger.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, db.Ping(context.Background()))
			assert.NoError(t, db.Close())
		})
	}
}
