package moderation_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/commands/moderation"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mod    = "3001"
	victim = "3002"
	admin  = "3003"
	peer   = "3004"
	high   = "3005"

	otherChannel = "1004"
	outsider     = "4000000000000000001"
)

func setup(t *testing.T) *testutil.Harness {
	h := testutil.NewHarness(t, moderation.Commands()...)
	h.Guild.Roles = append(h.Guild.Roles, &discordgo.Role{ID: "2010", Name: "above bot", Position: 10})
	h.User(mod, "2005")
	h.User(victim, "2001")
	h.User(admin, "2008")
	h.User(peer, "2005")
	h.User(high, "2010")
	h.Platform.AddChannel(&discordgo.Channel{ID: otherChannel, GuildID: testutil.GuildID, Name: "other", Type: discordgo.ChannelTypeGuildText})
	return h
}

// sentWith reports whether any embed sent to the default channel has a description containing s.
func sentWith(h *testutil.Harness, s string) bool {
	for _, m := range h.Platform.SentTo(testutil.ChannelID) {
		for _, e := range m.Embeds {
			if strings.Contains(e.Description, s) {
				return true
			}
		}
	}
	return false
}

func TestTargetRules(t *testing.T) {
	tests := []struct {
		name   string
		actor  string
		target string
		title  string
		desc   string
	}{
		{"self", mod, mod, "Warning ⚠️", "You cannot kick yourself."},
		{"bot", mod, testutil.BotID, "Warning ⚠️", "You cannot kick Pookie."},
		{"owner", mod, testutil.OwnerID, "Error ❌", "You cannot kick administrators or the server owner."},
		{"administrator", mod, admin, "Error ❌", "You cannot kick administrators or the server owner."},
		{"equal role", mod, peer, "Error ❌", "You cannot kick someone with an equal or higher role than yourself."},
		{"above bot", testutil.OwnerID, high, "Error ❌", "I cannot kick user3005 because their highest role is equal to or higher than mine."},
		{"unknown", mod, "4000000000000000009", "Error ❌", "Could not find that user."},
		{"not an id", mod, "someone", "Error ❌", "Could not find that user."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.Send(tt.actor, "!kick "+tt.target+" reason")

			assert.Equal(t, tt.title, h.Reply().Title)
			assert.Equal(t, tt.desc, h.Reply().Description)
			assert.Empty(t, h.Platform.CallsTo("Kick"))
			assert.Empty(t, h.Platform.DMs)
			assert.Empty(t, h.ModLogs())
		})
	}
}

func TestKick(t *testing.T) {
	h := setup(t)
	h.Send(mod, "!boot <@"+victim+"> being rude")

	calls := h.Platform.CallsTo("Kick")
	require.Len(t, calls, 1)
	assert.Equal(t, victim, calls[0].TargetID)
	assert.Equal(t, "user3001: being rude", calls[0].Reason)
	require.Len(t, h.Platform.DMs, 1, "the target is told before being removed")

	logs := h.ModLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, database.ActionKick, logs[0].Action)
	assert.Equal(t, victim, logs[0].TargetID)
	assert.Equal(t, mod, logs[0].ModeratorID)
	assert.Equal(t, "being rude", logs[0].Reason)
	assert.Equal(t, "Success ✅", h.Reply().Title)

	_, err := h.Platform.Member(context.Background(), testutil.GuildID, victim)
	assert.Error(t, err)
}

func TestBan(t *testing.T) {
	h := setup(t)

	h.Send(mod, "!ban "+victim)
	assert.Equal(t, "Error ❌", h.Reply().Title, "mods without ban members are refused")
	assert.Empty(t, h.Platform.CallsTo("Ban"))

	h.Send(testutil.OwnerID, "!hammer "+victim)
	require.Len(t, h.Platform.CallsTo("Ban"), 1)
	logs := h.ModLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, database.DefaultReason, logs[0].Reason)
}

func TestBan_ByID(t *testing.T) {
	h := setup(t)
	h.Platform.Users[outsider] = &discordgo.User{ID: outsider, Username: "raider"}

	h.Send(testutil.OwnerID, "!ban "+outsider+" raid")
	calls := h.Platform.CallsTo("Ban")
	require.Len(t, calls, 1)
	assert.Equal(t, outsider, calls[0].TargetID)
	assert.Empty(t, h.Platform.DMs)
	assert.Contains(t, h.Reply().Description, "(ID: "+outsider+")")

	h.Send(testutil.OwnerID, "!ban "+outsider[:len(outsider)-1]+"2")
	assert.Equal(t, "Error ❌", h.Reply().Title)
	assert.Len(t, h.Platform.CallsTo("Ban"), 1)

	h.Send(testutil.OwnerID, "!ban "+outsider)
	logs := h.ModLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "No reason provided (banned by ID).", logs[1].Reason)
}

func TestBan_RemoteFailure(t *testing.T) {
	h := setup(t)
	h.Platform.Fail("Ban", testutil.MissingPermissions())

	h.Send(testutil.OwnerID, "!ban "+victim)
	assert.Equal(t, "Error ❌", h.Reply().Title)
	assert.Empty(t, h.ModLogs(), "nothing is recorded when discord refuses")
}

func TestWarn_DirectMessageSuppressed(t *testing.T) {
	h := setup(t)
	h.Platform.Fail("SendDirectMessage", testutil.CannotDM())

	h.Send(mod, "!w "+victim+" spam")
	require.Len(t, h.ModLogs(), 1)
	assert.Equal(t, database.ActionWarn, h.ModLogs()[0].Action)
	assert.True(t, sentWith(h, "Could not DM user3002 with warning details."))
	assert.Equal(t, "Success ✅", h.Reply().Title)
}

func TestMute(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		muted    bool
		duration time.Duration
		desc     string
	}{
		{"hours", "!mute " + victim + " 1h spamming", true, time.Hour, ""},
		{"alias", "!shush " + victim + " 30m", true, 30 * time.Minute, ""},
		{"max", "!timeout " + victim + " 28d", true, 28 * 24 * time.Hour, ""},
		{"bad unit", "!mute " + victim + " 10x", false, 0, "Invalid duration provided."},
		{"zero", "!mute " + victim + " 0s", false, 0, "Invalid duration provided."},
		{"negative", "!mute " + victim + " -5m", false, 0, "Invalid duration provided."},
		{"too long", "!mute " + victim + " 29d", false, 0, "Duration too long."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.Send(mod, tt.content)

			if !tt.muted {
				assert.Empty(t, h.Platform.CallsTo("Timeout"))
				assert.Empty(t, h.ModLogs())
				assert.Equal(t, tt.desc, h.Reply().Description)
				return
			}
			require.Len(t, h.Platform.CallsTo("Timeout"), 1)
			logs := h.ModLogs()
			require.Len(t, logs, 1)
			assert.Equal(t, database.ActionMute, logs[0].Action)
			require.NotNil(t, logs[0].Duration)
			assert.Equal(t, tt.duration, *logs[0].Duration)
		})
	}
}

func TestUnmute(t *testing.T) {
	h := setup(t)

	h.Send(mod, "!unmute "+victim)
	assert.Equal(t, "Warning ⚠️", h.Reply().Title)
	assert.Empty(t, h.Platform.CallsTo("Timeout"))

	h.Send(mod, "!mute "+victim+" 1h")
	h.Send(mod, "!untimeout "+victim+" appealed")

	calls := h.Platform.CallsTo("Timeout")
	require.Len(t, calls, 2)
	assert.NotEmpty(t, calls[0].Value)
	assert.Empty(t, calls[1].Value)

	logs := h.ModLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, database.ActionUnmute, logs[1].Action)
	assert.Equal(t, "appealed", logs[1].Reason)
}

func TestNickname(t *testing.T) {
	h := setup(t)

	h.Send(mod, "!nick "+victim+" nope")
	assert.Equal(t, "Error ❌", h.Reply().Title, "mods without manage nicknames are refused")

	h.Send(admin, "!nick "+victim+" Cool Name")
	h.Send(admin, "!setnick "+victim+" reset")
	h.Send(admin, "!nickname "+victim+" "+strings.Repeat("a", 33))

	calls := h.Platform.CallsTo("SetNickname")
	require.Len(t, calls, 2)
	assert.Equal(t, "Cool Name", calls[0].Value)
	assert.Empty(t, calls[1].Value)
	assert.Equal(t, "Nickname too long.", h.Reply().Description)
	assert.Len(t, h.ModLogs(), 2)
}

func TestSlowmode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		channel string
		seconds string
		reason  string
	}{
		{"bare number is seconds", "!slowmode 5", testutil.ChannelID, "5", database.DefaultReason},
		{"minutes", "!sm 1m", testutil.ChannelID, "60", database.DefaultReason},
		{"disable", "!setdelay 0s", testutil.ChannelID, "0", database.DefaultReason},
		{"max", "!slowmode 6h", testutil.ChannelID, "21600", database.DefaultReason},
		{"other channel", "!slowmode 10s <#" + otherChannel + "> raid", otherChannel, "10", "raid"},
		{"reason without channel", "!slowmode 10s calm down", testutil.ChannelID, "10", "calm down"},
		{"too long", "!slowmode 7h", "", "", ""},
		{"negative", "!slowmode -1", "", "", ""},
		{"garbage", "!slowmode soon", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.Send(admin, tt.content)

			calls := h.Platform.CallsTo("SetSlowmode")
			if tt.channel == "" {
				assert.Empty(t, calls)
				assert.Equal(t, "Error ❌", h.Reply().Title)
				return
			}
			require.Len(t, calls, 1)
			assert.Equal(t, tt.channel, calls[0].TargetID)
			assert.Equal(t, tt.seconds, calls[0].Value)

			logs := h.ModLogs()
			require.Len(t, logs, 1)
			assert.Equal(t, database.ActionSlowmode, logs[0].Action)
			assert.Equal(t, tt.channel, logs[0].TargetID)
			assert.Equal(t, tt.reason, logs[0].Reason)
		})
	}
}

func TestLockUnlock(t *testing.T) {
	h := setup(t)
	send := discordgo.PermissionSendMessages

	h.Send(admin, "!lock")
	h.Send(admin, "!lockdown")
	assert.Equal(t, "Warning ⚠️", h.Reply().Title)

	h.Send(admin, "!unlock")
	h.Send(admin, "!unlock")
	assert.Equal(t, "Warning ⚠️", h.Reply().Title)

	calls := h.Platform.CallsTo("SetPermissionOverwrite")
	require.Len(t, calls, 2)
	assert.Equal(t, fmt.Sprintf("%v:0:%d", testutil.GuildID, send), calls[0].Value)
	assert.Equal(t, fmt.Sprintf("%v:0:0", testutil.GuildID), calls[1].Value)

	logs := h.ModLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, database.ActionLock, logs[0].Action)
	assert.Equal(t, database.ActionUnlock, logs[1].Action)
}

func TestHide_KeepsOtherOverwrites(t *testing.T) {
	h := setup(t)
	view, send := int64(discordgo.PermissionViewChannel), int64(discordgo.PermissionSendMessages)
	h.Platform.Channels[otherChannel].PermissionOverwrites = []*discordgo.PermissionOverwrite{
		{ID: testutil.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Allow: send},
	}

	h.Send(admin, "!conceal <#"+otherChannel+"> private")
	calls := h.Platform.CallsTo("SetPermissionOverwrite")
	require.Len(t, calls, 1)
	assert.Equal(t, otherChannel, calls[0].TargetID)
	assert.Equal(t, fmt.Sprintf("%v:%d:%d", testutil.GuildID, send, view), calls[0].Value)

	h.Send(admin, "!hide <#"+otherChannel+">")
	assert.Equal(t, "Warning ⚠️", h.Reply().Title)

	h.Send(admin, "!unhide <#"+otherChannel+">")
	calls = h.Platform.CallsTo("SetPermissionOverwrite")
	require.Len(t, calls, 2)
	assert.Equal(t, fmt.Sprintf("%v:%d:0", testutil.GuildID, send), calls[1].Value)

	logs := h.ModLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, database.ActionHide, logs[0].Action)
	assert.Equal(t, "private", logs[0].Reason)
	assert.Equal(t, database.ActionUnhide, logs[1].Action)
}

func TestLock_BotCannotManageChannel(t *testing.T) {
	h := setup(t)
	// keep manage channels at guild level but take it away on the channel
	h.Guild.Roles[4].Permissions = discordgo.PermissionManageChannels
	h.Platform.Channels[otherChannel].PermissionOverwrites = []*discordgo.PermissionOverwrite{
		{ID: "2009", Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionManageChannels},
	}

	h.Send(admin, "!lock <#"+otherChannel+">")
	assert.Equal(t, "Error ❌", h.Reply().Title)
	assert.Empty(t, h.Platform.CallsTo("SetPermissionOverwrite"))
}

func TestPurge_InvalidAmount(t *testing.T) {
	for _, bad := range []string{"0", "101", "many"} {
		h := setup(t)
		h.Send(mod, "!purge "+bad)
		assert.Equal(t, "Error ❌", h.Reply().Title, bad)
		assert.Empty(t, h.Platform.CallsTo("DeleteMessages"), bad)
	}
}

func TestPurge(t *testing.T) {
	h := setup(t)
	var ids []string
	for i := 0; i < 6; i++ {
		m := &discordgo.Message{Content: fmt.Sprint(i), Timestamp: time.Now()}
		h.Platform.AddHistory(testutil.ChannelID, m)
		ids = append(ids, m.ID)
	}
	h.Platform.History[testutil.ChannelID][1].Timestamp = time.Now().Add(-30 * 24 * time.Hour)

	cmd := h.Send(mod, "!clear 5")
	calls := h.Platform.CallsTo("DeleteMessages")
	require.Len(t, calls, 1)
	assert.Equal(t, "4", calls[0].Value, "messages older than two weeks are skipped")
	assert.Equal(t, "Deleted 4 messages.", h.Reply().Description)

	var left []string
	var cmdKept bool
	for _, m := range h.Platform.History[testutil.ChannelID] {
		if m.Author == nil {
			left = append(left, m.ID)
		}
		if m.ID == cmd.ID {
			cmdKept = true
		}
	}
	assert.Equal(t, ids[:2], left)
	assert.True(t, cmdKept, "the command message is not counted or deleted")
	require.Len(t, h.ModLogs(), 1)
	assert.Equal(t, database.ActionPurge, h.ModLogs()[0].Action)
}

func TestApplyRole(t *testing.T) {
	p := testutil.NewFakePlatform()
	testutil.NewGuild(p)
	members := []*discordgo.Member{
		{User: &discordgo.User{ID: "1"}, Roles: []string{}},
		{User: &discordgo.User{ID: "2"}, Roles: []string{"2001"}},
		{User: &discordgo.User{ID: "3", Bot: true}, Roles: []string{}},
		{User: &discordgo.User{ID: "4"}, Roles: []string{}},
		{User: &discordgo.User{ID: "5"}, Roles: []string{}},
	}
	p.Fail("AddRole", testutil.MissingPermissions(), "4")

	res := moderation.ApplyRole(context.Background(), p, testutil.GuildID, "2001", "test", members, true)
	assert.Equal(t, moderation.BulkResult{Changed: 2, Failed: 1}, res)
	var added []string
	for _, c := range p.CallsTo("AddRole") {
		added = append(added, c.TargetID)
	}
	assert.Equal(t, []string{"1", "5"}, added)

	res = moderation.ApplyRole(context.Background(), p, testutil.GuildID, "2001", "test", members, false)
	assert.Equal(t, moderation.BulkResult{Changed: 1}, res)
	require.Len(t, p.CallsTo("RemoveRole"), 1)
	assert.Equal(t, "2", p.CallsTo("RemoveRole")[0].TargetID)
}

// prompt returns the id of the confirmation message the bot reacted to.
func prompt(t *testing.T, h *testutil.Harness) string {
	t.Helper()
	calls := h.Platform.CallsTo("AddReaction")
	require.Len(t, calls, 2)
	assert.Equal(t, confirm.EmojiConfirm, calls[0].Value)
	assert.Equal(t, confirm.EmojiCancel, calls[1].Value)
	return calls[0].TargetID
}

func modLogCount(h *testutil.Harness) func() bool {
	return func() bool {
		logs, err := h.DB.ListModLogs(context.Background(), testutil.GuildID, "")
		return err == nil && len(logs) > 0
	}
}

func TestRoleAll_Confirmed(t *testing.T) {
	h := setup(t)
	h.BotUser("3999")

	h.Send(admin, "!roleall member")
	id := prompt(t, h)
	assert.Empty(t, h.Platform.CallsTo("AddRole"), "nothing happens before confirmation")

	assert.False(t, h.Services.Confirm.React(id, victim, confirm.EmojiConfirm), "only the invoker can confirm")
	require.True(t, h.Services.Confirm.React(id, admin, confirm.EmojiConfirm))
	require.Eventually(t, modLogCount(h), 2*time.Second, 10*time.Millisecond)

	var added []string
	for _, c := range h.Platform.CallsTo("AddRole") {
		added = append(added, c.TargetID)
	}
	assert.ElementsMatch(t, []string{testutil.OwnerID, mod, admin, peer, high}, added)

	logs := h.ModLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, database.ActionRoleAll, logs[0].Action)
	assert.Equal(t, "2001", logs[0].TargetID)
	assert.Equal(t, "Assigned role to 5 members. Failed on 0.", logs[0].Reason)
	assert.Equal(t, "Roleall completed!", h.Reply().Title)
}

func TestReverse_Cancelled(t *testing.T) {
	h := setup(t)

	h.Send(admin, "!delroleall member")
	id := prompt(t, h)
	require.True(t, h.Services.Confirm.React(id, admin, confirm.EmojiCancel))
	require.Eventually(t, func() bool { return sentWith(h, "Reverse role command cancelled.") }, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, h.Platform.CallsTo("RemoveRole"))
	assert.Empty(t, h.ModLogs())
}

func TestRoleAll_Hierarchy(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		content string
	}{
		{"role at actor level", admin, "!roleall admin"},
		{"role above bot", testutil.OwnerID, "!roleall <@&2010>"},
		{"managed role", testutil.OwnerID, "!roleall pookie"},
		{"everyone", testutil.OwnerID, "!roleall <@&" + testutil.GuildID + ">"},
		{"unknown role", admin, "!roleall nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.Send(tt.actor, tt.content)
			assert.Equal(t, "Error ❌", h.Reply().Title)
			assert.Empty(t, h.Platform.CallsTo("AddReaction"))
		})
	}
}

func TestModLogs(t *testing.T) {
	h := setup(t)

	h.Send(mod, "!modlogs")
	assert.Equal(t, "Warning ⚠️", h.Reply().Title)

	h.Send(mod, "!warn "+victim+" first")
	h.Send(mod, "!mute "+victim+" 1h second")
	h.Send(admin, "!warn "+peer+" other")

	h.Send(mod, "!history <@"+victim+">")
	e := h.Reply()
	assert.Equal(t, "Moderation History for user3002", e.Title)
	assert.Less(t, strings.Index(e.Description, "second"), strings.Index(e.Description, "first"), "newest first")
	assert.Contains(t, e.Description, "for 1 hour")
	assert.NotContains(t, e.Description, "other")
	assert.Equal(t, "Showing 2 of 2 records", e.Footer.Text)

	h.Send(mod, "!cases")
	assert.Equal(t, "Showing 3 of 3 records", h.Reply().Footer.Text)
}
