package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID = "1"
	ownerID = "100"
)

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      guildID,
		OwnerID: ownerID,
		Roles: []*discordgo.Role{
			{ID: guildID, Name: "@everyone", Position: 0, Permissions: discordgo.PermissionSendMessages},
			{ID: "10", Name: "mod", Position: 5},
			{ID: "11", Name: "kicker", Position: 3, Permissions: discordgo.PermissionKickMembers},
			{ID: "12", Name: "admin", Position: 8, Permissions: discordgo.PermissionAdministrator},
			{ID: "13", Name: "bot", Position: 7, Permissions: discordgo.PermissionManageRoles | discordgo.PermissionBanMembers},
			{ID: "14", Name: "member", Position: 1},
		},
	}
}

func member(id string, roles ...string) *discordgo.Member {
	return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: id}, Roles: roles}
}

func TestEvaluate(t *testing.T) {
	g := testGuild()
	tests := []struct {
		name     string
		member   *discordgo.Member
		modRoles []string
		required int64
		want     Decision
	}{
		{
			name:     "owner without roles",
			member:   member(ownerID),
			required: discordgo.PermissionBanMembers,
			want:     Decision{Allowed: true, Reason: Owner},
		},
		{
			name:     "mod role without permissions",
			member:   member("2", "10"),
			modRoles: []string{"10"},
			required: discordgo.PermissionBanMembers | discordgo.PermissionManageServer,
			want:     Decision{Allowed: true, Reason: ModRole},
		},
		{
			name:     "explicit permission",
			member:   member("2", "11"),
			required: discordgo.PermissionKickMembers,
			want:     Decision{Allowed: true, Reason: Granted},
		},
		{
			name:     "everyone role counts",
			member:   member("2"),
			required: discordgo.PermissionSendMessages,
			want:     Decision{Allowed: true, Reason: Granted},
		},
		{
			name:     "administrator implies all",
			member:   member("2", "12"),
			required: discordgo.PermissionBanMembers | discordgo.PermissionManageServer,
			want:     Decision{Allowed: true, Reason: Granted},
		},
		{
			name:     "denied lists exactly the missing bits",
			member:   member("2", "11"),
			required: discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionManageServer,
			want:     Decision{Reason: Denied, Missing: discordgo.PermissionBanMembers | discordgo.PermissionManageServer},
		},
		{
			name:     "mod role not configured",
			member:   member("2", "10"),
			required: discordgo.PermissionBanMembers,
			want:     Decision{Reason: Denied, Missing: discordgo.PermissionBanMembers},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(g, tt.member, tt.modRoles, tt.required))
		})
	}
}

func TestEvaluate_OwnerAlwaysAllowed(t *testing.T) {
	g := testGuild()
	for _, p := range []int64{0, discordgo.PermissionAdministrator, All} {
		d := Evaluate(g, member(ownerID), nil, p)
		assert.True(t, d.Allowed)
		assert.Equal(t, Owner, d.Reason)
	}
}

type failingDB struct {
	database.DB
}

func (failingDB) GetGuildConfig(context.Context, string) (*database.GuildConfig, error) {
	return nil, errors.New("connection refused")
}

func TestEvaluator_Authorize(t *testing.T) {
	ctx := context.Background()
	g := testGuild()

	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)
	_, err = database.UpdateGuildConfig(ctx, db, guildID, "", func(gc *database.GuildConfig) error {
		gc.ModRoles = []string{"10"}
		return nil
	})
	require.NoError(t, err)

	e := NewEvaluator(db, logger.Nop())
	d := e.Authorize(ctx, g, member("2", "10"), discordgo.PermissionBanMembers)
	assert.Equal(t, Decision{Allowed: true, Reason: ModRole}, d)

	t.Run("storage failure skips mod roles", func(t *testing.T) {
		e := NewEvaluator(failingDB{}, logger.Nop())
		d := e.Authorize(ctx, g, member("2", "10"), discordgo.PermissionBanMembers)
		assert.False(t, d.Allowed)
		assert.Equal(t, int64(discordgo.PermissionBanMembers), d.Missing)

		d = e.Authorize(ctx, g, member("2", "12"), discordgo.PermissionBanMembers)
		assert.True(t, d.Allowed)
	})

	t.Run("missing config", func(t *testing.T) {
		empty, err := database.NewJsonDatabase("")
		require.NoError(t, err)
		d := NewEvaluator(empty, logger.Nop()).Authorize(ctx, g, member("2", "10"), discordgo.PermissionBanMembers)
		assert.False(t, d.Allowed)
	})
}

func TestCheckTarget(t *testing.T) {
	g := testGuild()
	bot := member("999", "13")
	mod := member("2", "10")

	tests := []struct {
		name   string
		actor  *discordgo.Member
		target *discordgo.Member
		want   error
	}{
		{"self", mod, member("2", "10"), ErrTargetSelf},
		{"bot", mod, member("999", "13"), ErrTargetBot},
		{"owner", mod, member(ownerID), ErrTargetOwner},
		{"administrator", member(ownerID), member("3", "12"), ErrTargetAdmin},
		{"equal role", mod, member("3", "10"), ErrTargetAboveActor},
		{"higher role", member("2", "11"), member("3", "10"), ErrTargetAboveActor},
		{"owner skips actor hierarchy", member(ownerID), member("3", "10"), nil},
		{"above bot", member(ownerID), member("3", "13"), ErrTargetAboveBot},
		{"valid", mod, member("3", "14"), nil},
		{"nil target", mod, nil, ErrTargetUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTarget(g, tt.actor, tt.target, bot)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHierarchyHelpers(t *testing.T) {
	g := testGuild()
	assert.Equal(t, 7, HighestPosition(g, member("999", "13", "14")))
	assert.Equal(t, 0, HighestPosition(g, member("2")))

	bot := member("999", "13")
	assert.True(t, RoleManageable(g, bot, "14"))
	assert.False(t, RoleManageable(g, bot, "12"))
	assert.False(t, RoleManageable(g, bot, guildID))
	assert.False(t, RoleManageable(g, bot, "404"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Kick Members", "Ban Members"}, Names(discordgo.PermissionKickMembers|discordgo.PermissionBanMembers))
	assert.Equal(t, []string{"Manage Server"}, Names(discordgo.PermissionManageServer))
	assert.Empty(t, Names(0))
}

func TestComputeChannel(t *testing.T) {
	g := testGuild()
	send := int64(discordgo.PermissionSendMessages)
	ch := func(overwrites ...*discordgo.PermissionOverwrite) *discordgo.Channel {
		return &discordgo.Channel{ID: "50", GuildID: guildID, PermissionOverwrites: overwrites}
	}

	tests := []struct {
		name   string
		member *discordgo.Member
		ch     *discordgo.Channel
		want   bool
	}{
		{"no overwrites", member("2"), ch(), true},
		{"everyone denied", member("2"), ch(&discordgo.PermissionOverwrite{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: send}), false},
		{
			"role allow beats everyone deny",
			member("2", "14"),
			ch(
				&discordgo.PermissionOverwrite{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: send},
				&discordgo.PermissionOverwrite{ID: "14", Type: discordgo.PermissionOverwriteTypeRole, Allow: send},
			),
			true,
		},
		{
			"member deny beats role allow",
			member("2", "14"),
			ch(
				&discordgo.PermissionOverwrite{ID: "14", Type: discordgo.PermissionOverwriteTypeRole, Allow: send},
				&discordgo.PermissionOverwrite{ID: "2", Type: discordgo.PermissionOverwriteTypeMember, Deny: send},
			),
			false,
		},
		{"admin ignores overwrites", member("2", "12"), ch(&discordgo.PermissionOverwrite{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: send}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeChannel(g, tt.member, tt.ch)&send != 0
			assert.Equal(t, tt.want, got)
		})
	}
}
