package database

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPrefix = "!"
	DefaultReason = "No reason provided."
	MaxPrefixLen  = 5
)

type RoleSetting struct {
	RoleID  string `json:"role_id" bson:"role_id"`
	Enabled bool   `json:"enabled" bson:"enabled"`
}

// GuildConfig holds the per guild settings. Version is bumped on every successful save.
type GuildConfig struct {
	GuildID                string      `json:"guild_id" bson:"_id"`
	Prefix                 string      `json:"prefix" bson:"prefix"`
	AuditLogChannelID      string      `json:"audit_log_channel_id" bson:"audit_log_channel_id"`
	ModRoles               []string    `json:"mod_roles" bson:"mod_roles"`
	AutoRole               RoleSetting `json:"auto_role" bson:"auto_role"`
	InVCRole               RoleSetting `json:"in_vc_role" bson:"in_vc_role"`
	CmdBlacklistedChannels []string    `json:"cmd_blacklisted_channels" bson:"cmd_blacklisted_channels"`
	Version                int64       `json:"version" bson:"version"`
}

func NewGuildConfig(guildID, prefix string) *GuildConfig {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &GuildConfig{
		GuildID:                guildID,
		Prefix:                 prefix,
		ModRoles:               []string{},
		CmdBlacklistedChannels: []string{},
	}
}

func (g *GuildConfig) Clone() *GuildConfig {
	c := *g
	c.ModRoles = append([]string{}, g.ModRoles...)
	c.CmdBlacklistedChannels = append([]string{}, g.CmdBlacklistedChannels...)
	return &c
}

func (g *GuildConfig) HasModRole(roleID string) bool {
	return contains(g.ModRoles, roleID)
}

func (g *GuildConfig) IsChannelBlacklisted(channelID string) bool {
	return contains(g.CmdBlacklistedChannels, channelID)
}

// AliasConfig holds custom command aliases and auto role aliases for a guild.
type AliasConfig struct {
	GuildID         string            `json:"guild_id" bson:"_id"`
	Aliases         map[string]string `json:"aliases" bson:"aliases"`
	AutoRoleAliases map[string]string `json:"auto_role_aliases" bson:"auto_role_aliases"`
	Version         int64             `json:"version" bson:"version"`
}

func NewAliasConfig(guildID string) *AliasConfig {
	return &AliasConfig{
		GuildID:         guildID,
		Aliases:         map[string]string{},
		AutoRoleAliases: map[string]string{},
	}
}

func (a *AliasConfig) Clone() *AliasConfig {
	c := *a
	c.Aliases = make(map[string]string, len(a.Aliases))
	for k, v := range a.Aliases {
		c.Aliases[k] = v
	}
	c.AutoRoleAliases = make(map[string]string, len(a.AutoRoleAliases))
	for k, v := range a.AutoRoleAliases {
		c.AutoRoleAliases[k] = v
	}
	return &c
}

type Action string

const (
	ActionBan      Action = "ban"
	ActionKick     Action = "kick"
	ActionMute     Action = "mute"
	ActionUnmute   Action = "unmute"
	ActionWarn     Action = "warn"
	ActionNickname Action = "nickname"
	ActionSlowmode Action = "slowmode"
	ActionPurge    Action = "purge"
	ActionLock     Action = "lock"
	ActionUnlock   Action = "unlock"
	ActionHide     Action = "hide"
	ActionUnhide   Action = "unhide"
	ActionRoleAll  Action = "roleall"
	ActionReverse  Action = "reverse"
)

// ModLog is an append only record of a moderation action.
type ModLog struct {
	ID          string         `json:"id" bson:"_id"`
	GuildID     string         `json:"guild_id" bson:"guild_id"`
	Action      Action         `json:"action" bson:"action"`
	TargetID    string         `json:"target_id" bson:"target_id"`
	ModeratorID string         `json:"moderator_id" bson:"moderator_id"`
	Reason      string         `json:"reason" bson:"reason"`
	Duration    *time.Duration `json:"duration,omitempty" bson:"duration,omitempty"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp"`
	ChannelID   string         `json:"channel_id,omitempty" bson:"channel_id,omitempty"`
}

// NewModLog fills in the id, timestamp and default reason.
func NewModLog(guildID string, action Action, targetID, moderatorID, reason string) *ModLog {
	if reason == "" {
		reason = DefaultReason
	}
	return &ModLog{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		Action:      action,
		TargetID:    targetID,
		ModeratorID: moderatorID,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}
}

type UserBlacklist struct {
	UserID        string    `json:"user_id" bson:"_id"`
	Reason        string    `json:"reason" bson:"reason"`
	BlacklistedBy string    `json:"blacklisted_by" bson:"blacklisted_by"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
