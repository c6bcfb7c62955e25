package command

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Platform is everything handlers need from Discord. Reads hit the state cache first where possible.
type Platform interface {
	BotUser() *discordgo.User
	GuildCount() int
	Latency() time.Duration
	SetStatus(status string) error

	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	Members(ctx context.Context, guildID string) ([]*discordgo.Member, error)
	User(ctx context.Context, userID string) (*discordgo.User, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)

	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	SendDirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string, reason string) error

	Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	SetNickname(ctx context.Context, guildID, userID, nick, reason string) error
	AddRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error

	SetSlowmode(ctx context.Context, channelID string, seconds int, reason string) error
	SetPermissionOverwrite(ctx context.Context, channelID, targetID string, kind discordgo.PermissionOverwriteType, allow, deny int64, reason string) error
}
