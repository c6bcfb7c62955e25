package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

func options(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}

func (d *Discord) SendMessage(ctx context.Context, cid string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.Sess.ChannelMessageSendComplex(cid, msg, discordgo.WithContext(ctx))
}

func (d *Discord) SendDirectMessage(ctx context.Context, uid string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	ch, err := d.Sess.UserChannelCreate(uid, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return d.Sess.ChannelMessageSendComplex(ch.ID, msg, discordgo.WithContext(ctx))
}

func (d *Discord) AddReaction(ctx context.Context, cid, mid, emoji string) error {
	return d.Sess.MessageReactionAdd(cid, mid, emoji, discordgo.WithContext(ctx))
}

// RecentMessages returns up to limit (max 100) messages, newest first.
func (d *Discord) RecentMessages(ctx context.Context, cid string, limit int) ([]*discordgo.Message, error) {
	return d.Sess.ChannelMessages(cid, limit, "", "", "", discordgo.WithContext(ctx))
}

func (d *Discord) DeleteMessages(ctx context.Context, cid string, ids []string, reason string) error {
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return d.Sess.ChannelMessageDelete(cid, ids[0], options(ctx, reason)...)
	}
	return d.Sess.ChannelMessagesBulkDelete(cid, ids, options(ctx, reason)...)
}

func (d *Discord) Ban(ctx context.Context, gid, uid, reason string, deleteDays int) error {
	return d.Sess.GuildBanCreateWithReason(gid, uid, reason, deleteDays, discordgo.WithContext(ctx))
}

func (d *Discord) Kick(ctx context.Context, gid, uid, reason string) error {
	return d.Sess.GuildMemberDeleteWithReason(gid, uid, reason, discordgo.WithContext(ctx))
}

// Timeout times out a member until the given time. A nil time removes the timeout.
func (d *Discord) Timeout(ctx context.Context, gid, uid string, until *time.Time, reason string) error {
	return d.Sess.GuildMemberTimeout(gid, uid, until, options(ctx, reason)...)
}

func (d *Discord) SetNickname(ctx context.Context, gid, uid, nick, reason string) error {
	return d.Sess.GuildMemberNickname(gid, uid, nick, options(ctx, reason)...)
}

func (d *Discord) AddRole(ctx context.Context, gid, uid, rid, reason string) error {
	return d.Sess.GuildMemberRoleAdd(gid, uid, rid, options(ctx, reason)...)
}

func (d *Discord) RemoveRole(ctx context.Context, gid, uid, rid, reason string) error {
	return d.Sess.GuildMemberRoleRemove(gid, uid, rid, options(ctx, reason)...)
}

func (d *Discord) SetSlowmode(ctx context.Context, cid string, seconds int, reason string) error {
	_, err := d.Sess.ChannelEdit(cid, &discordgo.ChannelEdit{RateLimitPerUser: &seconds}, options(ctx, reason)...)
	return err
}

func (d *Discord) SetPermissionOverwrite(ctx context.Context, cid, targetID string, kind discordgo.PermissionOverwriteType, allow, deny int64, reason string) error {
	return d.Sess.ChannelPermissionSet(cid, targetID, kind, allow, deny, options(ctx, reason)...)
}
