package pookie

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

const eventTimeout = 15 * time.Second

func (b *Bot) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, eventTimeout)
}

func readyHandler(b *Bot) func(*discordgo.Session, *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("ready",
			zap.String("user", r.User.String()),
			zap.Int("guilds", len(r.Guilds)),
			zap.Int("shard", shardID(s)),
		)
		status := fmt.Sprintf("for commands | %vhelp", b.cfg.DefaultPrefix)
		if err := b.services.Platform.SetStatus(status); err != nil {
			b.logger.Warn("failed to set status", zap.Error(err))
		}
	}
}

func disconnectHandler(b *Bot) func(*discordgo.Session, *discordgo.Disconnect) {
	return func(s *discordgo.Session, d *discordgo.Disconnect) {
		b.logger.Info("disconnected", zap.Int("shard", shardID(s)))
	}
}

func guildCreateHandler(b *Bot) func(*discordgo.Session, *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		ctx, cancel := b.eventContext()
		defer cancel()

		_, created, err := database.GetOrCreateGuildConfig(ctx, b.db, g.ID, b.cfg.DefaultPrefix)
		if err != nil {
			b.logger.Error("failed to create guild config", zap.String("guildID", g.ID), zap.Error(err))
			return
		}
		if !created {
			return
		}
		b.logger.Info("joined guild", zap.String("guildID", g.ID), zap.String("name", g.Name))

		owner, err := b.services.Platform.User(ctx, g.OwnerID)
		if err != nil {
			b.logger.Warn("failed to fetch guild owner", zap.String("guildID", g.ID), zap.Error(err))
			return
		}
		p := b.cfg.DefaultPrefix
		embed := utils.NewEmbed("Thanks for adding Pookie",
			fmt.Sprintf("Use `%vhelp` to see my commands. Change my prefix with `%vsetprefix` and pick an audit log channel with `%vsetauditlogchannel`.", p, p, p),
			utils.ColorBlue)
		if res := command.Notify(ctx, b.services.Platform, owner, embed); res.Suppressed() {
			b.logger.Debug("could not welcome guild owner", zap.String("guildID", g.ID), zap.String("reason", res.Reason))
		}
	}
}

func guildMemberAddHandler(b *Bot) func(*discordgo.Session, *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.Member == nil || m.User == nil {
			return
		}
		ctx, cancel := b.eventContext()
		defer cancel()

		g, err := b.services.Platform.Guild(ctx, m.GuildID)
		if err != nil {
			b.logger.Error("failed to fetch guild", zap.String("guildID", m.GuildID), zap.Error(err))
			return
		}

		gc, _, err := database.GetOrCreateGuildConfig(ctx, b.db, m.GuildID, b.cfg.DefaultPrefix)
		if err != nil {
			b.logger.Error("failed to get guild config", zap.String("guildID", m.GuildID), zap.Error(err))
		} else if gc.AutoRole.Enabled && gc.AutoRole.RoleID != "" && !m.User.Bot {
			if role := permissions.Role(g, gc.AutoRole.RoleID); role == nil {
				b.logger.Warn("auto role not found", zap.String("guildID", m.GuildID), zap.String("roleID", gc.AutoRole.RoleID))
			} else if err := b.services.Platform.AddRole(ctx, m.GuildID, m.User.ID, role.ID, "Pookie Auto-Role"); err != nil {
				b.logger.Error("failed to assign auto role", zap.String("guildID", m.GuildID), zap.String("userID", m.User.ID), zap.Error(err))
			}
		}

		embed := utils.NewEmbed(fmt.Sprintf("Welcome to %v!", g.Name),
			fmt.Sprintf("Hello %v, we're glad to have you here!", m.User.Username),
			utils.ColorBlue)
		embed.Timestamp = time.Now().Format(time.RFC3339)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Pookie Bot"}
		if res := command.Notify(ctx, b.services.Platform, m.User, embed); res.Suppressed() {
			b.logger.Debug("could not welcome member", zap.String("userID", m.User.ID), zap.String("reason", res.Reason))
		}
	}
}

func voiceStateUpdateHandler(b *Bot) func(*discordgo.Session, *discordgo.VoiceStateUpdate) {
	return func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if v.VoiceState == nil || v.GuildID == "" {
			return
		}
		var before string
		if v.BeforeUpdate != nil {
			before = v.BeforeUpdate.ChannelID
		}
		joined := before == "" && v.ChannelID != ""
		left := before != "" && v.ChannelID == ""
		if !joined && !left {
			return
		}

		ctx, cancel := b.eventContext()
		defer cancel()

		gc, err := b.db.GetGuildConfig(ctx, v.GuildID)
		if err != nil {
			return
		}
		if !gc.InVCRole.Enabled || gc.InVCRole.RoleID == "" {
			return
		}

		m := v.Member
		if m == nil || m.User == nil {
			if m, err = b.services.Platform.Member(ctx, v.GuildID, v.UserID); err != nil {
				b.logger.Warn("failed to fetch member", zap.String("userID", v.UserID), zap.Error(err))
				return
			}
		}
		if m.User.Bot {
			return
		}

		g, err := b.services.Platform.Guild(ctx, v.GuildID)
		if err != nil || permissions.Role(g, gc.InVCRole.RoleID) == nil {
			return
		}

		roleID := gc.InVCRole.RoleID
		has := hasRole(m, roleID)
		switch {
		case joined && !has:
			err = b.services.Platform.AddRole(ctx, v.GuildID, v.UserID, roleID, "Joined Voice Channel")
		case left && has:
			err = b.services.Platform.RemoveRole(ctx, v.GuildID, v.UserID, roleID, "Left Voice Channel")
		}
		if err != nil {
			b.logger.Error("failed to update in-vc role", zap.String("userID", v.UserID), zap.Bool("joined", joined), zap.Error(err))
		}
	}
}

func messageCreateHandler(b *Bot) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.dispatcher.Dispatch(b.ctx, m.Message)
	}
}

func messageReactionAddHandler(b *Bot) func(*discordgo.Session, *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.MessageReaction == nil || r.UserID == b.services.Platform.BotUser().ID {
			return
		}
		b.services.Confirm.React(r.MessageID, r.UserID, r.Emoji.Name)
	}
}

func hasRole(m *discordgo.Member, roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func shardID(s *discordgo.Session) int {
	if s == nil {
		return 0
	}
	return s.ShardID
}
