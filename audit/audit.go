package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/meido/pkg/utils/builders"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

// Sender is the part of the platform the audit logger needs.
type Sender interface {
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
}

type Entry struct {
	Title       string
	Description string
	Responsible *discordgo.User
	Target      *discordgo.User
	Color       utils.Color
}

// Logger mirrors moderation and config actions into a guild's audit channel.
type Logger struct {
	db     database.DB
	sender Sender
	log    mio.Logger
}

func NewLogger(db database.DB, sender Sender, log mio.Logger) *Logger {
	return &Logger{
		db:     db,
		sender: sender,
		log:    log.Named("audit"),
	}
}

// Log is best effort. Missing channels and send failures are logged and swallowed.
func (l *Logger) Log(ctx context.Context, guildID string, e Entry) {
	gc, err := l.db.GetGuildConfig(ctx, guildID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			l.log.Warn("failed to load guild config", zap.String("guildID", guildID), zap.Error(err))
		}
		return
	}
	if gc.AuditLogChannelID == "" {
		return
	}

	_, err = l.sender.SendMessage(ctx, gc.AuditLogChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{Embed(e)},
	})
	if err != nil {
		l.log.Warn("failed to send audit log",
			zap.String("guildID", guildID),
			zap.String("channelID", gc.AuditLogChannelID),
			zap.Error(err),
		)
	}
}

func Embed(e Entry) *discordgo.MessageEmbed {
	color := e.Color
	if color == 0 {
		color = utils.ColorBlue
	}

	embed := builders.NewEmbedBuilder().
		WithTitle(e.Title).
		WithDescription(e.Description).
		WithColor(int(color))

	if e.Target != nil {
		embed.WithThumbnail(e.Target.AvatarURL("256"))
		embed.AddField("Target", fmt.Sprintf("%v\n%v", e.Target.Mention(), e.Target.String()), true)
	}
	if e.Responsible != nil {
		embed.AddField("Responsible", fmt.Sprintf("%v\n%v", e.Responsible.Mention(), e.Responsible.String()), true)
	}
	embed.WithFooter(fmt.Sprintf("Pookie | %v", time.Now().UTC().Format(time.DateTime)), "")
	return embed.Build()
}
