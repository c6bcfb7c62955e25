package settings

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

func newSetAuditLogChannelCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "setauditlogchannel",
		Aliases:     []string{"setlogchannel", "auditlog"},
		Description: "Sets the channel where moderation actions will be logged.",
		Usage:       "`{prefix}setauditlogchannel <#channel|channelID|disable>`",
		Category:    command.CategoryConfig,
		Permissions: manageConfig,
		GuildOnly:   true,
		Run:         setAuditLogChannel,
	}
}

func isTextChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

func setAuditLogChannel(c *command.Context) error {
	if len(c.Args) < 1 {
		current := "None"
		if id := c.Config.AuditLogChannelID; id != "" {
			current = fmt.Sprintf("<#%v>", id)
		}
		return c.UsageWith(utils.Field("Current Audit Log Channel", current, false))
	}

	if strings.EqualFold(c.Args[0], "disable") {
		err := update(c, func(gc *database.GuildConfig) error {
			gc.AuditLogChannelID = ""
			return nil
		})
		if err != nil {
			return err
		}
		c.ReplySuccess("Audit log channel has been disabled.")
		return nil
	}

	ch := c.ResolveChannel(c.Args[0])
	if ch == nil || !isTextChannel(ch) {
		replyChannelNotFound(c)
		return nil
	}

	bot, err := c.BotMember()
	if err != nil {
		return err
	}
	if permissions.ComputeChannel(c.Guild, bot, ch)&discordgo.PermissionSendMessages == 0 {
		c.ReplyError(
			fmt.Sprintf("Pookie does not have permission to send messages in %v.", ch.Mention()),
			`Please grant Pookie the "Send Messages" permission in this channel.`,
		)
		return nil
	}

	err = update(c, func(gc *database.GuildConfig) error {
		gc.AuditLogChannelID = ch.ID
		return nil
	})
	if err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("Audit log channel has been set to %v.", ch.Mention()))
	c.AuditLog(audit.Entry{
		Title:       "Audit Log Channel Set",
		Description: fmt.Sprintf("Moderation actions will now be logged in %v.", ch.Mention()),
	})
	return nil
}
