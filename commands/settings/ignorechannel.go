package settings

import (
	"fmt"
	"strings"

	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

func newIgnoreChannelCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "ignorechannel",
		Aliases:     []string{"cmdblacklist"},
		Description: "Stops the bot from responding to commands in a channel.",
		Usage:       "`{prefix}ignorechannel add [#channel|channelID]`\n`{prefix}ignorechannel remove <#channel|channelID>`\n`{prefix}ignorechannel list`",
		Category:    command.CategoryConfig,
		Permissions: manageConfig,
		GuildOnly:   true,
		Run:         ignoreChannel,
	}
}

func ignoreChannel(c *command.Context) error {
	sub, args := subcommand(c, nil)
	switch sub {
	case "add", "remove":
		channelID := c.Message.ChannelID
		if len(args) > 0 {
			ch := c.ResolveChannel(args[0])
			if ch == nil {
				replyChannelNotFound(c)
				return nil
			}
			channelID = ch.ID
		}
		return changeIgnoredChannel(c, sub == "add", channelID)
	case "list":
		text := "No channels are ignored."
		if list := c.Config.CmdBlacklistedChannels; len(list) > 0 {
			mentions := make([]string, len(list))
			for i, id := range list {
				mentions[i] = fmt.Sprintf("<#%v>", id)
			}
			text = strings.Join(mentions, "\n")
		}
		_, _ = c.ReplyEmbed(utils.NewEmbed("Ignored Channels", text, utils.ColorBlue))
		return nil
	}
	return c.Usage()
}

func changeIgnoredChannel(c *command.Context, add bool, channelID string) error {
	ignored := c.Config.IsChannelBlacklisted(channelID)
	switch {
	case add && ignored:
		c.ReplyWarning(fmt.Sprintf("<#%v> is already ignored.", channelID))
		return nil
	case !add && !ignored:
		c.ReplyWarning(fmt.Sprintf("<#%v> is not ignored.", channelID))
		return nil
	}

	err := update(c, func(gc *database.GuildConfig) error {
		gc.CmdBlacklistedChannels = remove(gc.CmdBlacklistedChannels, channelID)
		if add {
			gc.CmdBlacklistedChannels = append(gc.CmdBlacklistedChannels, channelID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if add {
		c.ReplySuccess(fmt.Sprintf("Commands will now be ignored in <#%v>.", channelID))
		c.AuditLog(audit.Entry{Title: "Channel Ignored", Description: fmt.Sprintf("Commands are now ignored in <#%v>.", channelID)})
		return nil
	}
	c.ReplySuccess(fmt.Sprintf("Commands will now work in <#%v> again.", channelID))
	c.AuditLog(audit.Entry{Title: "Channel Unignored", Description: fmt.Sprintf("Commands work again in <#%v>.", channelID)})
	return nil
}
