package moderation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

// MaxSlowmode is the longest per-user message delay discord accepts.
const MaxSlowmode = 6 * time.Hour

func textBased(ch *discordgo.Channel) bool {
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews, discordgo.ChannelTypeGuildVoice:
		return true
	}
	return false
}

// targetChannel reads an optional channel at args[i]. The reason starts right after it,
// or at args[i] when no channel was given.
func targetChannel(c *command.Context, i int) (*discordgo.Channel, string, error) {
	if ch := c.ResolveChannel(c.Arg(i)); ch != nil && textBased(ch) {
		return ch, reason(c, i+1), nil
	}
	ch, err := c.Platform.Channel(c.Ctx, c.Message.ChannelID)
	if err != nil {
		return nil, "", err
	}
	return ch, reason(c, i), nil
}

// botManages reports whether the bot may edit ch, replying when it may not.
func botManages(c *command.Context, ch *discordgo.Channel) (bool, error) {
	bot, err := c.BotMember()
	if err != nil {
		return false, err
	}
	if permissions.ComputeChannel(c.Guild, bot, ch)&discordgo.PermissionManageChannels == 0 {
		c.ReplyError(
			fmt.Sprintf("Pookie does not have permission to manage channel permissions for %v.", ch.Name),
			`Please ensure Pookie has the "Manage Channels" permission for this channel.`,
		)
		return false, nil
	}
	return true, nil
}

// parseSlowmode reads a slowmode delay. A bare number is seconds.
func parseSlowmode(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return utils.ParseDuration(s)
}

func newSlowmodeCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "slowmode",
		Aliases:        []string{"sm", "setdelay"},
		Description:    "Sets or removes slowmode for a channel.",
		Usage:          "`{prefix}slowmode <duration> [#channel|channelID] [reason]`\n`Duration examples: 0s (to disable), 5s, 1m, 2h`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageChannels,
		BotPermissions: discordgo.PermissionManageChannels,
		GuildOnly:      true,
		Run:            slowmode,
	}
}

func slowmode(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}

	d, err := parseSlowmode(c.Args[0])
	if err != nil || d < 0 || d > MaxSlowmode {
		c.ReplyError("Invalid duration provided.", "Please use formats like `0s` (to disable), `5s`, `1m`, `2h`. Max duration is 6 hours.")
		return nil
	}
	seconds := int(d / time.Second)

	ch, r, err := targetChannel(c, 1)
	if err != nil {
		return err
	}
	if ok, err := botManages(c, ch); !ok {
		return err
	}

	if err := c.Platform.SetSlowmode(c.Ctx, ch.ID, seconds, fmt.Sprintf("Slowmode set by %v | Reason: %v", c.Author().String(), r)); err != nil {
		return err
	}

	entry := record(c, database.ActionSlowmode, ch.ID, r)
	entry.ChannelID = ch.ID
	if seconds > 0 {
		delay := time.Duration(seconds) * time.Second
		entry.Duration = &delay
	}
	if err := c.ModLog(entry); err != nil {
		return err
	}

	title, description := "Disabled Slowmode", fmt.Sprintf("Slowmode has been disabled in %v.", ch.Mention())
	if seconds > 0 {
		pretty := utils.FormatDuration(time.Duration(seconds) * time.Second)
		title, description = "Set Slowmode to "+pretty, fmt.Sprintf("Slowmode for %v set to **%v**.", ch.Mention(), pretty)
	}
	replyDone(c, description, r)
	c.AuditLog(audit.Entry{
		Title:       title,
		Description: fmt.Sprintf("%v by %v.", description, c.Author().String()),
		Color:       utils.ColorBlue,
	})
	return nil
}

// overwriteToggle flips one permission of the @everyone overwrite on a channel.
type overwriteToggle struct {
	perm   int64
	deny   bool
	action database.Action

	// done is "locked", "unlocked", and so on.
	done string
	// state is the adjective used when nothing needs to change.
	state string
	title string
	color utils.Color
}

func (o overwriteToggle) run(c *command.Context) error {
	ch, r, err := targetChannel(c, 0)
	if err != nil {
		return err
	}
	if ok, err := botManages(c, ch); !ok {
		return err
	}

	var allow, deny int64
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == c.GuildID() && ow.Type == discordgo.PermissionOverwriteTypeRole {
			allow, deny = ow.Allow, ow.Deny
			break
		}
	}

	denied := deny&o.perm != 0
	if denied == o.deny {
		c.ReplyWarning(fmt.Sprintf("%v is %v.", ch.Mention(), o.state))
		return nil
	}
	if o.deny {
		allow &^= o.perm
		deny |= o.perm
	} else {
		deny &^= o.perm
	}

	err = c.Platform.SetPermissionOverwrite(c.Ctx, ch.ID, c.GuildID(), discordgo.PermissionOverwriteTypeRole, allow, deny,
		fmt.Sprintf("Channel %v by %v | Reason: %v", o.done, c.Author().String(), r))
	if err != nil {
		return err
	}

	entry := record(c, o.action, ch.ID, r)
	entry.ChannelID = ch.ID
	if err := c.ModLog(entry); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been %v.", ch.Mention(), o.done), r)
	c.AuditLog(audit.Entry{
		Title:       o.title,
		Description: fmt.Sprintf("%v was %v by %v.\nReason: %v", ch.Mention(), o.done, c.Author().String(), r),
		Color:       o.color,
	})
	return nil
}

func channelCommand(name string, aliases []string, description string, o overwriteToggle) *command.Descriptor {
	return &command.Descriptor{
		Name:           name,
		Aliases:        aliases,
		Description:    description,
		Usage:          fmt.Sprintf("`{prefix}%v [#channel|channelID] [reason]`", name),
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageChannels,
		BotPermissions: discordgo.PermissionManageChannels,
		GuildOnly:      true,
		Run:            o.run,
	}
}

func newLockCommand() *command.Descriptor {
	return channelCommand("lock", []string{"lockdown"},
		"Locks the current channel or a specified channel, preventing @everyone from sending messages.",
		overwriteToggle{
			perm:   discordgo.PermissionSendMessages,
			deny:   true,
			action: database.ActionLock,
			done:   "locked",
			state:  "already locked",
			title:  "Channel Locked",
			color:  utils.ColorBlue,
		})
}

func newUnlockCommand() *command.Descriptor {
	return channelCommand("unlock", []string{"unlockdown"},
		"Unlocks a channel, allowing @everyone to send messages again.",
		overwriteToggle{
			perm:   discordgo.PermissionSendMessages,
			action: database.ActionUnlock,
			done:   "unlocked",
			state:  "not locked",
			title:  "Channel Unlocked",
			color:  utils.ColorGreen,
		})
}

func newHideCommand() *command.Descriptor {
	return channelCommand("hide", []string{"conceal"},
		"Hides the current channel or a specified channel from @everyone.",
		overwriteToggle{
			perm:   discordgo.PermissionViewChannel,
			deny:   true,
			action: database.ActionHide,
			done:   "hidden",
			state:  "already hidden",
			title:  "Channel Hidden",
			color:  utils.ColorBlue,
		})
}

func newUnhideCommand() *command.Descriptor {
	return channelCommand("unhide", []string{"reveal"},
		"Makes a hidden channel visible to @everyone again.",
		overwriteToggle{
			perm:   discordgo.PermissionViewChannel,
			action: database.ActionUnhide,
			done:   "unhidden",
			state:  "not hidden",
			title:  "Channel Unhidden",
			color:  utils.ColorGreen,
		})
}
