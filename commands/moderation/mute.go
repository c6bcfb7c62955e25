package moderation

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

// MaxTimeout is the longest timeout discord accepts.
const MaxTimeout = 28 * 24 * time.Hour

func newMuteCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "mute",
		Aliases:        []string{"timeout", "shush"},
		Description:    "Mutes (timeouts) a member for a specified duration.",
		Usage:          "`{prefix}mute <@user|userID> <duration> [reason]`\n`Duration examples: 1h, 30m, 1d`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionModerateMembers,
		BotPermissions: discordgo.PermissionModerateMembers,
		GuildOnly:      true,
		Run:            mute,
	}
}

func mute(c *command.Context) error {
	if len(c.Args) < 2 {
		return c.Usage()
	}
	target, err := resolveTarget(c, c.Args[0], "mute")
	if target == nil || err != nil {
		return err
	}

	d, err := utils.ParseDuration(c.Args[1])
	if err != nil || d <= 0 {
		c.ReplyError("Invalid duration provided.", "Please use formats like `1h`, `30m`, `1d`.")
		return nil
	}
	if d > MaxTimeout {
		c.ReplyError("Duration too long.", "Discord only allows timeouts up to 28 days.")
		return nil
	}

	r := reason(c, 2)
	until := time.Now().Add(d)
	if err := c.Platform.Timeout(c.Ctx, c.GuildID(), target.User.ID, &until, auditReason(c, r)); err != nil {
		return err
	}

	pretty := utils.FormatDuration(d)
	notify(c, target.User, fmt.Sprintf("You have been muted in %v for %v.", c.Guild.Name, pretty), r, "mute")

	entry := record(c, database.ActionMute, target.User.ID, r)
	entry.Duration = &d
	if err := c.ModLog(entry); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been muted for %v.", target.User.String(), pretty), r,
		utils.Field("Expires", fmt.Sprintf("<t:%v:R>", until.Unix()), false))
	c.AuditLog(audit.Entry{
		Title:       "Member Muted",
		Description: fmt.Sprintf("%v was muted by %v for %v.\nReason: %v", target.User.String(), c.Author().String(), pretty, r),
		Target:      target.User,
		Color:       utils.ColorOrange,
	})
	return nil
}

func newUnmuteCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "unmute",
		Aliases:        []string{"untimeout"},
		Description:    "Removes the timeout from a member.",
		Usage:          "`{prefix}unmute <@user|userID> [reason]`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionModerateMembers,
		BotPermissions: discordgo.PermissionModerateMembers,
		GuildOnly:      true,
		Run:            unmute,
	}
}

func unmute(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	target, err := resolveTarget(c, c.Args[0], "unmute")
	if target == nil || err != nil {
		return err
	}

	if target.CommunicationDisabledUntil == nil || target.CommunicationDisabledUntil.Before(time.Now()) {
		c.ReplyWarning(fmt.Sprintf("%v is not muted.", target.User.String()))
		return nil
	}

	r := reason(c, 1)
	if err := c.Platform.Timeout(c.Ctx, c.GuildID(), target.User.ID, nil, auditReason(c, r)); err != nil {
		return err
	}
	notify(c, target.User, fmt.Sprintf("You have been unmuted in %v.", c.Guild.Name), r, "unmute")
	if err := c.ModLog(record(c, database.ActionUnmute, target.User.ID, r)); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been unmuted.", target.User.String()), r)
	c.AuditLog(audit.Entry{
		Title:       "Member Unmuted",
		Description: fmt.Sprintf("%v was unmuted by %v.\nReason: %v", target.User.String(), c.Author().String(), r),
		Target:      target.User,
		Color:       utils.ColorGreen,
	})
	return nil
}
