// Package moderation holds the member and channel moderation commands.
package moderation

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

func Commands() []*command.Descriptor {
	return []*command.Descriptor{
		newBanCommand(),
		newKickCommand(),
		newMuteCommand(),
		newUnmuteCommand(),
		newWarnCommand(),
		newNicknameCommand(),
		newSlowmodeCommand(),
		newPurgeCommand(),
		newLockCommand(),
		newUnlockCommand(),
		newHideCommand(),
		newUnhideCommand(),
		newRoleAllCommand(),
		newReverseCommand(),
		newModLogsCommand(),
	}
}

// resolveTarget finds the member named by arg and checks that the invoker may act on them.
// It replies and returns nil when the target is unusable.
func resolveTarget(c *command.Context, arg, verb string) (*discordgo.Member, error) {
	m, err := c.ResolveMember(arg)
	if err != nil {
		if command.IsNotFound(err) {
			c.ReplyError("Could not find that user.", "Please mention a user or provide a valid user ID.")
			return nil, nil
		}
		return nil, err
	}

	if ok, err := checkTarget(c, m, verb); !ok {
		return nil, err
	}
	return m, nil
}

// checkTarget replies and returns false when the invoker may not act on target.
func checkTarget(c *command.Context, target *discordgo.Member, verb string) (bool, error) {
	bot, err := c.BotMember()
	if err != nil {
		return false, err
	}
	if err := permissions.CheckTarget(c.Guild, c.Member, target, bot); err != nil {
		replyTargetError(c, target, verb, err)
		return false, nil
	}
	return true, nil
}

func replyTargetError(c *command.Context, target *discordgo.Member, verb string, err error) {
	switch {
	case errors.Is(err, permissions.ErrTargetSelf):
		c.ReplyWarning(fmt.Sprintf("You cannot %v yourself.", verb))
	case errors.Is(err, permissions.ErrTargetBot):
		c.ReplyWarning(fmt.Sprintf("You cannot %v Pookie.", verb))
	case errors.Is(err, permissions.ErrTargetOwner), errors.Is(err, permissions.ErrTargetAdmin):
		c.ReplyError(fmt.Sprintf("You cannot %v administrators or the server owner.", verb), "")
	case errors.Is(err, permissions.ErrTargetAboveActor):
		c.ReplyError(fmt.Sprintf("You cannot %v someone with an equal or higher role than yourself.", verb), "")
	case errors.Is(err, permissions.ErrTargetAboveBot):
		c.ReplyError(
			fmt.Sprintf("I cannot %v %v because their highest role is equal to or higher than mine.", verb, target.User.String()),
			"Please ensure Pookie's highest role is above the target user's highest role.",
		)
	default:
		c.ReplyError(err.Error(), "")
	}
}

// reason joins the arguments from index i, falling back to the default reason.
func reason(c *command.Context, i int) string {
	if r := c.Rest(i); r != "" {
		return r
	}
	return database.DefaultReason
}

// auditReason is the reason shown in discord's own audit log.
func auditReason(c *command.Context, reason string) string {
	return fmt.Sprintf("%v: %v", c.Author().String(), reason)
}

// notify direct messages the target and posts a soft warning when that is not possible.
func notify(c *command.Context, user *discordgo.User, title, reason, what string) command.NotifyResult {
	embed := utils.NewEmbed(title, "", utils.ColorOrange, utils.Field("Reason", reason, false))
	res := command.Notify(c.Ctx, c.Platform, user, embed)
	if res.Suppressed() {
		c.Log.Debug("direct message suppressed", zap.String("userID", user.ID), zap.String("reason", res.Reason))
		_, _ = c.Send(&discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{utils.WarningEmbed(fmt.Sprintf("Could not DM %v with %v details.", user.String(), what))},
		})
	}
	return res
}

// replyDone replies with a success embed carrying the reason.
func replyDone(c *command.Context, description, reason string, extra ...*discordgo.MessageEmbedField) {
	fields := append([]*discordgo.MessageEmbedField{utils.Field("Reason", reason, false)}, extra...)
	_, _ = c.ReplyEmbed(utils.NewEmbed("Success ✅", description, utils.ColorGreen, fields...))
}

func record(c *command.Context, action database.Action, targetID, reason string) *database.ModLog {
	return database.NewModLog(c.GuildID(), action, targetID, c.Author().ID, reason)
}
