package moderation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

func newBanCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "ban",
		Aliases:        []string{"permban", "hammer"},
		Description:    "Bans a member from the server. Users who are not in the server can be banned by ID.",
		Usage:          "`{prefix}ban <@user|userID> [reason]`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionBanMembers,
		BotPermissions: discordgo.PermissionBanMembers,
		GuildOnly:      true,
		Run:            ban,
	}
}

func ban(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}

	id := utils.TrimUserMention(c.Args[0])
	target, err := c.ResolveMember(id)
	switch {
	case err == nil:
	case command.IsNotFound(err) && utils.IsSnowflake(id):
		return banByID(c, id)
	case command.IsNotFound(err):
		c.ReplyError("Could not find that user.", "Please mention a user, provide a valid user ID, or ensure the user exists.")
		return nil
	default:
		return err
	}
	if ok, err := checkTarget(c, target, "ban"); !ok {
		return err
	}

	r := reason(c, 1)
	// discord only delivers the message while the user still shares a server with the bot
	notify(c, target.User, fmt.Sprintf("You have been banned from %v.", c.Guild.Name), r, "ban")
	if err := c.Platform.Ban(c.Ctx, c.GuildID(), target.User.ID, auditReason(c, r), 0); err != nil {
		return err
	}
	if err := c.ModLog(record(c, database.ActionBan, target.User.ID, r)); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been banned.", target.User.String()), r)
	c.AuditLog(audit.Entry{
		Title:       "Member Banned",
		Description: fmt.Sprintf("%v was banned by %v.\nReason: %v", target.User.String(), c.Author().String(), r),
		Target:      target.User,
		Color:       utils.ColorRed,
	})
	return nil
}

func banByID(c *command.Context, userID string) error {
	user, err := c.Platform.User(c.Ctx, userID)
	if err != nil {
		if command.IsNotFound(err) {
			c.ReplyError("Could not find that user.", "Please mention a user, provide a valid user ID, or ensure the user exists.")
			return nil
		}
		return err
	}

	r := c.Rest(1)
	if r == "" {
		r = "No reason provided (banned by ID)."
	}
	if err := c.Platform.Ban(c.Ctx, c.GuildID(), user.ID, auditReason(c, r), 0); err != nil {
		return err
	}
	if err := c.ModLog(record(c, database.ActionBan, user.ID, r)); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v (ID: %v) has been banned.", user.String(), user.ID), r)
	c.AuditLog(audit.Entry{
		Title:       "Member Banned (ID)",
		Description: fmt.Sprintf("%v (ID: %v) was banned by %v.\nReason: %v", user.String(), user.ID, c.Author().String(), r),
		Target:      user,
		Color:       utils.ColorRed,
	})
	return nil
}

func newKickCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "kick",
		Aliases:        []string{"boot"},
		Description:    "Kicks a member from the server.",
		Usage:          "`{prefix}kick <@user|userID> [reason]`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionKickMembers,
		BotPermissions: discordgo.PermissionKickMembers,
		GuildOnly:      true,
		Run:            kick,
	}
}

func kick(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	target, err := resolveTarget(c, c.Args[0], "kick")
	if target == nil || err != nil {
		return err
	}

	r := reason(c, 1)
	notify(c, target.User, fmt.Sprintf("You have been kicked from %v.", c.Guild.Name), r, "kick")
	if err := c.Platform.Kick(c.Ctx, c.GuildID(), target.User.ID, auditReason(c, r)); err != nil {
		return err
	}
	if err := c.ModLog(record(c, database.ActionKick, target.User.ID, r)); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been kicked.", target.User.String()), r)
	c.AuditLog(audit.Entry{
		Title:       "Member Kicked",
		Description: fmt.Sprintf("%v was kicked by %v.\nReason: %v", target.User.String(), c.Author().String(), r),
		Target:      target.User,
		Color:       utils.ColorOrange,
	})
	return nil
}

func newWarnCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "warn",
		Aliases:     []string{"w"},
		Description: "Warns a member and records it in their moderation history.",
		Usage:       "`{prefix}warn <@user|userID> [reason]`",
		Category:    command.CategoryModeration,
		Permissions: discordgo.PermissionKickMembers,
		GuildOnly:   true,
		Run:         warn,
	}
}

func warn(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	target, err := resolveTarget(c, c.Args[0], "warn")
	if target == nil || err != nil {
		return err
	}

	r := reason(c, 1)
	notify(c, target.User, fmt.Sprintf("You have been warned in %v.", c.Guild.Name), r, "warning")
	if err := c.ModLog(record(c, database.ActionWarn, target.User.ID, r)); err != nil {
		return err
	}

	replyDone(c, fmt.Sprintf("%v has been warned.", target.User.String()), r)
	c.AuditLog(audit.Entry{
		Title:       "Member Warned",
		Description: fmt.Sprintf("%v was warned by %v.\nReason: %v", target.User.String(), c.Author().String(), r),
		Target:      target.User,
		Color:       utils.ColorOrange,
	})
	return nil
}
