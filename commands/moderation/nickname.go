package moderation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

const maxNicknameLen = 32

func newNicknameCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "nickname",
		Aliases:        []string{"nick", "setnick"},
		Description:    "Changes or resets the nickname of a member.",
		Usage:          "`{prefix}nickname <@user|userID> [new_nickname | reset]`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageNicknames,
		BotPermissions: discordgo.PermissionManageNicknames,
		GuildOnly:      true,
		Run:            nickname,
	}
}

func nickname(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	target, err := resolveTarget(c, c.Args[0], "change the nickname of")
	if target == nil || err != nil {
		return err
	}

	nick := c.Rest(1)
	reset := nick == "" || strings.EqualFold(nick, "reset")
	if reset {
		nick = ""
	}
	if utf8.RuneCountInString(nick) > maxNicknameLen {
		c.ReplyError("Nickname too long.", fmt.Sprintf("Nicknames cannot exceed %v characters.", maxNicknameLen))
		return nil
	}

	r := fmt.Sprintf("Nickname changed by %v", c.Author().String())
	description := fmt.Sprintf("Nickname for %v changed to `%v`.", target.User.String(), nick)
	if reset {
		r = fmt.Sprintf("Nickname reset by %v", c.Author().String())
		description = fmt.Sprintf("Nickname for %v has been reset.", target.User.String())
	}

	if err := c.Platform.SetNickname(c.Ctx, c.GuildID(), target.User.ID, nick, r); err != nil {
		return err
	}

	entry := record(c, database.ActionNickname, target.User.ID, r)
	if !reset {
		entry.Reason = fmt.Sprintf("%v: %v -> %v", r, target.Nick, nick)
	}
	if err := c.ModLog(entry); err != nil {
		return err
	}

	c.ReplySuccess(description)
	c.AuditLog(audit.Entry{
		Title:       "Nickname Changed",
		Description: description,
		Target:      target.User,
		Color:       utils.ColorBlue,
	})
	return nil
}
