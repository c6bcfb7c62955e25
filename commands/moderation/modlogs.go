package moderation

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/utils"
)

const maxListedModLogs = 10

func newModLogsCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "modlogs",
		Aliases:     []string{"history", "cases"},
		Description: "Shows the most recent moderation actions of the server, or against one user.",
		Usage:       "`{prefix}modlogs [@user|userID]`",
		Category:    command.CategoryModeration,
		Permissions: discordgo.PermissionKickMembers,
		GuildOnly:   true,
		Run:         modlogs,
	}
}

func modlogs(c *command.Context) error {
	targetID := ""
	title := "Moderation History"
	if len(c.Args) > 0 {
		targetID = utils.TrimUserMention(c.Args[0])
		if !utils.IsSnowflake(targetID) {
			c.ReplyError("Could not find that user.", "Please mention a user or provide a valid user ID.")
			return nil
		}
		title = "Moderation History for " + targetID
		if u, err := c.Platform.User(c.Ctx, targetID); err == nil {
			title = "Moderation History for " + u.String()
		}
	}

	logs, err := c.DB.ListModLogs(c.Ctx, c.GuildID(), targetID)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		c.ReplyWarning("No moderation records found.")
		return nil
	}

	var sb strings.Builder
	shown := 0
	for i := len(logs) - 1; i >= 0 && shown < maxListedModLogs; i-- {
		l := logs[i]
		fmt.Fprintf(&sb, "**%v** <t:%v:R> by <@%v>", strings.ToUpper(string(l.Action)), l.Timestamp.Unix(), l.ModeratorID)
		if targetID == "" {
			fmt.Fprintf(&sb, " on `%v`", l.TargetID)
		}
		if l.Duration != nil {
			fmt.Fprintf(&sb, " for %v", utils.FormatDuration(*l.Duration))
		}
		fmt.Fprintf(&sb, "\n> %v\n", l.Reason)
		shown++
	}

	e := utils.NewEmbed(title, sb.String(), utils.ColorBlue)
	e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing %v of %v records", shown, len(logs))}
	_, _ = c.ReplyEmbed(e)
	return nil
}
