package moderation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

const (
	maxPurge = 100
	// discord refuses to bulk delete messages older than two weeks
	bulkDeleteWindow = 14 * 24 * time.Hour
)

func newPurgeCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "purge",
		Aliases:        []string{"clear"},
		Description:    "Bulk deletes recent messages in the current channel.",
		Usage:          "`{prefix}purge <1-100>`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageMessages,
		BotPermissions: discordgo.PermissionManageMessages,
		GuildOnly:      true,
		Run:            purge,
	}
}

func purge(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	amount, err := strconv.Atoi(c.Args[0])
	if err != nil || amount < 1 || amount > maxPurge {
		c.ReplyError("Invalid amount.", fmt.Sprintf("Please provide a number between 1 and %v.", maxPurge))
		return nil
	}

	msgs, err := c.Platform.RecentMessages(c.Ctx, c.Message.ChannelID, min(amount+1, maxPurge))
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-bulkDeleteWindow)
	ids := make([]string, 0, amount)
	for _, m := range msgs {
		if len(ids) == amount {
			break
		}
		if m.ID == c.Message.ID {
			continue
		}
		if !m.Timestamp.IsZero() && m.Timestamp.Before(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}

	r := fmt.Sprintf("Purge by %v", c.Author().String())
	if err := c.Platform.DeleteMessages(c.Ctx, c.Message.ChannelID, ids, r); err != nil {
		return err
	}

	entry := record(c, database.ActionPurge, c.Message.ChannelID, fmt.Sprintf("Deleted %v messages.", len(ids)))
	if err := c.ModLog(entry); err != nil {
		return err
	}

	_, _ = c.ReplyEmbed(utils.NewEmbed("Purge complete", fmt.Sprintf("Deleted %v messages.", len(ids)), utils.ColorGreen))
	c.AuditLog(audit.Entry{
		Title:       "Messages Purged",
		Description: fmt.Sprintf("%v messages were deleted in <#%v> by %v.", len(ids), c.Message.ChannelID, c.Author().String()),
		Color:       utils.ColorOrange,
	})
	return nil
}
