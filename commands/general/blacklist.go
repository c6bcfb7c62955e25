package general

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

func newBlacklistCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "blacklist",
		Aliases:     []string{"bl"},
		Description: "Manages the bot's user blacklist. Blacklisted users cannot use any command.",
		Usage:       "`{prefix}blacklist add <@user|userID> [reason]`\n`{prefix}blacklist remove <@user|userID>`\n`{prefix}blacklist list`",
		Category:    command.CategoryGeneral,
		OwnerOnly:   true,
		Run:         blacklist,
	}
}

func blacklist(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	switch strings.ToLower(c.Args[0]) {
	case "add":
		return blacklistAdd(c)
	case "remove":
		return blacklistRemove(c)
	case "list":
		return blacklistList(c)
	}
	return c.Usage()
}

// resolveUser finds any discord user from a mention or id, replying when it cannot.
func resolveUser(c *command.Context, arg string) (*discordgo.User, error) {
	id := utils.TrimUserMention(arg)
	if !utils.IsSnowflake(id) {
		c.ReplyError("Could not find that user.", "Please mention a user or provide a valid user ID.")
		return nil, nil
	}
	u, err := c.Platform.User(c.Ctx, id)
	if err != nil {
		if command.IsNotFound(err) {
			c.ReplyError("Could not find that user.", "Please mention a user or provide a valid user ID.")
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func blacklistAdd(c *command.Context) error {
	if len(c.Args) < 2 {
		return c.Usage()
	}
	u, err := resolveUser(c, c.Args[1])
	if u == nil || err != nil {
		return err
	}

	switch u.ID {
	case c.OwnerID:
		c.ReplyWarning("You cannot blacklist the bot owner.")
		return nil
	case c.Platform.BotUser().ID:
		c.ReplyWarning("You cannot blacklist Pookie.")
		return nil
	}

	_, err = c.DB.GetBlacklist(c.Ctx, u.ID)
	switch {
	case err == nil:
		c.ReplyWarning(fmt.Sprintf("%v is already blacklisted.", u.String()))
		return nil
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	r := c.Rest(2)
	if r == "" {
		r = database.DefaultReason
	}
	err = c.DB.AddBlacklist(c.Ctx, &database.UserBlacklist{
		UserID:        u.ID,
		Reason:        r,
		BlacklistedBy: c.Author().ID,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("Success ✅", fmt.Sprintf("%v has been added to the blacklist.", u.String()), utils.ColorGreen,
		utils.Field("Reason", r, false)))
	return nil
}

func blacklistRemove(c *command.Context) error {
	if len(c.Args) < 2 {
		return c.Usage()
	}
	u, err := resolveUser(c, c.Args[1])
	if u == nil || err != nil {
		return err
	}

	if err := c.DB.RemoveBlacklist(c.Ctx, u.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.ReplyWarning(fmt.Sprintf("%v is not currently blacklisted.", u.String()))
			return nil
		}
		return err
	}
	c.ReplySuccess(fmt.Sprintf("%v has been removed from the blacklist.", u.String()))
	return nil
}

func blacklistList(c *command.Context) error {
	list, err := c.DB.ListBlacklist(c.Ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.ReplySuccess("The blacklist is currently empty.")
		return nil
	}

	var sb strings.Builder
	for _, e := range list {
		name := "Unknown User"
		if u, err := c.Platform.User(c.Ctx, e.UserID); err == nil {
			name = u.String()
		}
		fmt.Fprintf(&sb, "**%v** (`%v`)\n- Reason: %v\n- Blacklisted by: <@%v>\n\n", name, e.UserID, e.Reason, e.BlacklistedBy)
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("Pookie Blacklist", strings.TrimSpace(sb.String()), utils.ColorBlue))
	return nil
}
