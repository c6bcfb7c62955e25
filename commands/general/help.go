package general

import (
	"fmt"
	"strings"
	"time"

	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

var categoryOrder = []command.Category{
	command.CategoryConfig,
	command.CategoryModeration,
	command.CategoryGeneral,
	command.CategoryUtility,
}

func newHelpCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "help",
		Aliases:     []string{"h", "commands", "cmds"},
		Description: "Shows the list of commands or details for a specific command.",
		Usage:       "`{prefix}help [command]`",
		Category:    command.CategoryGeneral,
		Cooldown:    3 * time.Second,
		Run:         help,
	}
}

func help(c *command.Context) error {
	if len(c.Args) > 0 {
		return helpFor(c, strings.ToLower(c.Args[0]))
	}

	byCategory := make(map[command.Category][]string)
	for _, cmd := range c.Registry.Commands() {
		if cmd.OwnerOnly && c.Author().ID != c.OwnerID {
			continue
		}
		byCategory[cmd.Category] = append(byCategory[cmd.Category], "`"+cmd.Name+"`")
	}

	e := utils.NewEmbed(
		"Pookie Commands",
		fmt.Sprintf("Prefix for this server: `%v`\nType `%vhelp <command>` for detailed info on a command.", c.Prefix, c.Prefix),
		utils.ColorBlue,
	)
	for _, cat := range categoryOrder {
		names := byCategory[cat]
		if len(names) == 0 {
			continue
		}
		e.Fields = append(e.Fields, utils.Field(fmt.Sprintf("%v [%v]", cat, len(names)), strings.Join(names, " • "), false))
	}
	_, _ = c.ReplyEmbed(e)
	return nil
}

func helpFor(c *command.Context, typed string) error {
	name := c.Resolver.Resolve(c.Ctx, typed, c.GuildID())
	cmd, ok := c.Registry.Lookup(name)
	if !ok {
		c.ReplyError(fmt.Sprintf("Command not found: `%v`", typed), fmt.Sprintf("Try `%vhelp` to view all commands.", c.Prefix))
		return nil
	}

	aliases := "None"
	if len(cmd.Aliases) > 0 {
		aliases = "`" + strings.Join(cmd.Aliases, "`, `") + "`"
	}
	cooldown := "None"
	if cmd.Cooldown > 0 {
		cooldown = utils.FormatDuration(cmd.Cooldown)
	}

	e := utils.NewEmbed("Help: "+cmd.Name, cmd.Description, utils.ColorBlue,
		utils.Field("Usage", strings.ReplaceAll(cmd.Usage, "{prefix}", c.Prefix), false),
		utils.Field("Category", string(cmd.Category), true),
		utils.Field("Aliases", aliases, true),
		utils.Field("Cooldown", cooldown, true),
	)
	switch {
	case cmd.OwnerOnly:
		e.Fields = append(e.Fields, utils.Field("Required Permissions", "Bot owner", false))
	case cmd.Permissions != 0:
		e.Fields = append(e.Fields, utils.Field("Required Permissions", strings.Join(permissions.Names(cmd.Permissions), ", "), false))
	}
	_, _ = c.ReplyEmbed(e)
	return nil
}
