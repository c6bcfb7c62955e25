package settings

import (
	"fmt"
	"strings"

	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

func newSetModRoleCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "setmodrole",
		Aliases:     []string{"addmodrole", "removemodrole", "modroles"},
		Description: "Manages roles that are allowed to use moderation commands.",
		Usage:       "`{prefix}setmodrole add <@role|roleID|roleName>`\n`{prefix}setmodrole remove <@role|roleID|roleName>`\n`{prefix}setmodrole list`",
		Category:    command.CategoryConfig,
		Permissions: manageConfig,
		GuildOnly:   true,
		Run:         setModRole,
	}
}

var modRoleImplied = map[string]string{
	"addmodrole":    "add",
	"removemodrole": "remove",
	"modroles":      "list",
}

func setModRole(c *command.Context) error {
	sub, args := subcommand(c, modRoleImplied)
	switch sub {
	case "add", "remove":
		if len(args) < 1 {
			return c.Usage()
		}
		return changeModRole(c, sub == "add", strings.Join(args, " "))
	case "list":
		return listModRoles(c)
	}
	return c.UsageWith(utils.Field("Current Moderator Roles", modRoleNames(c, ", "), false))
}

func modRoleNames(c *command.Context, sep string) string {
	if len(c.Config.ModRoles) == 0 {
		return "None"
	}
	names := make([]string, len(c.Config.ModRoles))
	for i, id := range c.Config.ModRoles {
		names[i] = roleName(c.Guild, id)
	}
	return strings.Join(names, sep)
}

func changeModRole(c *command.Context, add bool, arg string) error {
	role := c.ResolveRole(arg)
	if role == nil {
		replyRoleNotFound(c)
		return nil
	}

	has := c.Config.HasModRole(role.ID)
	switch {
	case add && has:
		c.ReplyWarning(fmt.Sprintf("`%v` is already a moderator role.", role.Name))
		return nil
	case !add && !has:
		c.ReplyWarning(fmt.Sprintf("`%v` is not currently a moderator role.", role.Name))
		return nil
	}

	err := update(c, func(gc *database.GuildConfig) error {
		gc.ModRoles = remove(gc.ModRoles, role.ID)
		if add {
			gc.ModRoles = append(gc.ModRoles, role.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if add {
		c.ReplySuccess(fmt.Sprintf("`%v` has been added as a moderator role.", role.Name))
		c.AuditLog(audit.Entry{Title: "Moderator Role Added", Description: fmt.Sprintf("<@&%v> can now use moderation commands.", role.ID)})
		return nil
	}
	c.ReplySuccess(fmt.Sprintf("`%v` has been removed from moderator roles.", role.Name))
	c.AuditLog(audit.Entry{Title: "Moderator Role Removed", Description: fmt.Sprintf("<@&%v> can no longer use moderation commands.", role.ID)})
	return nil
}

func listModRoles(c *command.Context) error {
	text := `No moderator roles configured. Server owners and users with "Manage Server" will still be able to use mod commands.`
	if len(c.Config.ModRoles) > 0 {
		lines := make([]string, len(c.Config.ModRoles))
		for i, id := range c.Config.ModRoles {
			lines[i] = fmt.Sprintf("%v (ID: %v)", roleName(c.Guild, id), id)
		}
		text = strings.Join(lines, "\n")
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("Configured Moderator Roles", text, utils.ColorBlue))
	return nil
}
