package command

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

// runAutoRoleAlias handles "<prefix><alias> <@user>" for a guild auto role alias.
func runAutoRoleAlias(c *Context, alias, roleID string) error {
	c.Command = &Descriptor{
		Name:        alias,
		Description: fmt.Sprintf("Gives the <@&%v> role to a member.", roleID),
		Usage:       fmt.Sprintf("`{prefix}%v <@user|userID>`", alias),
		Category:    CategoryConfig,
		Permissions: discordgo.PermissionManageRoles,
	}

	if !c.Authorize(discordgo.PermissionManageRoles) || !c.BotCan(discordgo.PermissionManageRoles) {
		return nil
	}
	if len(c.Args) < 1 {
		return c.Usage()
	}

	role := permissions.Role(c.Guild, roleID)
	if role == nil {
		c.ReplyError("The role for this alias no longer exists.", fmt.Sprintf("Remove the alias with `%vsetautorolealias remove %v`.", c.Prefix, alias))
		return nil
	}

	bot, err := c.BotMember()
	if err != nil {
		return err
	}
	if !permissions.RoleManageable(c.Guild, bot, role.ID) {
		c.ReplyError(fmt.Sprintf("I cannot assign the role `%v` because it is equal to or higher than my highest role.", role.Name), "Move my highest role above it.")
		return nil
	}

	target, err := c.ResolveMember(c.Args[0])
	if err != nil {
		if errors.Is(err, permissions.ErrTargetUnavailable) {
			return c.Usage()
		}
		c.ReplyError("Could not find that member.", "Mention a member of this server or use their ID.")
		return nil
	}

	for _, id := range target.Roles {
		if id == role.ID {
			c.ReplyWarning(fmt.Sprintf("%v already has the `%v` role.", target.User.Mention(), role.Name))
			return nil
		}
	}

	reason := fmt.Sprintf("Auto-role alias %v used by %v", alias, c.Author().String())
	if err := c.Platform.AddRole(c.Ctx, c.GuildID(), target.User.ID, role.ID, reason); err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("Gave `%v` to %v.", role.Name, target.User.Mention()))
	c.AuditLog(audit.Entry{
		Title:       "Role Assigned",
		Description: fmt.Sprintf("%v was given the `%v` role using the `%v` alias.", target.User.Mention(), role.Name, alias),
		Target:      target.User,
		Color:       utils.ColorGreen,
	})
	return nil
}
