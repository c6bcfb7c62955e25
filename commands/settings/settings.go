// Package settings holds the commands that change a guild's configuration.
package settings

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
)

const manageConfig = discordgo.PermissionManageServer

func Commands() []*command.Descriptor {
	return []*command.Descriptor{
		newSetPrefixCommand(),
		newSetAuditLogChannelCommand(),
		newSetModRoleCommand(),
		newSetAutoRoleCommand(),
		newSetVCRoleCommand(),
		newSetAutoRoleAliasCommand(),
		newAliasCommand(),
		newIgnoreChannelCommand(),
	}
}

// update saves a change to the guild config and keeps the context copy current.
func update(c *command.Context, fn func(gc *database.GuildConfig) error) error {
	gc, err := database.UpdateGuildConfig(c.Ctx, c.DB, c.GuildID(), c.DefaultPrefix, fn)
	if err != nil {
		return err
	}
	c.Config = gc
	return nil
}

// subcommand returns the subcommand and its arguments. Aliases such as
// addmodrole imply their subcommand.
func subcommand(c *command.Context, implied map[string]string) (string, []string) {
	if sub, ok := implied[c.Invoked]; ok {
		return sub, c.Args
	}
	if len(c.Args) == 0 {
		return "", nil
	}
	return strings.ToLower(c.Args[0]), c.Args[1:]
}

func roleName(g *discordgo.Guild, id string) string {
	if r := permissions.Role(g, id); r != nil {
		return fmt.Sprintf("`%v`", r.Name)
	}
	return fmt.Sprintf("`Unknown Role (ID: %v)`", id)
}

func replyRoleNotFound(c *command.Context) {
	c.ReplyError("Could not find that role.", "Please mention a role, provide a valid role ID, or the exact role name.")
}

func replyChannelNotFound(c *command.Context) {
	c.ReplyError("Invalid channel provided.", "Please mention a text channel or provide a valid channel ID.")
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
