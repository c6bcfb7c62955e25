package settings

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

var (
	errAliasInUse   = errors.New("alias already in use")
	errAliasMissing = errors.New("alias does not exist")
)

func newSetAutoRoleAliasCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "setautorolealias",
		Aliases:        []string{"rolealias", "aralias"},
		Description:    "Manages aliases for auto-role assignments. Create custom commands to give specific roles.",
		Usage:          "`{prefix}setautorolealias add <alias_name> <@role|roleID|roleName>`\n`{prefix}setautorolealias remove <alias_name>`\n`{prefix}setautorolealias list`",
		Category:       command.CategoryConfig,
		Permissions:    discordgo.PermissionManageRoles | manageConfig,
		BotPermissions: discordgo.PermissionManageRoles,
		GuildOnly:      true,
		Run:            setAutoRoleAlias,
	}
}

func newAliasCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "alias",
		Aliases:     []string{"customalias"},
		Description: "Manages custom command aliases for this server.",
		Usage:       "`{prefix}alias add <alias_name> <command>`\n`{prefix}alias remove <alias_name>`\n`{prefix}alias list`",
		Category:    command.CategoryConfig,
		Permissions: manageConfig,
		GuildOnly:   true,
		Run:         customAlias,
	}
}

// updateAliases applies fn to the latest alias config.
func updateAliases(c *command.Context, fn func(ac *database.AliasConfig) error) error {
	_, err := database.UpdateAliasConfig(c.Ctx, c.DB, c.GuildID(), fn)
	return err
}

// aliasTaken reports whether alias is already used by either kind of guild alias.
func aliasTaken(ac *database.AliasConfig, alias string) bool {
	_, custom := ac.Aliases[alias]
	_, role := ac.AutoRoleAliases[alias]
	return custom || role
}

// validateNewAlias replies and returns false when alias cannot be created.
func validateNewAlias(c *command.Context, alias string) bool {
	err := command.ValidateAlias(c.Registry, alias)
	switch {
	case errors.Is(err, command.ErrAliasTaken):
		c.ReplyWarning(fmt.Sprintf("`%v` is already a command or global alias. Please choose a different alias name.", alias))
		return false
	case err != nil:
		c.ReplyError("Invalid alias name.", "Aliases must be a single word.")
		return false
	}
	return true
}

func setAutoRoleAlias(c *command.Context) error {
	sub, args := subcommand(c, nil)
	switch sub {
	case "add":
		if len(args) < 2 {
			return c.Usage()
		}
		return addAutoRoleAlias(c, strings.ToLower(args[0]), strings.Join(args[1:], " "))
	case "remove":
		if len(args) < 1 {
			return c.Usage()
		}
		return removeAlias(c, strings.ToLower(args[0]), func(ac *database.AliasConfig) map[string]string { return ac.AutoRoleAliases }, "Auto-role alias")
	case "list":
		return listAutoRoleAliases(c)
	}
	return c.Usage()
}

func addAutoRoleAlias(c *command.Context, alias, roleArg string) error {
	role := c.ResolveRole(roleArg)
	if role == nil {
		replyRoleNotFound(c)
		return nil
	}
	if !validateNewAlias(c, alias) {
		return nil
	}

	bot, err := c.BotMember()
	if err != nil {
		return err
	}
	if !permissions.RoleManageable(c.Guild, bot, role.ID) {
		c.ReplyError(
			fmt.Sprintf("I cannot assign the role `%v` because it is equal to or higher than my highest role.", role.Name),
			"Please ensure Pookie's highest role is above the role you are trying to alias.",
		)
		return nil
	}

	err = updateAliases(c, func(ac *database.AliasConfig) error {
		if _, custom := ac.Aliases[alias]; custom {
			return errAliasInUse
		}
		ac.AutoRoleAliases[alias] = role.ID
		return nil
	})
	if errors.Is(err, errAliasInUse) {
		c.ReplyWarning(fmt.Sprintf("`%v` is already a custom command alias in this server.", alias))
		return nil
	}
	if err != nil {
		return err
	}

	_, _ = c.ReplyEmbed(utils.NewEmbed("Success ✅",
		fmt.Sprintf("Auto-role alias `%v` has been set for role `%v`.", alias, role.Name),
		utils.ColorGreen,
		utils.Field("Usage", fmt.Sprintf("`%v%v <@user|userID>` will now assign this role.", c.Prefix, alias), false),
	))
	c.AuditLog(audit.Entry{
		Title:       "Auto-role Alias Added",
		Description: fmt.Sprintf("`%v` now assigns <@&%v>.", alias, role.ID),
	})
	return nil
}

func listAutoRoleAliases(c *command.Context) error {
	ac, err := database.GetAliasConfig(c.Ctx, c.DB, c.GuildID())
	if err != nil {
		return err
	}
	if len(ac.AutoRoleAliases) == 0 {
		c.ReplySuccess("No auto-role aliases configured for this server.")
		return nil
	}

	var fields []*discordgo.MessageEmbedField
	for _, alias := range sortedKeys(ac.AutoRoleAliases) {
		fields = append(fields, utils.Field(fmt.Sprintf("Alias: `%v`", alias), "Role: "+roleName(c.Guild, ac.AutoRoleAliases[alias]), false))
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("Auto-role Aliases", "These aliases can be used to quickly assign roles:", utils.ColorBlue, fields...))
	return nil
}

func customAlias(c *command.Context) error {
	sub, args := subcommand(c, nil)
	switch sub {
	case "add":
		if len(args) < 2 {
			return c.Usage()
		}
		return addCustomAlias(c, strings.ToLower(args[0]), strings.ToLower(args[1]))
	case "remove":
		if len(args) < 1 {
			return c.Usage()
		}
		return removeAlias(c, strings.ToLower(args[0]), func(ac *database.AliasConfig) map[string]string { return ac.Aliases }, "Alias")
	case "list":
		return listCustomAliases(c)
	}
	return c.Usage()
}

func addCustomAlias(c *command.Context, alias, target string) error {
	canonical, err := command.AliasTarget(c.Registry, target)
	if err != nil {
		c.ReplyError(fmt.Sprintf("`%v` is not a command.", target), fmt.Sprintf("Use `%vhelp` to see every command.", c.Prefix))
		return nil
	}
	if !validateNewAlias(c, alias) {
		return nil
	}

	err = updateAliases(c, func(ac *database.AliasConfig) error {
		if _, role := ac.AutoRoleAliases[alias]; role {
			return errAliasInUse
		}
		ac.Aliases[alias] = canonical
		return nil
	})
	if errors.Is(err, errAliasInUse) {
		c.ReplyWarning(fmt.Sprintf("`%v` is already an auto-role alias in this server.", alias))
		return nil
	}
	if err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("`%v%v` will now run `%v`.", c.Prefix, alias, canonical))
	c.AuditLog(audit.Entry{
		Title:       "Alias Added",
		Description: fmt.Sprintf("`%v` is now an alias of `%v`.", alias, canonical),
	})
	return nil
}

func listCustomAliases(c *command.Context) error {
	ac, err := database.GetAliasConfig(c.Ctx, c.DB, c.GuildID())
	if err != nil {
		return err
	}
	if len(ac.Aliases) == 0 {
		c.ReplySuccess("No custom aliases configured for this server.")
		return nil
	}

	lines := make([]string, 0, len(ac.Aliases))
	for _, alias := range sortedKeys(ac.Aliases) {
		lines = append(lines, fmt.Sprintf("`%v` → `%v`", alias, ac.Aliases[alias]))
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("Custom Aliases", strings.Join(lines, "\n"), utils.ColorBlue))
	return nil
}

func removeAlias(c *command.Context, alias string, aliases func(ac *database.AliasConfig) map[string]string, label string) error {
	err := updateAliases(c, func(ac *database.AliasConfig) error {
		m := aliases(ac)
		if _, ok := m[alias]; !ok {
			return errAliasMissing
		}
		delete(m, alias)
		return nil
	})
	if errors.Is(err, errAliasMissing) {
		c.ReplyWarning(fmt.Sprintf("No %v found for `%v`.", strings.ToLower(label), alias))
		return nil
	}
	if err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("%v `%v` has been removed.", label, alias))
	c.AuditLog(audit.Entry{
		Title:       label + " Removed",
		Description: fmt.Sprintf("`%v` was removed.", alias),
	})
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
