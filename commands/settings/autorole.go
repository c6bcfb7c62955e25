package settings

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
)

// roleSetting configures a single optional role, such as the auto role.
type roleSetting struct {
	label   string
	field   func(gc *database.GuildConfig) *database.RoleSetting
	enabled string
}

func newSetAutoRoleCommand() *command.Descriptor {
	s := &roleSetting{
		label:   "Auto-role",
		field:   func(gc *database.GuildConfig) *database.RoleSetting { return &gc.AutoRole },
		enabled: "New members will now receive this role.",
	}
	return &command.Descriptor{
		Name:           "setautorole",
		Aliases:        []string{"autorole", "joinrole"},
		Description:    "Configures the auto-role for new members.",
		Usage:          "`{prefix}setautorole <@role|roleID|roleName|disable>`",
		Category:       command.CategoryConfig,
		Permissions:    discordgo.PermissionManageRoles | manageConfig,
		BotPermissions: discordgo.PermissionManageRoles,
		GuildOnly:      true,
		Run:            s.run,
	}
}

func newSetVCRoleCommand() *command.Descriptor {
	s := &roleSetting{
		label:   "In-VC role",
		field:   func(gc *database.GuildConfig) *database.RoleSetting { return &gc.InVCRole },
		enabled: "Members will receive this role while they are in a voice channel.",
	}
	return &command.Descriptor{
		Name:           "setvcrole",
		Aliases:        []string{"vcrole", "invcrole"},
		Description:    "Configures the role given to members while they are in a voice channel.",
		Usage:          "`{prefix}setvcrole <@role|roleID|roleName|disable>`",
		Category:       command.CategoryConfig,
		Permissions:    discordgo.PermissionManageRoles | manageConfig,
		BotPermissions: discordgo.PermissionManageRoles,
		GuildOnly:      true,
		Run:            s.run,
	}
}

func (s *roleSetting) run(c *command.Context) error {
	if len(c.Args) < 1 {
		current := "None"
		if rs := s.field(c.Config); rs.Enabled && rs.RoleID != "" {
			current = roleName(c.Guild, rs.RoleID)
		}
		return c.UsageWith(utils.Field("Current "+s.label, current, false))
	}

	input := c.Rest(0)
	if strings.EqualFold(input, "disable") {
		err := update(c, func(gc *database.GuildConfig) error {
			*s.field(gc) = database.RoleSetting{}
			return nil
		})
		if err != nil {
			return err
		}
		c.ReplySuccess(fmt.Sprintf("%v has been disabled.", s.label))
		c.AuditLog(audit.Entry{Title: s.label + " Disabled", Description: fmt.Sprintf("%v was disabled.", s.label)})
		return nil
	}

	role := c.ResolveRole(input)
	if role == nil {
		replyRoleNotFound(c)
		return nil
	}

	bot, err := c.BotMember()
	if err != nil {
		return err
	}
	if !permissions.RoleManageable(c.Guild, bot, role.ID) {
		c.ReplyError(
			fmt.Sprintf("I cannot assign the role `%v` because it is equal to or higher than my highest role.", role.Name),
			"Please ensure Pookie's highest role is above the role you are trying to set.",
		)
		return nil
	}

	err = update(c, func(gc *database.GuildConfig) error {
		*s.field(gc) = database.RoleSetting{RoleID: role.ID, Enabled: true}
		return nil
	})
	if err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("%v has been set to `%v`. %v", s.label, role.Name, s.enabled))
	c.AuditLog(audit.Entry{Title: s.label + " Set", Description: fmt.Sprintf("%v was set to <@&%v>.", s.label, role.ID)})
	return nil
}
