package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

// bulkTimeout bounds a confirmed bulk run, which can take a while on large guilds.
const bulkTimeout = 30 * time.Minute

type BulkResult struct {
	Changed int
	Failed  int
}

// ApplyRole adds (or removes) roleID on every human member that does not already have (or lack) it.
// Members are handled one at a time and a failure never stops the run.
func ApplyRole(ctx context.Context, p command.Platform, guildID, roleID, reason string, members []*discordgo.Member, add bool) BulkResult {
	var res BulkResult
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}
		if memberHasRole(m, roleID) == add {
			continue
		}

		var err error
		if add {
			err = p.AddRole(ctx, guildID, m.User.ID, roleID, reason)
		} else {
			err = p.RemoveRole(ctx, guildID, m.User.ID, roleID, reason)
		}
		if err != nil {
			res.Failed++
			continue
		}
		res.Changed++
	}
	return res
}

func memberHasRole(m *discordgo.Member, roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// bulkRole is the shared flow of roleall and reverse.
type bulkRole struct {
	add    bool
	name   string
	action database.Action
}

func (b bulkRole) verb() string {
	if b.add {
		return "assign"
	}
	return "remove"
}

func (b bulkRole) run(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	role := c.ResolveRole(c.Rest(0))
	if role == nil || role.ID == c.GuildID() {
		c.ReplyError("Could not find that role.", "Please mention a role, provide a valid role ID, or the exact role name.")
		return nil
	}

	if c.Author().ID != c.Guild.OwnerID && role.Position >= permissions.HighestPosition(c.Guild, c.Member) {
		c.ReplyError(fmt.Sprintf("You cannot %v a role that is equal to or higher than your highest role.", b.verb()), "")
		return nil
	}
	bot, err := c.BotMember()
	if err != nil {
		return err
	}
	if !permissions.RoleManageable(c.Guild, bot, role.ID) {
		c.ReplyError(
			fmt.Sprintf("I cannot %v the role `%v` because it is equal to or higher than my highest role.", b.verb(), role.Name),
			"Please ensure Pookie's highest role is above the role you are trying to manage.",
		)
		return nil
	}

	question := fmt.Sprintf("Are you sure you want to assign the role `%v` to **all human members** in this server?", role.Name)
	if !b.add {
		question = fmt.Sprintf("Are you sure you want to **remove** the role `%v` from **all human members** who currently have it in this server?", role.Name)
	}
	prompt, err := c.ReplyEmbed(utils.NewEmbed("Warning ⚠️", question, utils.ColorOrange,
		utils.Field("Confirm", "React with ✅ to confirm, or ❌ to cancel.", false)))
	if err != nil {
		return err
	}
	for _, emoji := range []string{confirm.EmojiConfirm, confirm.EmojiCancel} {
		if err := c.Platform.AddReaction(c.Ctx, prompt.ChannelID, prompt.ID, emoji); err != nil {
			return err
		}
	}

	cc := *c
	c.Confirm.Open(prompt.ID, c.Author().ID, confirm.DefaultTimeout, func(state confirm.State) {
		ctx, cancel := context.WithTimeout(context.Background(), bulkTimeout)
		defer cancel()
		cc.Ctx = ctx
		b.resolve(&cc, role, prompt, state)
	})
	return nil
}

func (b bulkRole) resolve(c *command.Context, role *discordgo.Role, prompt *discordgo.Message, state confirm.State) {
	if err := c.Platform.DeleteMessages(c.Ctx, prompt.ChannelID, []string{prompt.ID}, ""); err != nil {
		c.Log.Debug("failed to delete confirmation prompt", zap.String("messageID", prompt.ID), zap.Error(err))
	}

	switch state {
	case confirm.Cancelled:
		c.ReplyError(fmt.Sprintf("%v command cancelled.", b.name), "")
		return
	case confirm.Expired:
		c.ReplyError(fmt.Sprintf("%v command timed out. Please try again.", b.name), "")
		return
	}

	members, err := c.Platform.Members(c.Ctx, c.GuildID())
	if err != nil {
		c.Log.Error("failed to fetch members", zap.String("guildID", c.GuildID()), zap.Error(err))
		c.ReplyError("Failed to fetch the member list.", fmt.Sprintf("```%v```", err))
		return
	}

	_, _ = c.Send(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{utils.WarningEmbed(
		fmt.Sprintf("Attempting to %v `%v` for all human members. This may take a while for large servers.", b.verb(), role.Name),
	)}})

	res := ApplyRole(c.Ctx, c.Platform, c.GuildID(), role.ID, fmt.Sprintf("%v by %v", b.name, c.Author().String()), members, b.add)

	summary := fmt.Sprintf("Assigned `%v` to **%v** human members.\nFailed to assign to **%v** members.", role.Name, res.Changed, res.Failed)
	logReason := fmt.Sprintf("Assigned role to %v members. Failed on %v.", res.Changed, res.Failed)
	title := "Role All Applied"
	if !b.add {
		summary = fmt.Sprintf("Removed `%v` from **%v** human members.\nFailed to remove from **%v** members.", role.Name, res.Changed, res.Failed)
		logReason = fmt.Sprintf("Removed role from %v members. Failed on %v.", res.Changed, res.Failed)
		title = "Role All Reversed"
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed(b.name+" completed!", summary, utils.ColorGreen))

	if err := c.ModLog(record(c, b.action, role.ID, logReason)); err != nil {
		c.Log.Error("failed to save mod log", zap.String("guildID", c.GuildID()), zap.Error(err))
		return
	}
	c.AuditLog(audit.Entry{
		Title:       title,
		Description: fmt.Sprintf("Role `%v`: %v changed by %v.\n%v", role.Name, res.Changed, c.Author().String(), logReason),
		Color:       utils.ColorBlue,
	})
}

func newRoleAllCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "roleall",
		Aliases:        []string{"giveroleall", "addroleall"},
		Description:    "Assigns a role to all human members in the server.",
		Usage:          "`{prefix}roleall <@role|roleID|roleName>`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageRoles,
		BotPermissions: discordgo.PermissionManageRoles,
		GuildOnly:      true,
		Run:            bulkRole{add: true, name: "Roleall", action: database.ActionRoleAll}.run,
	}
}

func newReverseCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:           "reverse",
		Aliases:        []string{"removeroleall", "delroleall"},
		Description:    "Removes a role from all human members who have it.",
		Usage:          "`{prefix}reverse <@role|roleID|roleName>`",
		Category:       command.CategoryModeration,
		Permissions:    discordgo.PermissionManageRoles,
		BotPermissions: discordgo.PermissionManageRoles,
		GuildOnly:      true,
		Run:            bulkRole{name: "Reverse role", action: database.ActionReverse}.run,
	}
}
