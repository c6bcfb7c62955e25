package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

// Services are the long lived dependencies shared by every invocation.
type Services struct {
	Platform Platform
	DB       database.DB
	Perms    *permissions.Evaluator
	Audit    *audit.Logger
	Confirm  *confirm.Tracker
	Registry *Registry
	Resolver *Resolver
	Log      mio.Logger

	OwnerID       string
	DefaultPrefix string
}

// Context is a single command invocation.
type Context struct {
	*Services

	Ctx     context.Context
	Message *discordgo.Message
	Command *Descriptor
	Args    []string
	Prefix  string

	// Invoked is the lowercased name the user typed, before alias resolution.
	Invoked string

	// Guild, Member and Config are nil in direct messages.
	Guild  *discordgo.Guild
	Member *discordgo.Member
	Config *database.GuildConfig
}

func (c *Context) Author() *discordgo.User {
	return c.Message.Author
}

func (c *Context) GuildID() string {
	if c.Guild == nil {
		return ""
	}
	return c.Guild.ID
}

// Rest joins the arguments from index i onward.
func (c *Context) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

func (c *Context) Arg(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

func (c *Context) Reply(text string) (*discordgo.Message, error) {
	return c.Send(&discordgo.MessageSend{
		Content:   text,
		Reference: c.Message.Reference(),
	})
}

func (c *Context) ReplyEmbed(e *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.Send(&discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{e},
		Reference: c.Message.Reference(),
	})
}

func (c *Context) Send(msg *discordgo.MessageSend) (*discordgo.Message, error) {
	m, err := c.Platform.SendMessage(c.Ctx, c.Message.ChannelID, msg)
	if err != nil {
		c.Log.Error("failed to send reply", zap.String("channelID", c.Message.ChannelID), zap.Error(err))
	}
	return m, err
}

// ReplyError replies with an error embed. Failures to send are only logged.
func (c *Context) ReplyError(description, solution string) {
	_, _ = c.ReplyEmbed(utils.ErrorEmbed(description, solution))
}

func (c *Context) ReplySuccess(description string) {
	_, _ = c.ReplyEmbed(utils.SuccessEmbed(description))
}

func (c *Context) ReplyWarning(description string) {
	_, _ = c.ReplyEmbed(utils.WarningEmbed(description))
}

// Usage replies with the help embed of the running command.
func (c *Context) Usage() error {
	return c.UsageWith()
}

// UsageWith is Usage with extra fields, usually the current setting.
func (c *Context) UsageWith(fields ...*discordgo.MessageEmbedField) error {
	cmd := c.Command
	usage := strings.ReplaceAll(cmd.Usage, "{prefix}", c.Prefix)
	e := utils.HelpEmbed(cmd.Name, usage, cmd.Description, cmd.Aliases)
	e.Fields = append(e.Fields, fields...)
	_, _ = c.ReplyEmbed(e)
	return nil
}

// BotMember returns the bot as a member of the current guild.
func (c *Context) BotMember() (*discordgo.Member, error) {
	return c.Platform.Member(c.Ctx, c.GuildID(), c.Platform.BotUser().ID)
}

// Authorize checks the invoker against required, replying with the missing permissions when denied.
func (c *Context) Authorize(required int64) bool {
	d := c.Perms.Authorize(c.Ctx, c.Guild, c.Member, required)
	if d.Allowed {
		return true
	}
	c.ReplyError(
		fmt.Sprintf("You are missing the following permissions: `%v`.", strings.Join(permissions.Names(d.Missing), ", ")),
		fmt.Sprintf("You need these permissions or a moderator role to use the `%v` command.", c.Command.Name),
	)
	return false
}

// BotCan checks the bot's own guild permissions, replying when some are missing.
func (c *Context) BotCan(required int64) bool {
	if required == 0 {
		return true
	}
	bot, err := c.BotMember()
	if err != nil {
		c.Log.Error("failed to fetch bot member", zap.String("guildID", c.GuildID()), zap.Error(err))
		c.ReplyError("I could not check my own permissions.", "")
		return false
	}
	missing := required &^ permissions.Compute(c.Guild, bot)
	if missing == 0 {
		return true
	}
	c.ReplyError(
		fmt.Sprintf("I am missing the following permissions: `%v`.", strings.Join(permissions.Names(missing), ", ")),
		"Please grant me these permissions and try again.",
	)
	return false
}

// ResolveMember finds a guild member from a mention or id argument.
func (c *Context) ResolveMember(arg string) (*discordgo.Member, error) {
	id := utils.TrimUserMention(arg)
	if !utils.IsSnowflake(id) {
		return nil, permissions.ErrTargetUnavailable
	}
	return c.Platform.Member(c.Ctx, c.GuildID(), id)
}

// ResolveRole finds a role from a mention, id or case insensitive name.
func (c *Context) ResolveRole(arg string) *discordgo.Role {
	if r := permissions.Role(c.Guild, utils.TrimRoleMention(arg)); r != nil {
		return r
	}
	for _, r := range c.Guild.Roles {
		if strings.EqualFold(r.Name, arg) {
			return r
		}
	}
	return nil
}

// ResolveChannel finds a channel of the current guild from a mention or id.
func (c *Context) ResolveChannel(arg string) *discordgo.Channel {
	id := utils.TrimChannelString(arg)
	if !utils.IsSnowflake(id) {
		return nil
	}
	ch, err := c.Platform.Channel(c.Ctx, id)
	if err != nil || ch.GuildID != c.GuildID() {
		return nil
	}
	return ch
}

// AuditLog mirrors an action into the guild's audit channel.
func (c *Context) AuditLog(e audit.Entry) {
	if c.Guild == nil {
		return
	}
	if e.Responsible == nil {
		e.Responsible = c.Author()
	}
	c.Audit.Log(c.Ctx, c.Guild.ID, e)
}

// ModLog appends a moderation record.
func (c *Context) ModLog(entry *database.ModLog) error {
	if entry.ChannelID == "" {
		entry.ChannelID = c.Message.ChannelID
	}
	if err := c.DB.AddModLog(c.Ctx, entry); err != nil {
		return fmt.Errorf("save mod log: %w", err)
	}
	return nil
}
