package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dispatcher turns incoming messages into command invocations.
type Dispatcher struct {
	*Services

	isNoPrefixUser func(userID string) bool
	timeout        time.Duration

	mu        sync.Mutex
	cooldowns map[string]*rate.Limiter
}

func NewDispatcher(s *Services, isNoPrefixUser func(userID string) bool) *Dispatcher {
	if isNoPrefixUser == nil {
		isNoPrefixUser = func(string) bool { return false }
	}
	return &Dispatcher{
		Services:       s,
		isNoPrefixUser: isNoPrefixUser,
		timeout:        2 * time.Minute,
		cooldowns:      make(map[string]*rate.Limiter),
	}
}

// Dispatch runs the command contained in msg, if any. It never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *discordgo.Message) {
	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		gc    *database.GuildConfig
		guild *discordgo.Guild
		err   error
	)
	if msg.GuildID != "" {
		gc, _, err = database.GetOrCreateGuildConfig(ctx, d.DB, msg.GuildID, d.DefaultPrefix)
		if err != nil {
			d.Log.Error("failed to load guild config", zap.String("guildID", msg.GuildID), zap.Error(err))
			return
		}
	}

	prefix := d.DefaultPrefix
	if gc != nil && gc.Prefix != "" {
		prefix = gc.Prefix
	}

	var content string
	switch {
	case strings.HasPrefix(msg.Content, prefix):
		content = msg.Content[len(prefix):]
	case d.isNoPrefixUser(msg.Author.ID):
		content = msg.Content
	default:
		return
	}

	args := strings.Fields(content)
	if len(args) == 0 {
		return
	}
	typed := strings.ToLower(args[0])
	args = args[1:]

	if gc != nil && gc.IsChannelBlacklisted(msg.ChannelID) {
		return
	}

	if _, err := d.DB.GetBlacklist(ctx, msg.Author.ID); err == nil {
		d.reply(ctx, msg, utils.ErrorEmbed("You are blacklisted from using Pookie.", "Contact the bot owner if you think this is a mistake."))
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		d.Log.Error("failed to check user blacklist", zap.String("userID", msg.Author.ID), zap.Error(err))
		return
	}

	name := d.Resolver.Resolve(ctx, typed, msg.GuildID)
	cmd, ok := d.Registry.Lookup(name)
	if !ok && msg.GuildID == "" {
		return
	}

	if msg.GuildID != "" {
		guild, err = d.Platform.Guild(ctx, msg.GuildID)
		if err != nil {
			d.Log.Error("failed to fetch guild", zap.String("guildID", msg.GuildID), zap.Error(err))
			return
		}
	}

	c := &Context{
		Services: d.Services,
		Ctx:      ctx,
		Message:  msg,
		Command:  cmd,
		Args:     args,
		Prefix:   prefix,
		Invoked:  typed,
		Guild:    guild,
		Config:   gc,
	}
	if guild != nil {
		c.Member = d.member(ctx, msg)
		if c.Member == nil {
			return
		}
	}

	if !ok {
		if roleID, found := d.Resolver.AutoRoleAlias(ctx, typed, msg.GuildID); found {
			d.run(c, "autorolealias", func(c *Context) error { return runAutoRoleAlias(c, typed, roleID) })
		}
		return
	}

	if cmd.OwnerOnly && msg.Author.ID != d.OwnerID {
		d.reply(ctx, msg, utils.ErrorEmbed("This command can only be used by the bot owner.", "Only the bot owner can use this command."))
		return
	}
	if cmd.GuildOnly && guild == nil {
		d.reply(ctx, msg, utils.ErrorEmbed("This command can only be used in a server.", "Try again inside a server."))
		return
	}
	if guild != nil && (!c.Authorize(cmd.Permissions) || !c.BotCan(cmd.BotPermissions)) {
		return
	}
	if wait := d.cooldown(cmd, msg.Author.ID); wait > 0 {
		d.reply(ctx, msg, utils.WarningEmbed(fmt.Sprintf("Please wait %.1f more second(s) before reusing the `%v` command.", wait.Seconds(), cmd.Name)))
		return
	}

	d.run(c, cmd.Name, cmd.Run)
}

// member returns the invoking member with its user filled in.
func (d *Dispatcher) member(ctx context.Context, msg *discordgo.Message) *discordgo.Member {
	if msg.Member != nil {
		m := *msg.Member
		m.User = msg.Author
		m.GuildID = msg.GuildID
		return &m
	}
	m, err := d.Platform.Member(ctx, msg.GuildID, msg.Author.ID)
	if err != nil {
		d.Log.Error("failed to fetch member", zap.String("guildID", msg.GuildID), zap.String("userID", msg.Author.ID), zap.Error(err))
		return nil
	}
	return m
}

func (d *Dispatcher) run(c *Context, name string, h Handler) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error("command panicked",
				zap.String("name", name),
				zap.Any("reason", r),
				zap.ByteString("stack", debug.Stack()),
			)
			d.replyFailure(c, fmt.Errorf("panic: %v", r))
		}
	}()

	err := h(c)
	d.Log.Info("command ran",
		zap.String("name", name),
		zap.String("guildID", c.GuildID()),
		zap.String("channelID", c.Message.ChannelID),
		zap.String("userID", c.Message.Author.ID),
		zap.Duration("took", time.Since(start)),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		d.Log.Error("command failed", zap.String("name", name), zap.Error(err))
		d.replyFailure(c, err)
	}
}

func (d *Dispatcher) replyFailure(c *Context, err error) {
	description := "There was an error trying to execute that command!"
	solution := "Please try again. If the issue persists, contact a bot administrator."
	if IsMissingPermissions(err) {
		description = "I am missing some permissions to perform that action."
		solution = "Please ensure I have all the necessary permissions (e.g., Kick Members, Ban Members, Manage Roles, Manage Channels)."
	} else {
		description += fmt.Sprintf("\n```%v```", err)
	}
	d.reply(c.Ctx, c.Message, utils.ErrorEmbed(description, solution))
}

func (d *Dispatcher) reply(ctx context.Context, msg *discordgo.Message, e *discordgo.MessageEmbed) {
	_, err := d.Platform.SendMessage(ctx, msg.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{e},
		Reference: msg.Reference(),
	})
	if err != nil {
		d.Log.Error("failed to send reply", zap.String("channelID", msg.ChannelID), zap.Error(err))
	}
}

// cooldown returns how long the user still has to wait before running cmd again.
func (d *Dispatcher) cooldown(cmd *Descriptor, userID string) time.Duration {
	if cmd.Cooldown <= 0 || userID == d.OwnerID {
		return 0
	}

	key := cmd.Name + ":" + userID
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.cooldowns) > 1000 {
		for k, l := range d.cooldowns {
			if l.Tokens() >= 1 {
				delete(d.cooldowns, k)
			}
		}
	}

	lim, ok := d.cooldowns[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(cmd.Cooldown), 1)
		d.cooldowns[key] = lim
	}
	r := lim.Reserve()
	if wait := r.Delay(); wait > 0 {
		r.Cancel()
		return wait
	}
	return 0
}

// IsMissingPermissions reports whether err is discord refusing an action for lack of permissions.
func IsMissingPermissions(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions {
		return true
	}
	return strings.Contains(err.Error(), "Missing Permissions")
}

// IsNotFound reports whether err means the requested user, member, channel or role does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, discordgo.ErrStateNotFound) || errors.Is(err, permissions.ErrTargetUnavailable) {
		return true
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownRole:
		return true
	}
	return false
}
