// Package testutil provides an in-memory Discord platform for handler and dispatcher tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	GuildID   = "1000"
	OwnerID   = "1001"
	BotID     = "1002"
	ChannelID = "1003"
)

// Call is one recorded mutation.
type Call struct {
	Method   string
	GuildID  string
	TargetID string
	Value    string
	Reason   string
}

type SentMessage struct {
	ChannelID string
	Message   *discordgo.MessageSend
}

// FakePlatform keeps guild state in memory and records every call that changes something.
type FakePlatform struct {
	mu sync.Mutex

	Bot       *discordgo.User
	Guilds    map[string]*discordgo.Guild
	MemberMap map[string]map[string]*discordgo.Member
	Channels  map[string]*discordgo.Channel
	Users     map[string]*discordgo.User
	History   map[string][]*discordgo.Message

	Sent  []SentMessage
	DMs   []SentMessage
	Calls []Call

	// Errors makes the named method fail. FailFor makes a method fail for specific target ids only.
	Errors  map[string]error
	FailFor map[string]map[string]error

	nextID int64
}

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		Bot:       &discordgo.User{ID: BotID, Username: "pookie", Discriminator: "0", Bot: true},
		Guilds:    make(map[string]*discordgo.Guild),
		MemberMap: make(map[string]map[string]*discordgo.Member),
		Channels:  make(map[string]*discordgo.Channel),
		Users:     make(map[string]*discordgo.User),
		History:   make(map[string][]*discordgo.Message),
		Errors:    make(map[string]error),
		FailFor:   make(map[string]map[string]error),
		nextID:    5000000000000000000,
	}
}

// NewGuild builds the usual test guild: owner, bot, a mod role and a member role.
//
//	roles: @everyone(0) member(1) mod(5) admin(8) bot(9)
func NewGuild(p *FakePlatform) *discordgo.Guild {
	g := &discordgo.Guild{
		ID:      GuildID,
		Name:    "test guild",
		OwnerID: OwnerID,
		Roles: []*discordgo.Role{
			{ID: GuildID, Name: "@everyone", Position: 0, Permissions: discordgo.PermissionSendMessages | discordgo.PermissionViewChannel},
			{ID: "2001", Name: "member", Position: 1},
			{ID: "2005", Name: "mod", Position: 5, Permissions: discordgo.PermissionKickMembers | discordgo.PermissionModerateMembers | discordgo.PermissionManageMessages},
			{ID: "2008", Name: "admin", Position: 8, Permissions: discordgo.PermissionAdministrator},
			{ID: "2009", Name: "pookie", Position: 9, Permissions: discordgo.PermissionAdministrator, Managed: true},
		},
	}
	p.AddGuild(g)
	p.AddChannel(&discordgo.Channel{ID: ChannelID, GuildID: GuildID, Name: "general", Type: discordgo.ChannelTypeGuildText})
	p.AddMember(GuildID, &discordgo.User{ID: OwnerID, Username: "owner", Discriminator: "0"})
	p.AddMember(GuildID, p.Bot, "2009")
	return g
}

func (p *FakePlatform) AddGuild(g *discordgo.Guild) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Guilds[g.ID] = g
	if _, ok := p.MemberMap[g.ID]; !ok {
		p.MemberMap[g.ID] = make(map[string]*discordgo.Member)
	}
}

func (p *FakePlatform) AddChannel(ch *discordgo.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Channels[ch.ID] = ch
}

func (p *FakePlatform) AddMember(guildID string, u *discordgo.User, roles ...string) *discordgo.Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	if roles == nil {
		roles = []string{}
	}
	m := &discordgo.Member{GuildID: guildID, User: u, Roles: roles}
	p.Users[u.ID] = u
	if _, ok := p.MemberMap[guildID]; !ok {
		p.MemberMap[guildID] = make(map[string]*discordgo.Member)
	}
	p.MemberMap[guildID][u.ID] = m
	return m
}

// Fail makes method fail for the given target ids, or for everything when none are given.
func (p *FakePlatform) Fail(method string, err error, targets ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(targets) == 0 {
		p.Errors[method] = err
		return
	}
	if p.FailFor[method] == nil {
		p.FailFor[method] = make(map[string]error)
	}
	for _, t := range targets {
		p.FailFor[method][t] = err
	}
}

// CallsTo returns the recorded calls of one method.
func (p *FakePlatform) CallsTo(method string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// SentTo returns the messages sent to a channel.
func (p *FakePlatform) SentTo(channelID string) []*discordgo.MessageSend {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*discordgo.MessageSend
	for _, s := range p.Sent {
		if s.ChannelID == channelID {
			out = append(out, s.Message)
		}
	}
	return out
}

// LastEmbed returns the first embed of the last message sent to a channel, or nil.
func (p *FakePlatform) LastEmbed(channelID string) *discordgo.MessageEmbed {
	msgs := p.SentTo(channelID)
	if len(msgs) == 0 || len(msgs[len(msgs)-1].Embeds) == 0 {
		return nil
	}
	return msgs[len(msgs)-1].Embeds[0]
}

func (p *FakePlatform) fail(method, target string) error {
	if err, ok := p.Errors[method]; ok {
		return err
	}
	if m, ok := p.FailFor[method]; ok {
		if err, ok := m[target]; ok {
			return err
		}
	}
	return nil
}

func (p *FakePlatform) record(c Call) error {
	if err := p.fail(c.Method, c.TargetID); err != nil {
		return err
	}
	p.Calls = append(p.Calls, c)
	return nil
}

func (p *FakePlatform) id() string {
	p.nextID++
	return strconv.FormatInt(p.nextID, 10)
}

func notFound(what string) error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		ResponseBody: []byte(`{"message": "Unknown ` + what + `"}`),
		Message:      &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember, Message: "Unknown " + what},
	}
}

// MissingPermissions is the error discord returns for forbidden actions.
func MissingPermissions() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		ResponseBody: []byte(`{"message": "Missing Permissions", "code": 50013}`),
		Message:      &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
}

// CannotDM is the error discord returns when a user does not accept direct messages.
func CannotDM() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		ResponseBody: []byte(`{"message": "Cannot send messages to this user", "code": 50007}`),
		Message:      &discordgo.APIErrorMessage{Code: discordgo.ErrCodeCannotSendMessagesToThisUser, Message: "Cannot send messages to this user"},
	}
}

func (p *FakePlatform) BotUser() *discordgo.User {
	return p.Bot
}

func (p *FakePlatform) GuildCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Guilds)
}

func (p *FakePlatform) Latency() time.Duration {
	return 42 * time.Millisecond
}

func (p *FakePlatform) SetStatus(status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record(Call{Method: "SetStatus", Value: status})
}

func (p *FakePlatform) Guild(_ context.Context, guildID string) (*discordgo.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Guild", guildID); err != nil {
		return nil, err
	}
	g, ok := p.Guilds[guildID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	return g, nil
}

func (p *FakePlatform) Member(_ context.Context, guildID, userID string) (*discordgo.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Member", userID); err != nil {
		return nil, err
	}
	m, ok := p.MemberMap[guildID][userID]
	if !ok {
		return nil, notFound("Member")
	}
	cp := *m
	cp.Roles = append([]string{}, m.Roles...)
	return &cp, nil
}

func (p *FakePlatform) Members(_ context.Context, guildID string) ([]*discordgo.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Members", guildID); err != nil {
		return nil, err
	}
	out := make([]*discordgo.Member, 0, len(p.MemberMap[guildID]))
	for _, m := range p.MemberMap[guildID] {
		cp := *m
		cp.Roles = append([]string{}, m.Roles...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out, nil
}

func (p *FakePlatform) User(_ context.Context, userID string) (*discordgo.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.Users[userID]; ok {
		return u, nil
	}
	return nil, notFound("User")
}

func (p *FakePlatform) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.Channels[channelID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	cp := *ch
	cp.PermissionOverwrites = append([]*discordgo.PermissionOverwrite{}, ch.PermissionOverwrites...)
	return &cp, nil
}

func (p *FakePlatform) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SendMessage", channelID); err != nil {
		return nil, err
	}
	p.Sent = append(p.Sent, SentMessage{ChannelID: channelID, Message: msg})
	m := &discordgo.Message{ID: p.id(), ChannelID: channelID, Content: msg.Content, Embeds: msg.Embeds, Author: p.Bot}
	p.History[channelID] = append(p.History[channelID], m)
	return m, nil
}

func (p *FakePlatform) SendDirectMessage(_ context.Context, userID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SendDirectMessage", userID); err != nil {
		return nil, err
	}
	p.DMs = append(p.DMs, SentMessage{ChannelID: userID, Message: msg})
	return &discordgo.Message{ID: p.id(), Author: p.Bot}, nil
}

func (p *FakePlatform) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record(Call{Method: "AddReaction", TargetID: messageID, Value: emoji})
}

func (p *FakePlatform) RecentMessages(_ context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("RecentMessages", channelID); err != nil {
		return nil, err
	}
	h := p.History[channelID]
	out := make([]*discordgo.Message, 0, limit)
	for i := len(h) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

// AddHistory stores a message as if it had been posted in the channel.
func (p *FakePlatform) AddHistory(channelID string, msg *discordgo.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.ID == "" {
		msg.ID = p.id()
	}
	msg.ChannelID = channelID
	p.History[channelID] = append(p.History[channelID], msg)
}

func (p *FakePlatform) DeleteMessages(_ context.Context, channelID string, messageIDs []string, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "DeleteMessages", TargetID: channelID, Value: strconv.Itoa(len(messageIDs)), Reason: reason}); err != nil {
		return err
	}
	del := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		del[id] = true
	}
	var kept []*discordgo.Message
	for _, m := range p.History[channelID] {
		if !del[m.ID] {
			kept = append(kept, m)
		}
	}
	p.History[channelID] = kept
	return nil
}

func (p *FakePlatform) Ban(_ context.Context, guildID, userID, reason string, deleteDays int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "Ban", GuildID: guildID, TargetID: userID, Value: strconv.Itoa(deleteDays), Reason: reason}); err != nil {
		return err
	}
	delete(p.MemberMap[guildID], userID)
	return nil
}

func (p *FakePlatform) Kick(_ context.Context, guildID, userID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "Kick", GuildID: guildID, TargetID: userID, Reason: reason}); err != nil {
		return err
	}
	delete(p.MemberMap[guildID], userID)
	return nil
}

func (p *FakePlatform) Timeout(_ context.Context, guildID, userID string, until *time.Time, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	value := ""
	if until != nil {
		value = until.Format(time.RFC3339)
	}
	if err := p.record(Call{Method: "Timeout", GuildID: guildID, TargetID: userID, Value: value, Reason: reason}); err != nil {
		return err
	}
	if m, ok := p.MemberMap[guildID][userID]; ok {
		m.CommunicationDisabledUntil = until
	}
	return nil
}

func (p *FakePlatform) SetNickname(_ context.Context, guildID, userID, nick, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "SetNickname", GuildID: guildID, TargetID: userID, Value: nick, Reason: reason}); err != nil {
		return err
	}
	if m, ok := p.MemberMap[guildID][userID]; ok {
		m.Nick = nick
	}
	return nil
}

func (p *FakePlatform) AddRole(_ context.Context, guildID, userID, roleID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "AddRole", GuildID: guildID, TargetID: userID, Value: roleID, Reason: reason}); err != nil {
		return err
	}
	if m, ok := p.MemberMap[guildID][userID]; ok {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (p *FakePlatform) RemoveRole(_ context.Context, guildID, userID, roleID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "RemoveRole", GuildID: guildID, TargetID: userID, Value: roleID, Reason: reason}); err != nil {
		return err
	}
	if m, ok := p.MemberMap[guildID][userID]; ok {
		var roles []string
		for _, r := range m.Roles {
			if r != roleID {
				roles = append(roles, r)
			}
		}
		m.Roles = roles
	}
	return nil
}

func (p *FakePlatform) SetSlowmode(_ context.Context, channelID string, seconds int, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "SetSlowmode", TargetID: channelID, Value: strconv.Itoa(seconds), Reason: reason}); err != nil {
		return err
	}
	if ch, ok := p.Channels[channelID]; ok {
		ch.RateLimitPerUser = seconds
	}
	return nil
}

func (p *FakePlatform) SetPermissionOverwrite(_ context.Context, channelID, targetID string, kind discordgo.PermissionOverwriteType, allow, deny int64, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record(Call{Method: "SetPermissionOverwrite", TargetID: channelID, Value: fmt.Sprintf("%v:%d:%d", targetID, allow, deny), Reason: reason}); err != nil {
		return err
	}
	ch, ok := p.Channels[channelID]
	if !ok {
		return nil
	}
	for _, o := range ch.PermissionOverwrites {
		if o.ID == targetID {
			o.Allow, o.Deny = allow, deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{ID: targetID, Type: kind, Allow: allow, Deny: deny})
	return nil
}
