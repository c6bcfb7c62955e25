package testutil

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/intrntsrfr/pookie/permissions"
	"github.com/stretchr/testify/require"
)

// Harness wires a dispatcher to a fake platform and an in-memory database.
type Harness struct {
	T          *testing.T
	Platform   *FakePlatform
	DB         *database.JsonDB
	Guild      *discordgo.Guild
	Services   *command.Services
	Dispatcher *command.Dispatcher

	NoPrefix map[string]bool

	msgID atomic.Int64
}

func NewHarness(t *testing.T, cmds ...*command.Descriptor) *Harness {
	t.Helper()

	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)

	p := NewFakePlatform()
	g := NewGuild(p)

	registry, err := command.NewRegistry(cmds...)
	require.NoError(t, err)

	log := logger.Nop()
	s := &command.Services{
		Platform:      p,
		DB:            db,
		Perms:         permissions.NewEvaluator(db, log),
		Audit:         audit.NewLogger(db, p, log),
		Confirm:       confirm.NewTracker(),
		Registry:      registry,
		Resolver:      command.NewResolver(registry, db, log),
		Log:           log,
		OwnerID:       OwnerID,
		DefaultPrefix: database.DefaultPrefix,
	}

	h := &Harness{
		T:        t,
		Platform: p,
		DB:       db,
		Guild:    g,
		Services: s,
		NoPrefix: make(map[string]bool),
	}
	h.msgID.Store(3000000000000000000)
	h.Dispatcher = command.NewDispatcher(s, func(id string) bool { return id == OwnerID || h.NoPrefix[id] })
	return h
}

// User adds a guild member with the given id and roles.
func (h *Harness) User(id string, roles ...string) *discordgo.User {
	u := &discordgo.User{ID: id, Username: "user" + id, Discriminator: "0"}
	h.Platform.AddMember(GuildID, u, roles...)
	return u
}

// BotUser adds another bot account to the guild.
func (h *Harness) BotUser(id string) *discordgo.User {
	u := &discordgo.User{ID: id, Username: "bot" + id, Discriminator: "0", Bot: true}
	h.Platform.AddMember(GuildID, u)
	return u
}

// Message builds a guild message in the default channel.
func (h *Harness) Message(authorID, content string) *discordgo.Message {
	author, ok := h.Platform.Users[authorID]
	if !ok {
		author = &discordgo.User{ID: authorID, Username: "user" + authorID, Discriminator: "0"}
	}
	return &discordgo.Message{
		ID:        strconv.FormatInt(h.msgID.Add(1), 10),
		ChannelID: ChannelID,
		GuildID:   GuildID,
		Content:   content,
		Author:    author,
		Timestamp: time.Now(),
	}
}

// Send posts content to the default channel as authorID and dispatches it.
func (h *Harness) Send(authorID, content string) *discordgo.Message {
	msg := h.Message(authorID, content)
	h.Platform.AddHistory(ChannelID, msg)
	h.Dispatcher.Dispatch(context.Background(), msg)
	return msg
}

// Config returns the stored guild config.
func (h *Harness) Config() *database.GuildConfig {
	gc, err := h.DB.GetGuildConfig(context.Background(), GuildID)
	require.NoError(h.T, err)
	return gc
}

// UpdateConfig changes the stored guild config.
func (h *Harness) UpdateConfig(fn func(gc *database.GuildConfig)) {
	_, err := database.UpdateGuildConfig(context.Background(), h.DB, GuildID, h.Services.DefaultPrefix, func(gc *database.GuildConfig) error {
		fn(gc)
		return nil
	})
	require.NoError(h.T, err)
}

// Aliases returns the stored alias config.
func (h *Harness) Aliases() *database.AliasConfig {
	ac, err := database.GetAliasConfig(context.Background(), h.DB, GuildID)
	require.NoError(h.T, err)
	return ac
}

// Reply returns the first embed of the last message sent to the default channel.
func (h *Harness) Reply() *discordgo.MessageEmbed {
	return h.Platform.LastEmbed(ChannelID)
}

// ModLogs lists the mod logs of the test guild.
func (h *Harness) ModLogs() []*database.ModLog {
	logs, err := h.DB.ListModLogs(context.Background(), GuildID, "")
	require.NoError(h.T, err)
	return logs
}
