package permissions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/pookie/database"
	"go.uber.org/zap"
)

const All int64 = 1<<53 - 1

type Reason int

const (
	Denied Reason = iota
	Owner
	ModRole
	Granted
)

func (r Reason) String() string {
	switch r {
	case Owner:
		return "owner"
	case ModRole:
		return "mod role"
	case Granted:
		return "permissions"
	default:
		return "denied"
	}
}

// Decision is the outcome of an authorization check. Missing is only set when denied.
type Decision struct {
	Allowed bool
	Reason  Reason
	Missing int64
}

// Compute returns the guild level permissions of a member, ignoring channel overwrites.
func Compute(g *discordgo.Guild, m *discordgo.Member) int64 {
	if g == nil || m == nil {
		return 0
	}
	if m.User != nil && m.User.ID == g.OwnerID {
		return All
	}

	var perms int64
	for _, r := range g.Roles {
		// the @everyone role shares the guild id
		if r.ID == g.ID || hasRole(m, r.ID) {
			perms |= r.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return All
	}
	return perms
}

// ComputeChannel is Compute with the channel's permission overwrites applied.
func ComputeChannel(g *discordgo.Guild, m *discordgo.Member, ch *discordgo.Channel) int64 {
	perms := Compute(g, m)
	if perms == All || ch == nil {
		return perms
	}

	for _, o := range ch.PermissionOverwrites {
		if o.ID == g.ID {
			perms &^= o.Deny
			perms |= o.Allow
		}
	}

	var allow, deny int64
	for _, o := range ch.PermissionOverwrites {
		if o.Type == discordgo.PermissionOverwriteTypeRole && o.ID != g.ID && hasRole(m, o.ID) {
			allow |= o.Allow
			deny |= o.Deny
		}
	}
	perms &^= deny
	perms |= allow

	for _, o := range ch.PermissionOverwrites {
		if o.Type == discordgo.PermissionOverwriteTypeMember && m.User != nil && o.ID == m.User.ID {
			perms &^= o.Deny
			perms |= o.Allow
		}
	}
	return perms
}

// Evaluate decides whether member may run an action needing the required permissions.
// The owner always passes, then any configured mod role, then plain discord permissions.
func Evaluate(g *discordgo.Guild, m *discordgo.Member, modRoles []string, required int64) Decision {
	if g == nil || m == nil || m.User == nil {
		return Decision{Reason: Denied, Missing: required}
	}
	if m.User.ID == g.OwnerID {
		return Decision{Allowed: true, Reason: Owner}
	}
	for _, id := range modRoles {
		if hasRole(m, id) {
			return Decision{Allowed: true, Reason: ModRole}
		}
	}

	perms := Compute(g, m)
	if perms&required == required {
		return Decision{Allowed: true, Reason: Granted}
	}
	return Decision{Reason: Denied, Missing: required &^ perms}
}

// Evaluator loads the mod roles of a guild before evaluating.
type Evaluator struct {
	db  database.DB
	log mio.Logger
}

func NewEvaluator(db database.DB, log mio.Logger) *Evaluator {
	return &Evaluator{
		db:  db,
		log: log.Named("permissions"),
	}
}

// Authorize is Evaluate with mod roles read from storage. When storage fails the mod role rule is skipped.
func (e *Evaluator) Authorize(ctx context.Context, g *discordgo.Guild, m *discordgo.Member, required int64) Decision {
	var modRoles []string
	if g != nil {
		gc, err := e.db.GetGuildConfig(ctx, g.ID)
		switch {
		case err == nil:
			modRoles = gc.ModRoles
		case errors.Is(err, database.ErrNotFound):
		default:
			e.log.Warn("failed to load mod roles, falling back to discord permissions", zap.String("guildID", g.ID), zap.Error(err))
		}
	}
	return Evaluate(g, m, modRoles, required)
}

// Role finds a role of the guild by id.
func Role(g *discordgo.Guild, roleID string) *discordgo.Role {
	if g == nil {
		return nil
	}
	for _, r := range g.Roles {
		if r.ID == roleID {
			return r
		}
	}
	return nil
}

// HighestPosition returns the position of the highest role the member has, or 0 (the @everyone position).
func HighestPosition(g *discordgo.Guild, m *discordgo.Member) int {
	highest := 0
	if g == nil || m == nil {
		return highest
	}
	for _, r := range g.Roles {
		if hasRole(m, r.ID) && r.Position > highest {
			highest = r.Position
		}
	}
	return highest
}

// RoleManageable reports whether the role sits below the highest role of the member.
func RoleManageable(g *discordgo.Guild, m *discordgo.Member, roleID string) bool {
	r := Role(g, roleID)
	if r == nil || r.Managed || r.ID == g.ID {
		return false
	}
	return r.Position < HighestPosition(g, m)
}

func hasRole(m *discordgo.Member, roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

var (
	ErrTargetSelf        = errors.New("you cannot perform this action on yourself")
	ErrTargetBot         = errors.New("you cannot perform this action on me")
	ErrTargetOwner       = errors.New("you cannot perform this action on the server owner")
	ErrTargetAdmin       = errors.New("you cannot perform this action on an administrator")
	ErrTargetAboveActor  = errors.New("the target has an equal or higher role than you")
	ErrTargetAboveBot    = errors.New("the target has an equal or higher role than me")
	ErrTargetNotInGuild  = errors.New("that user is not in this server")
	ErrTargetUnavailable = errors.New("target could not be resolved")
)

// CheckTarget validates a moderation target against the actor and the bot.
func CheckTarget(g *discordgo.Guild, actor, target, bot *discordgo.Member) error {
	if target == nil || target.User == nil {
		return ErrTargetUnavailable
	}
	if actor != nil && actor.User != nil && target.User.ID == actor.User.ID {
		return ErrTargetSelf
	}
	if bot != nil && bot.User != nil && target.User.ID == bot.User.ID {
		return ErrTargetBot
	}
	if target.User.ID == g.OwnerID {
		return ErrTargetOwner
	}
	if Compute(g, target)&discordgo.PermissionAdministrator != 0 {
		return ErrTargetAdmin
	}

	targetPos := HighestPosition(g, target)
	actorIsOwner := actor != nil && actor.User != nil && actor.User.ID == g.OwnerID
	if !actorIsOwner && targetPos >= HighestPosition(g, actor) {
		return ErrTargetAboveActor
	}
	if bot != nil && targetPos >= HighestPosition(g, bot) {
		return ErrTargetAboveBot
	}
	return nil
}

var PermissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:    "Create Instant Invite",
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageServer:           "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionSendTTSMessages:        "Send TTS Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionAttachFiles:            "Attach Files",
	discordgo.PermissionReadMessageHistory:     "Read Message History",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:      "Use External Emojis",
	discordgo.PermissionManageThreads:          "Manage Threads",
	discordgo.PermissionCreatePublicThreads:    "Create Public Threads",
	discordgo.PermissionCreatePrivateThreads:   "Create Private Threads",
	discordgo.PermissionSendMessagesInThreads:  "Send Messages in Threads",
	discordgo.PermissionVoicePrioritySpeaker:   "Priority Speaker",
	discordgo.PermissionVoiceStreamVideo:       "Stream Video",
	discordgo.PermissionVoiceConnect:           "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:             "Speak",
	discordgo.PermissionVoiceMuteMembers:       "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:     "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:       "Move Members",
	discordgo.PermissionVoiceUseVAD:            "Use Voice Activity Detection",
	discordgo.PermissionChangeNickname:         "Change Nickname",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionModerateMembers:        "Moderate Members",
}

// Names lists the human readable names of every bit set in perms, lowest bit first.
func Names(perms int64) []string {
	var bits []int64
	for p := range PermissionNames {
		if perms&p != 0 {
			bits = append(bits, p)
		}
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	names := make([]string, 0, len(bits))
	var known int64
	for _, p := range bits {
		names = append(names, PermissionNames[p])
		known |= p
	}
	if rest := perms &^ known; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", rest))
	}
	return names
}
