package discord

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"go.uber.org/zap"
)

const intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers | discordgo.IntentMessageContent

type Discord struct {
	token    string
	Sess     *discordgo.Session
	sessions []*discordgo.Session
	log      mio.Logger
}

// NewDiscord takes in a token and creates one session per shard.
// A shard count of 0 asks discord for the recommended count.
func NewDiscord(token string, shardCount int, log mio.Logger) (*Discord, error) {
	d := &Discord{
		token: token,
		log:   log.Named("discord"),
	}

	if shardCount <= 0 {
		n, err := recommendedShards(d.token)
		if err != nil {
			return nil, err
		}
		shardCount = n
	}

	for i := 0; i < shardCount; i++ {
		s, err := discordgo.New("Bot " + d.token)
		if err != nil {
			return nil, err
		}

		s.State.TrackVoice = true
		s.State.TrackPresences = false
		s.ShardCount = shardCount
		s.ShardID = i
		s.Identify.Intents = discordgo.MakeIntent(intents)

		d.sessions = append(d.sessions, s)
		d.log.Info("created session", zap.Int("shard", i), zap.Int("shards", shardCount))
	}
	d.Sess = d.sessions[0]

	return d, nil
}

func (d *Discord) AddHandler(h interface{}) {
	for _, s := range d.sessions {
		s.AddHandler(h)
	}
}

// Open opens the Discord sessions.
func (d *Discord) Open() error {
	for _, sess := range d.sessions {
		if err := sess.Open(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Discord sessions
func (d *Discord) Close() {
	for _, sess := range d.sessions {
		if err := sess.Close(); err != nil {
			d.log.Error("failed to close discord session", zap.Int("shard", sess.ShardID), zap.Error(err))
		}
	}
}

// recommendedShards asks discord for the recommended shardcount for the bot given the token.
func recommendedShards(token string) (int, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return -1, err
	}
	resp, err := s.GatewayBot()
	if err != nil {
		return -1, err
	}
	if resp.Shards < 1 {
		return 1, nil
	}
	return resp.Shards, nil
}

// shardFor returns the shard a guild lives on.
func shardFor(guildID string, shardCount int) int {
	id, err := strconv.ParseUint(guildID, 10, 64)
	if err != nil || shardCount <= 1 {
		return 0
	}
	return int((id >> 22) % uint64(shardCount))
}

// session returns the session of the shard that owns guildID.
func (d *Discord) session(guildID string) *discordgo.Session {
	return d.sessions[shardFor(guildID, len(d.sessions))]
}

func (d *Discord) Sessions() []*discordgo.Session {
	return d.sessions
}

func (d *Discord) BotUser() *discordgo.User {
	if d.Sess.State.User != nil {
		return d.Sess.State.User
	}
	return &discordgo.User{}
}

func (d *Discord) GuildCount() int {
	count := 0
	for _, s := range d.sessions {
		s.State.RLock()
		count += len(s.State.Guilds)
		s.State.RUnlock()
	}
	return count
}

// Latency is the average heartbeat latency across shards.
func (d *Discord) Latency() time.Duration {
	var total time.Duration
	for _, s := range d.sessions {
		total += s.HeartbeatLatency()
	}
	return total / time.Duration(len(d.sessions))
}

func (d *Discord) SetStatus(status string) error {
	for _, s := range d.sessions {
		if err := s.UpdateWatchStatus(0, status); err != nil {
			return err
		}
	}
	return nil
}
