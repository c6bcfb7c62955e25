package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Guild, Member and Channel try the shard state first and fall back to the API.

func (d *Discord) Guild(ctx context.Context, gid string) (*discordgo.Guild, error) {
	if g, err := d.session(gid).State.Guild(gid); err == nil {
		return g, nil
	}
	return d.Sess.Guild(gid, discordgo.WithContext(ctx))
}

func (d *Discord) Member(ctx context.Context, gid, uid string) (*discordgo.Member, error) {
	if m, err := d.session(gid).State.Member(gid, uid); err == nil && m.User != nil {
		return m, nil
	}
	m, err := d.Sess.GuildMember(gid, uid, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	m.GuildID = gid
	return m, nil
}

// Members pages through every member of a guild.
func (d *Discord) Members(ctx context.Context, gid string) ([]*discordgo.Member, error) {
	var (
		out   []*discordgo.Member
		after string
	)
	for {
		page, err := d.Sess.GuildMembers(gid, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			m.GuildID = gid
		}
		out = append(out, page...)
		if len(page) < 1000 {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (d *Discord) User(ctx context.Context, uid string) (*discordgo.User, error) {
	return d.Sess.User(uid, discordgo.WithContext(ctx))
}

func (d *Discord) Channel(ctx context.Context, cid string) (*discordgo.Channel, error) {
	for _, s := range d.sessions {
		if ch, err := s.State.Channel(cid); err == nil {
			return ch, nil
		}
	}
	return d.Sess.Channel(cid, discordgo.WithContext(ctx))
}
