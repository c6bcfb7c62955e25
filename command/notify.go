package command

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// NotifyResult tells whether a best effort direct message arrived.
type NotifyResult struct {
	Delivered bool
	Reason    string
}

func (r NotifyResult) Suppressed() bool {
	return !r.Delivered
}

// Notify sends a direct message to a user. It never fails the caller.
func Notify(ctx context.Context, p Platform, user *discordgo.User, embed *discordgo.MessageEmbed) NotifyResult {
	if user == nil {
		return NotifyResult{Reason: "unknown user"}
	}
	if user.Bot {
		return NotifyResult{Reason: "bots cannot receive direct messages"}
	}
	_, err := p.SendDirectMessage(ctx, user.ID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
	if err == nil {
		return NotifyResult{Delivered: true}
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		return NotifyResult{Reason: "the user has direct messages disabled"}
	}
	return NotifyResult{Reason: err.Error()}
}
