package general

import (
	"fmt"
	"strconv"

	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/utils"
)

const defaultNowPlayingSeconds = 60

func newNowPlayingCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "np",
		Aliases:     []string{"nowplaying"},
		Description: "Sends a user a now playing notice that lasts for the given number of seconds.",
		Usage:       "`{prefix}np <@user|userID> [seconds] [message]`",
		Category:    command.CategoryGeneral,
		OwnerOnly:   true,
		Run:         nowPlaying,
	}
}

func nowPlaying(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.Usage()
	}
	u, err := resolveUser(c, c.Args[0])
	if u == nil || err != nil {
		return err
	}

	secs, text := defaultNowPlayingSeconds, c.Rest(1)
	if n, err := strconv.Atoi(c.Arg(1)); err == nil {
		if n > 0 {
			secs = n
		}
		text = c.Rest(2)
	}
	if text == "" {
		text = "Now active"
	}

	embed := utils.NewEmbed("Now Playing", text, utils.ColorBlue, utils.Field("Expires (s)", strconv.Itoa(secs), true))
	if res := command.Notify(c.Ctx, c.Platform, u, embed); res.Suppressed() {
		c.ReplyError(fmt.Sprintf("Could not send the notice to %v.", u.String()), "Reason: "+res.Reason)
		return nil
	}
	_, _ = c.ReplyEmbed(utils.NewEmbed("NP set", fmt.Sprintf("Sent NP to %v for %vs", u.String(), secs), utils.ColorGreen))
	return nil
}
